package main

import (
	stdcontext "context"
	"fmt"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func printSourceURL(ctx stdcontext.Context, job model.Job) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	archive, err := dependencyContainer.Recipe().SourceArchive(job)
	if err != nil {
		return err
	}
	fmt.Println(archive.URL)
	return nil
}
