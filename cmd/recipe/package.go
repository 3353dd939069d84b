package main

import (
	stdcontext "context"
	"fmt"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func packageBuild(ctx stdcontext.Context, job model.Job) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	record, err := dependencyContainer.Recipe().Package(ctx, job)
	if err != nil {
		return err
	}
	fmt.Println(record.PackageFolder)
	return nil
}
