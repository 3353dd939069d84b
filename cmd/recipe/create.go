package main

import (
	stdcontext "context"
	"fmt"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func create(ctx stdcontext.Context, job model.Job, force bool) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	record, err := dependencyContainer.Recipe().Create(ctx, job, force)
	if err != nil {
		return err
	}
	fmt.Printf("%v:%v %v\n", record.Reference, record.PackageID, record.PackageFolder)
	return nil
}
