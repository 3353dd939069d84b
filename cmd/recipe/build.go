package main

import (
	stdcontext "context"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func build(ctx stdcontext.Context, job model.Job) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	return dependencyContainer.Recipe().Build(ctx, job)
}
