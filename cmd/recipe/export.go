package main

import (
	stdcontext "context"
	"errors"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func export(ctx stdcontext.Context, job model.Job, out string) error {
	if out == "" {
		return errors.New("output path not provided")
	}
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = dependencyContainer.Recipe().Export(ctx, job, out)
	return err
}
