package main

import (
	stdcontext "context"
	"encoding/json"
	"os"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func printPackageInfo(ctx stdcontext.Context, job model.Job) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	info, err := dependencyContainer.Recipe().PackageInfo(job)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}
