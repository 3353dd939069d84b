package main

import (
	stdcontext "context"
	"fmt"
	"strings"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

type matrixRun struct {
	run   bool
	force bool
	jobs  int
}

func matrix(ctx stdcontext.Context, job model.Job, archs []string, params matrixRun) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	s := job.Settings
	items := service.Matrix(job.Version, s.OS, s.Compiler, s.CompilerVersion, archs)
	if !params.run {
		for _, item := range items {
			printMatrixItem(item, "")
		}
		return nil
	}
	results, err := service.RunMatrix(ctx, dependencyContainer.Recipe(), items, params.jobs, params.force)
	for _, result := range results {
		status := "ok"
		switch {
		case result.Skipped:
			status = "skipped: " + result.Err.Error()
		case result.Err != nil:
			status = "failed: " + result.Err.Error()
		case result.Record.PackageID == "":
			status = "cancelled"
		}
		printMatrixItem(result.Item, status)
	}
	return err
}

func printMatrixItem(item service.MatrixItem, status string) {
	line := fmt.Sprintf("%v shared=%v", item.Job.Settings, item.Job.Options.Shared)
	if len(item.BuildRequires) > 0 {
		line += " build_requires=" + strings.Join(item.BuildRequires, ",")
	}
	if status != "" {
		line += " " + status
	}
	fmt.Println(line)
}
