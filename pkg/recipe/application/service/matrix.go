package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

type MatrixItem struct {
	Job           model.Job
	BuildRequires []string
}

var mingwBuildRequires = []string{
	"mingw_installer/1.0@conan/stable",
	"msys2_installer/latest@bincrafters/stable",
}

// Matrix expands arch x build type x shared for the host compiler.
// Windows hosts building with gcc also need the mingw and msys2 installers.
func Matrix(version model.Version, hostOS model.OS, compiler model.Compiler, compilerVersion string, archs []model.Arch) []MatrixItem {
	if len(archs) == 0 {
		archs = []model.Arch{model.ArchX86, model.ArchX86_64}
	}
	var items []MatrixItem
	for _, arch := range archs {
		for _, buildType := range []model.BuildType{model.BuildTypeRelease, model.BuildTypeDebug} {
			for _, shared := range []bool{false, true} {
				item := MatrixItem{Job: model.Job{
					Version: version,
					Settings: model.Settings{
						OS:              hostOS,
						Arch:            arch,
						Compiler:        compiler,
						CompilerVersion: compilerVersion,
						BuildType:       buildType,
					},
					Options: model.Options{Shared: shared},
				}}
				if hostOS == model.OSWindows && compiler == model.CompilerGCC {
					item.BuildRequires = append(item.BuildRequires, mingwBuildRequires...)
				}
				items = append(items, item)
			}
		}
	}
	return items
}

type MatrixResult struct {
	Item    MatrixItem
	Record  model.PackageRecord
	Skipped bool
	Err     error
}

// RunMatrix creates every buildable item with at most jobs concurrent builds.
// Items whose back-end can not handle the settings or options are skipped, not failed.
func RunMatrix(ctx context.Context, recipe Recipe, items []MatrixItem, jobs int, force bool) ([]MatrixResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]MatrixResult, len(items))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)
	for i, item := range items {
		i, item := i, item
		if _, err := recipe.Backend(item.Job); err != nil {
			results[i] = MatrixResult{Item: item, Skipped: true, Err: err}
			continue
		}
		group.Go(func() error {
			record, err := recipe.Create(ctx, item.Job, force)
			results[i] = MatrixResult{Item: item, Record: record, Err: err}
			if err != nil {
				return fmt.Errorf("create %v (%v shared=%v): %w",
					recipe.Reference(item.Job.Version), item.Job.Settings, item.Job.Options.Shared, err)
			}
			return nil
		})
	}
	err := group.Wait()
	return results, err
}
