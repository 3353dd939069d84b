package service

import (
	"context"
	"fmt"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

type SourceFetcher interface {
	Fetch(ctx context.Context, archive model.SourceArchive, buildFolder string) error
}

type Builder interface {
	Build(ctx context.Context, plan model.BuildPlan) error
}

type Packager interface {
	Package(plan model.PackagePlan, info model.PackageInfo) error
}

type PackageCache interface {
	Get(ctx context.Context, ref model.Reference, id model.PackageID) (model.PackageRecord, bool, error)
	Save(ctx context.Context, record model.PackageRecord) error
	List(ctx context.Context) ([]model.PackageRecord, error)
}

type PackageArchiver interface {
	Archive(ctx context.Context, packageFolder, out string) (int64, error)
}

type Recipe interface {
	Reference(version model.Version) model.Reference
	Backend(job model.Job) (model.Backend, error)
	SourceArchive(job model.Job) (model.SourceArchive, error)
	Source(ctx context.Context, job model.Job) error
	Build(ctx context.Context, job model.Job) error
	Package(ctx context.Context, job model.Job) (model.PackageRecord, error)
	PackageInfo(job model.Job) (model.PackageInfo, error)
	Create(ctx context.Context, job model.Job, force bool) (model.PackageRecord, error)
	Export(ctx context.Context, job model.Job, out string) (int64, error)
	List(ctx context.Context) ([]model.PackageRecord, error)
}

type RecipeDependencies struct {
	Fetcher  SourceFetcher
	Builder  Builder
	Packager Packager
	Cache    PackageCache
	Archiver PackageArchiver
}

func NewRecipeService(
	recipe model.Recipe,
	layout model.Layout,
	jobs int,
	logger applogger.Logger,
	deps RecipeDependencies,
) Recipe {
	return &recipeService{
		recipe:   recipe,
		layout:   layout,
		jobs:     jobs,
		logger:   logger,
		fetcher:  deps.Fetcher,
		builder:  deps.Builder,
		packager: deps.Packager,
		cache:    deps.Cache,
		archiver: deps.Archiver,
	}
}

type recipeService struct {
	recipe model.Recipe
	layout model.Layout
	jobs   int

	logger   applogger.Logger
	fetcher  SourceFetcher
	builder  Builder
	packager Packager
	cache    PackageCache
	archiver PackageArchiver
}

func (service recipeService) Reference(version model.Version) model.Reference {
	return model.Reference{Name: service.recipe.Name, Version: version}
}

func (service recipeService) SourceArchive(job model.Job) (model.SourceArchive, error) {
	if err := job.Settings.Validate(); err != nil {
		return model.SourceArchive{}, err
	}
	return SourceArchive(service.recipe, job.Version, job.Settings)
}

func (service recipeService) Source(ctx context.Context, job model.Job) error {
	archive, err := service.SourceArchive(job)
	if err != nil {
		return err
	}
	ref := service.Reference(job.Version)
	buildFolder := service.layout.BuildFolder(ref, PackageID(job.Settings, job.Options))
	service.logger.Info(fmt.Sprintf("trying download of url: %v", archive.URL))
	return service.fetcher.Fetch(ctx, archive, buildFolder)
}

func (service recipeService) Build(ctx context.Context, job model.Job) error {
	backend, err := service.Backend(job)
	if err != nil {
		return err
	}
	ref := service.Reference(job.Version)
	plan, err := NewBuildPlan(backend, job, service.layout.BuildFolder(ref, PackageID(job.Settings, job.Options)), service.jobs)
	if err != nil {
		return err
	}
	service.logger.Info(fmt.Sprintf("build \"%v\" with %v backend (%v)...", ref, backend, job.Settings))
	start := time.Now()
	defer func() {
		service.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	return service.builder.Build(ctx, plan)
}

func (service recipeService) Package(ctx context.Context, job model.Job) (model.PackageRecord, error) {
	backend, err := service.Backend(job)
	if err != nil {
		return model.PackageRecord{}, err
	}
	info, err := service.PackageInfo(job)
	if err != nil {
		return model.PackageRecord{}, err
	}
	plan := NewPackagePlan(
		backend,
		job,
		service.layout.BuildFolder(info.Reference, info.PackageID),
		service.layout.PackageFolder(info.Reference, info.PackageID),
	)
	service.logger.Info(fmt.Sprintf("package \"%v:%v\"...", info.Reference, info.PackageID))
	if err = service.packager.Package(plan, info); err != nil {
		return model.PackageRecord{}, err
	}
	record := model.PackageRecord{
		Reference:     info.Reference,
		PackageID:     info.PackageID,
		Settings:      job.Settings,
		Options:       job.Options,
		Libs:          info.CppInfo.Libs,
		PackageFolder: plan.PackageFolder,
		CreatedAt:     time.Now().UTC(),
	}
	if err = service.cache.Save(ctx, record); err != nil {
		return model.PackageRecord{}, err
	}
	return record, nil
}

func (service recipeService) PackageInfo(job model.Job) (model.PackageInfo, error) {
	if err := job.Settings.Validate(); err != nil {
		return model.PackageInfo{}, err
	}
	if _, ok := service.recipe.Versions[job.Version]; !ok {
		return model.PackageInfo{}, fmt.Errorf("version %v of recipe %v not found", job.Version, service.recipe.Name)
	}
	return model.PackageInfo{
		Reference: service.Reference(job.Version),
		PackageID: PackageID(job.Settings, job.Options),
		Settings:  job.Settings,
		Options:   job.Options,
		CppInfo:   CppInfo(job.Settings, job.Options),
	}, nil
}

func (service recipeService) Create(ctx context.Context, job model.Job, force bool) (model.PackageRecord, error) {
	if _, err := service.Backend(job); err != nil {
		return model.PackageRecord{}, err
	}
	ref := service.Reference(job.Version)
	id := PackageID(job.Settings, job.Options)
	if !force {
		record, ok, err := service.cache.Get(ctx, ref, id)
		if err != nil {
			return model.PackageRecord{}, err
		}
		if ok {
			service.logger.Info(fmt.Sprintf("skip build \"%v:%v\", package already in cache", ref, id))
			return record, nil
		}
	}
	if err := service.Source(ctx, job); err != nil {
		return model.PackageRecord{}, err
	}
	if err := service.Build(ctx, job); err != nil {
		return model.PackageRecord{}, err
	}
	return service.Package(ctx, job)
}

func (service recipeService) Export(ctx context.Context, job model.Job, out string) (int64, error) {
	ref := service.Reference(job.Version)
	id := PackageID(job.Settings, job.Options)
	record, ok, err := service.cache.Get(ctx, ref, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("package \"%v:%v\" not found, run create first", ref, id)
	}
	return service.archiver.Archive(ctx, record.PackageFolder, out)
}

func (service recipeService) List(ctx context.Context) ([]model.PackageRecord, error) {
	return service.cache.List(ctx)
}

func (service recipeService) Backend(job model.Job) (model.Backend, error) {
	if err := job.Settings.Validate(); err != nil {
		return "", err
	}
	recipeVersion, ok := service.recipe.Versions[job.Version]
	if !ok {
		return "", fmt.Errorf("version %v of recipe %v not found", job.Version, service.recipe.Name)
	}
	backend, err := SelectBackend(job.Settings, recipeVersion.WindowsBackend)
	if err != nil {
		return "", err
	}
	return backend, CheckOptions(backend, job.Options)
}
