package dependency

import (
	"context"
	"errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/archive"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/builder"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/cache"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/command"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/config/envconfig"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/config/profileconfig"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/fetcher"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/packager"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/script"
)

type containerKey struct{}

type Container interface {
	Recipe() service.Recipe
	ProfileLoader() *profileconfig.Loader
	Config() envconfig.Config
	Close() error
}

func NewDependencyContainer(
	ctx context.Context,
	logger applogger.Logger,
	recipe model.Recipe,
	config envconfig.Config,
) (Container, error) {
	layout := model.Layout{Home: config.Home}
	store, err := cache.Open(ctx, layout.CacheDB())
	if err != nil {
		return nil, err
	}
	runner := command.NewCommandRunner(logger, config.SilentMode())
	recipeService := service.NewRecipeService(recipe, layout, config.Jobs, logger, service.RecipeDependencies{
		Fetcher:  fetcher.NewSourceFetcher(logger, layout.DownloadFolder(), config.DownloadTimeout),
		Builder:  builder.NewBuilder(logger, runner, script.NewScriptExecutor(config.Shell, runner)),
		Packager: packager.NewPackager(logger),
		Cache:    store,
		Archiver: archive.NewArchiver(logger),
	})

	return &container{
		recipe:        recipeService,
		profileLoader: profileconfig.NewLoader(),
		config:        config,
		store:         store,
	}, nil
}

type container struct {
	recipe        service.Recipe
	profileLoader *profileconfig.Loader
	config        envconfig.Config
	store         *cache.Store
}

func (c *container) Recipe() service.Recipe {
	return c.recipe
}

func (c *container) ProfileLoader() *profileconfig.Loader {
	return c.profileLoader
}

func (c *container) Config() envconfig.Config {
	return c.config
}

func (c *container) Close() error {
	return c.store.Close()
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(containerKey{})
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, containerKey{}, c)
}
