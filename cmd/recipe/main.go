package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/config/envconfig"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/config/recipeconfig"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()

	config, err := envconfig.Load()
	if err != nil {
		mainLogger.FatalError(err, "failed load environment config")
	}

	var container dependency.Container
	app := &cli.App{
		Name:  "recipe",
		Usage: "fetch, build and package libjpeg for a settings tuple",
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			recipe, err := recipeconfig.Load(c.String("recipe"))
			if err != nil {
				return err
			}
			container, err = dependency.NewDependencyContainer(c.Context, mainLogger, recipe, config)
			if err != nil {
				return err
			}
			c.Context = dependency.ContainerToContext(c.Context, container)
			return nil
		},
		After: func(c *cli.Context) error {
			if container == nil {
				return nil
			}
			return container.Close()
		},
		Commands: cli.Commands{
			&cli.Command{
				Name:  "url",
				Usage: "print the source archive url",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return printSourceURL(c.Context, job)
				}),
			},
			&cli.Command{
				Name:  "source",
				Usage: "download and extract sources",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return source(c.Context, job)
				}),
			},
			&cli.Command{
				Name:  "build",
				Usage: "build previously fetched sources",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return build(c.Context, job)
				}),
			},
			&cli.Command{
				Name:  "package",
				Usage: "copy built artifacts into the package folder",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return packageBuild(c.Context, job)
				}),
			},
			&cli.Command{
				Name:  "info",
				Usage: "print package id and consumer information",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return printPackageInfo(c.Context, job)
				}),
			},
			&cli.Command{
				Name:  "create",
				Usage: "source, build and package",
				Flags: jobFlags(
					&cli.BoolFlag{
						Name: "force",
					},
				),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return create(c.Context, job, c.Bool("force"))
				}),
			},
			&cli.Command{
				Name:  "export",
				Usage: "archive a created package",
				Flags: jobFlags(
					&cli.StringFlag{
						Name:     "out",
						Required: true,
					},
				),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return export(c.Context, job, c.String("out"))
				}),
			},
			&cli.Command{
				Name:  "list",
				Usage: "list cached packages",
				Action: func(c *cli.Context) error {
					return list(c.Context)
				},
			},
			&cli.Command{
				Name:  "matrix",
				Usage: "print or run the build matrix of the host compiler",
				Flags: jobFlags(
					&cli.StringSliceFlag{
						Name: "archs",
					},
					&cli.BoolFlag{
						Name: "run",
					},
					&cli.BoolFlag{
						Name: "force",
					},
					&cli.IntFlag{
						Name:  "jobs",
						Value: 1,
					},
				),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					return matrix(c.Context, job, c.StringSlice("archs"), matrixRun{
						run:   c.Bool("run"),
						force: c.Bool("force"),
						jobs:  c.Int("jobs"),
					})
				}),
			},
		},
	}
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.FatalError(err, "failed execute command "+strings.Join(os.Args, " "))
	}
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
