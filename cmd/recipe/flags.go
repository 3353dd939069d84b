package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/config/profileconfig"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/dependency"
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:  "recipe",
			Value: "recipes/libjpeg/recipe.json",
		},
		&cli.StringFlag{
			Name:  "recipe-version",
			Value: "9e",
		},
	}, settingsFlags()...)
}

// jobFlags repeats the job flags on a command, values set on the
// command win over values set before it.
func jobFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{&cli.StringFlag{Name: "recipe-version"}}, settingsFlags()...), flags...)
}

func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "profile", Usage: "json file with settings and options"},
		&cli.StringFlag{Name: "os"},
		&cli.StringFlag{Name: "arch"},
		&cli.StringFlag{Name: "compiler"},
		&cli.StringFlag{Name: "compiler-version"},
		&cli.StringFlag{Name: "build-type"},
		&cli.BoolFlag{Name: "shared"},
	}
}

func withJob(action func(c *cli.Context, job model.Job) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		job, err := jobFromFlags(c)
		if err != nil {
			return err
		}
		return action(c, job)
	}
}

// jobFromFlags layers host defaults, the profile and explicit flags.
func jobFromFlags(c *cli.Context) (model.Job, error) {
	resolved := profileconfig.Job{Settings: profileconfig.HostSettings()}
	if path := lookupString(c, "profile"); path != "" {
		dependencyContainer, err := dependency.ContainerFromContext(c.Context)
		if err != nil {
			return model.Job{}, err
		}
		profile, err := dependencyContainer.ProfileLoader().Load(path)
		if err != nil {
			return model.Job{}, err
		}
		resolved = profileconfig.Merge(resolved, profile)
	}
	flags := profileconfig.Job{Settings: model.Settings{
		OS:              lookupString(c, "os"),
		Arch:            lookupString(c, "arch"),
		Compiler:        lookupString(c, "compiler"),
		CompilerVersion: lookupString(c, "compiler-version"),
		BuildType:       lookupString(c, "build-type"),
	}}
	if shared, ok := lookupBool(c, "shared"); ok {
		flags.Shared = &shared
	}
	resolved = profileconfig.Merge(resolved, flags)
	return model.Job{
		Version:  lookupString(c, "recipe-version"),
		Settings: resolved.Settings,
		Options:  resolved.Options(),
	}, nil
}

func lookupString(c *cli.Context, name string) string {
	var fallback string
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.String(name)
		}
		if value := ctx.String(name); fallback == "" {
			fallback = value
		}
	}
	return fallback
}

func lookupBool(c *cli.Context, name string) (bool, bool) {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.Bool(name), true
		}
	}
	return false, false
}
