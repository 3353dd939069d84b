package main

import (
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

func runJob(t *testing.T, args ...string) model.Job {
	t.Helper()
	var got model.Job
	app := &cli.App{
		Name:  "recipe",
		Flags: globalFlags(),
		Commands: cli.Commands{
			&cli.Command{
				Name:  "url",
				Flags: jobFlags(),
				Action: withJob(func(c *cli.Context, job model.Job) error {
					got = job
					return nil
				}),
			},
		},
	}
	if err := app.Run(append([]string{"recipe"}, args...)); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return got
}

func TestJobFlagsAfterCommand(t *testing.T) {
	job := runJob(t, "url", "--os", "Windows", "--compiler", "Visual Studio", "--arch", "x86", "--build-type", "Debug", "--shared")
	want := model.Settings{
		OS:        model.OSWindows,
		Arch:      model.ArchX86,
		Compiler:  model.CompilerVisualStudio,
		BuildType: model.BuildTypeDebug,
	}
	if job.Settings.OS != want.OS || job.Settings.Arch != want.Arch || job.Settings.Compiler != want.Compiler || job.Settings.BuildType != want.BuildType {
		t.Fatalf("settings = %+v, want %+v", job.Settings, want)
	}
	if !job.Options.Shared {
		t.Fatal("expected shared option")
	}
	if job.Version != "9e" {
		t.Fatalf("version = %v, want default 9e", job.Version)
	}
}

func TestJobFlagsBeforeCommand(t *testing.T) {
	job := runJob(t, "--os", "Linux", "--arch", "armv8", "--recipe-version", "9d", "url", "--arch", "x86_64")
	if job.Settings.OS != model.OSLinux {
		t.Fatalf("os = %v, want %v", job.Settings.OS, model.OSLinux)
	}
	if job.Settings.Arch != model.ArchX86_64 {
		t.Fatalf("arch = %v, command flag must win", job.Settings.Arch)
	}
	if job.Version != "9d" {
		t.Fatalf("version = %v, want 9d", job.Version)
	}
	if job.Options.Shared {
		t.Fatal("expected static default")
	}
}
