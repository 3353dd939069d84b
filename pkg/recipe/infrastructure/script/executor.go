package script

import (
	stdcontext "context"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/command"
)

const scriptTemplate = `#!/usr/bin/env bash
set -euo pipefail
{{range .Commands}}
cd {{quote .WorkDir}}
{{range .Env}}{{assign .}} {{end}}{{quote .Executable}}{{range .Args}} {{quote .}}{{end}}
{{end}}`

type Executor interface {
	Execute(ctx stdcontext.Context, name string, commands []model.Command) error
}

// NewScriptExecutor runs command lists as one bash script, e.g. under msys for mingw builds.
func NewScriptExecutor(shell string, runner command.Runner) Executor {
	if shell == "" {
		shell = "bash"
	}
	return &executor{
		shell:  shell,
		runner: runner,
	}
}

type scriptVariables struct {
	Commands []model.Command
}

type executor struct {
	shell  string
	runner command.Runner
}

func (e executor) Execute(ctx stdcontext.Context, name string, commands []model.Command) error {
	scriptFile, err := os.CreateTemp("", name+"-*.sh")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %v script", name)
	}
	defer os.Remove(scriptFile.Name())
	err = Render(scriptFile, commands)
	closeErr := scriptFile.Close()
	if err != nil {
		return errors.Wrapf(err, "failed to render %v script", name)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "failed to write %v script", name)
	}
	_, err = e.runner.Execute(ctx, command.Command{
		Executable: e.shell,
		Args:       []string{scriptFile.Name()},
		Verbose:    true,
	})
	return errors.Wrapf(err, "script %v failed", name)
}

// Render writes commands as a bash script; env entries prefix their command.
func Render(w io.Writer, commands []model.Command) error {
	t, err := template.New("script").Funcs(template.FuncMap{"quote": quote, "assign": assign}).Parse(scriptTemplate)
	if err != nil {
		return err
	}
	return t.Execute(w, scriptVariables{Commands: commands})
}

func quote(s string) string {
	if s != "" && strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func assign(env string) string {
	name, value, _ := strings.Cut(env, "=")
	return name + "=" + quote(value)
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./=:,+@%", r)
}
