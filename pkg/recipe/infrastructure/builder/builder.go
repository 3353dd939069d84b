package builder

import (
	stdcontext "context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
	"github.com/tss-calculator/recipes/pkg/recipe/application/service"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/command"
	"github.com/tss-calculator/recipes/pkg/recipe/infrastructure/script"
)

func NewBuilder(
	logger applogger.Logger,
	runner command.Runner,
	scriptExecutor script.Executor,
) service.Builder {
	return &builder{
		logger:         logger,
		runner:         runner,
		scriptExecutor: scriptExecutor,
	}
}

type builder struct {
	logger         applogger.Logger
	runner         command.Runner
	scriptExecutor script.Executor
}

func (b builder) Build(ctx stdcontext.Context, plan model.BuildPlan) error {
	if _, err := os.Stat(plan.SourceDir); err != nil {
		return errors.Wrapf(err, "source folder of %v build is not available, run source first", plan.Backend)
	}
	for _, step := range plan.Steps {
		err := b.executeStep(ctx, plan, step)
		if err == nil {
			continue
		}
		if step.Tolerated {
			b.logger.Error(err, fmt.Sprintf("step \"%v\" failed, continue build", step.Description))
			continue
		}
		return err
	}
	return nil
}

func (b builder) executeStep(ctx stdcontext.Context, plan model.BuildPlan, step model.Step) error {
	b.logger.Info(fmt.Sprintf("start %v \"%v\"...", plan.Backend, step.Description))
	start := time.Now()
	defer func() {
		b.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	switch step.Kind {
	case model.StepRun:
		output, err := b.runner.Execute(ctx, command.Command{
			WorkDir:    step.Command.WorkDir,
			Executable: step.Command.Executable,
			Args:       step.Command.Args,
			Env:        step.Command.Env,
		})
		if err != nil {
			b.logger.Debug(output)
			return errors.Wrapf(err, "failed to %v", step.Description)
		}
		return nil
	case model.StepRename:
		if _, err := os.Stat(step.To); err == nil {
			return nil
		}
		return errors.Wrapf(os.Rename(step.From, step.To), "failed to %v", step.Description)
	case model.StepScript:
		return b.scriptExecutor.Execute(ctx, plan.Backend, step.Script)
	default:
		return fmt.Errorf("unknown build step kind %v", step.Kind)
	}
}
