package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"reelgen/internal/logging"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// PromptData is the template context for generation prompts.
type PromptData struct {
	Name        string
	Description string
	Mode        string
	Index       int
	Count       int
}

// Runner executes a batch of units. *Pool implements it.
type Runner interface {
	Run(ctx context.Context, units []Unit) error
}

// Stage is the generate_video handler: one clip per input asset.
type Stage struct {
	runner Runner
	prompt *template.Template
	logger *slog.Logger
}

// NewStage parses promptTemplate and returns the stage handler.
func NewStage(runner Runner, promptTemplate string, logger *slog.Logger) (*Stage, error) {
	tmpl, err := template.New("generation").Option("missingkey=error").Parse(promptTemplate)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(task.StageGenerateVideo), "parse prompt", "", err)
	}
	return &Stage{
		runner: runner,
		prompt: tmpl,
		logger: logging.NewComponentLogger(logger, "generation"),
	}, nil
}

func (s *Stage) Name() task.Stage { return task.StageGenerateVideo }

func (s *Stage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.runner)
}

// Execute regenerates every clip. Clips from an earlier failed attempt are
// overwritten.
func (s *Stage) Execute(ctx context.Context, t *task.Task) error {
	if err := stage.RequireAssets(s.Name(), t); err != nil {
		return err
	}
	layout := t.Layout()
	units := make([]Unit, 0, t.AssetCount())
	for i := range t.Extensions {
		if err := stage.RequireFiles(s.Name(), t.InputPath(i)); err != nil {
			return err
		}
		prompt, err := s.renderPrompt(t, i)
		if err != nil {
			return err
		}
		units = append(units, Unit{
			Index:      i,
			ImagePath:  t.InputPath(i),
			OutputPath: layout.Video(i),
			Prompt:     prompt,
		})
	}
	logging.WithContext(ctx, s.logger).Info("generating clips", logging.Int("assets", len(units)))
	return s.runner.Run(ctx, units)
}

func (s *Stage) renderPrompt(t *task.Task, index int) (string, error) {
	var sb strings.Builder
	data := PromptData{
		Name:        t.Options.Name,
		Description: t.Options.Description,
		Mode:        t.Options.EffectiveMode(),
		Index:       index,
		Count:       t.AssetCount(),
	}
	if err := s.prompt.Execute(&sb, data); err != nil {
		return "", services.Wrap(services.ErrConfiguration, string(s.Name()), "render prompt", fmt.Sprintf("asset %d", index), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
