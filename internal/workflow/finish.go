package workflow

import (
	"context"
	"log/slog"

	"reelgen/internal/logging"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// FinishStage is the terminal handler. It confirms the composed reel exists
// so a task is never reported finished without its artifact.
type FinishStage struct {
	logger *slog.Logger
}

func NewFinishStage(logger *slog.Logger) *FinishStage {
	return &FinishStage{logger: logging.NewComponentLogger(logger, "finish")}
}

func (s *FinishStage) Name() task.Stage { return task.StageFinish }

func (s *FinishStage) Execute(ctx context.Context, t *task.Task) error {
	final := t.Layout().Final()
	if err := stage.RequireFiles(s.Name(), final); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("reel ready", logging.String("output", final))
	return nil
}
