package editing

import (
	"context"
	"log/slog"

	"reelgen/internal/logging"
	"reelgen/internal/media"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// MergeStage is the merge_video handler.
type MergeStage struct {
	tool   media.Tool
	logger *slog.Logger
}

func NewMergeStage(tool media.Tool, logger *slog.Logger) *MergeStage {
	return &MergeStage{tool: tool, logger: logging.NewComponentLogger(logger, "merge")}
}

func (s *MergeStage) Name() task.Stage { return task.StageMergeVideo }

func (s *MergeStage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.tool)
}

// Execute concatenates the cuts in asset order into merged.mp4.
func (s *MergeStage) Execute(ctx context.Context, t *task.Task) error {
	if err := stage.RequireAssets(s.Name(), t); err != nil {
		return err
	}
	layout := t.Layout()
	cuts := make([]string, t.AssetCount())
	for i := range cuts {
		cuts[i] = layout.Cut(i)
	}
	if err := stage.RequireFiles(s.Name(), cuts...); err != nil {
		return err
	}
	if err := s.tool.ConcatVideos(ctx, cuts, layout.MergedVideo()); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("clips merged", logging.Int("clips", len(cuts)))
	return nil
}
