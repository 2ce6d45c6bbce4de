package editing

import (
	"context"
	"log/slog"

	"reelgen/internal/fileutil"
	"reelgen/internal/logging"
	"reelgen/internal/media"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// CutStage is the cut_video handler.
type CutStage struct {
	tool   media.Tool
	logger *slog.Logger
}

func NewCutStage(tool media.Tool, logger *slog.Logger) *CutStage {
	return &CutStage{tool: tool, logger: logging.NewComponentLogger(logger, "cut")}
}

func (s *CutStage) Name() task.Stage { return task.StageCutVideo }

func (s *CutStage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.tool)
}

// Execute writes cut/<i>.mp4 for every asset. A trim length of zero keeps
// clips whole and copies them verbatim.
func (s *CutStage) Execute(ctx context.Context, t *task.Task) error {
	if err := stage.RequireAssets(s.Name(), t); err != nil {
		return err
	}
	layout := t.Layout()
	seconds := t.Options.TrimLengthSeconds
	for i := range t.Extensions {
		if err := stage.RequireFiles(s.Name(), layout.Video(i)); err != nil {
			return err
		}
	}
	logger := logging.WithContext(ctx, s.logger)
	for i := range t.Extensions {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, dst := layout.Video(i), layout.Cut(i)
		if seconds <= 0 {
			if err := fileutil.CopyFile(src, dst); err != nil {
				return services.WrapStorage(nil, "cut clip", dst, err)
			}
			continue
		}
		if err := s.tool.Trim(ctx, src, dst, seconds); err != nil {
			return err
		}
	}
	logger.Info("clips cut",
		logging.Int("clips", t.AssetCount()),
		logging.Float64("trim_seconds", seconds),
	)
	return nil
}
