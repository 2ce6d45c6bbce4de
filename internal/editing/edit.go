package editing

import (
	"context"
	"fmt"
	"log/slog"

	"reelgen/internal/logging"
	"reelgen/internal/media"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/subtitles"
	"reelgen/internal/task"
)

// EditStage is the edit_video handler.
type EditStage struct {
	tool       media.Tool
	compositor media.Compositor
	preCutTrim float64
	logger     *slog.Logger
}

// NewEditStage returns the edit handler. preCutTrim is the leading silence,
// in seconds, cut from every narration segment.
func NewEditStage(tool media.Tool, compositor media.Compositor, preCutTrim float64, logger *slog.Logger) *EditStage {
	if preCutTrim < 0 {
		preCutTrim = 0
	}
	return &EditStage{
		tool:       tool,
		compositor: compositor,
		preCutTrim: preCutTrim,
		logger:     logging.NewComponentLogger(logger, "edit"),
	}
}

func (s *EditStage) Name() task.Stage { return task.StageEditVideo }

// HealthCheck covers both the probing tool and the compositor.
func (s *EditStage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.tool, s.compositor)
}

// Execute measures each narration segment, joins them into merged.mp3,
// builds the global caption timeline, and composes final.mp4.
func (s *EditStage) Execute(ctx context.Context, t *task.Task) error {
	if len(t.Script) == 0 {
		return services.Wrap(services.ErrValidation, string(s.Name()), "compose reel", "script is empty", nil)
	}
	layout := t.Layout()
	speech := make([]string, len(t.Script))
	for i := range t.Script {
		speech[i] = layout.Speech(i)
	}
	if err := stage.RequireFiles(s.Name(), append([]string{layout.MergedVideo()}, speech...)...); err != nil {
		return err
	}

	segments := make([]subtitles.Segment, len(t.Script))
	for i, text := range t.Script {
		duration, err := s.tool.Duration(ctx, speech[i])
		if err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = subtitles.Segment{Text: text, Duration: duration}
	}

	if err := s.tool.ConcatAudios(ctx, speech, layout.MergedAudio(), s.preCutTrim); err != nil {
		return err
	}

	timeline := subtitles.Synthesizer{PreCutTrim: s.preCutTrim}.Timeline(segments)
	if err := s.compositor.Compose(ctx, layout.MergedVideo(), layout.MergedAudio(), timeline, layout.Final()); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("reel composed",
		logging.Int("segments", len(segments)),
		logging.Int("words", len(timeline)),
		logging.String("output", layout.Final()),
	)
	return nil
}
