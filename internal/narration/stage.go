package narration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"reelgen/internal/logging"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// ScriptStage is the generate_script handler.
type ScriptStage struct {
	writer ScriptWriter
	logger *slog.Logger
}

// NewScriptStage returns the script handler.
func NewScriptStage(writer ScriptWriter, logger *slog.Logger) *ScriptStage {
	return &ScriptStage{writer: writer, logger: logging.NewComponentLogger(logger, "script")}
}

func (s *ScriptStage) Name() task.Stage { return task.StageGenerateScript }

func (s *ScriptStage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.writer)
}

// Execute drafts the script once and replaces t.Script with its segments.
func (s *ScriptStage) Execute(ctx context.Context, t *task.Task) error {
	raw, err := s.writer.Generate(ctx, t.Options.Name, t.Options.Description, t.Options.EffectiveMode())
	if err != nil {
		if services.Classify(err) != "internal" {
			return err
		}
		return services.Wrap(services.ErrProvider, string(s.Name()), "draft script", "", err)
	}
	segments := SplitScript(raw)
	if len(segments) == 0 {
		return services.Wrap(services.ErrProvider, string(s.Name()), "draft script", "model returned no usable lines", nil)
	}
	t.Script = segments
	logging.WithContext(ctx, s.logger).Info("script drafted", logging.Int("segments", len(segments)))
	return nil
}

// SpeechStage is the generate_tts handler.
type SpeechStage struct {
	synth  Synthesizer
	voice  VoiceConfig
	logger *slog.Logger
}

// NewSpeechStage returns the speech handler.
func NewSpeechStage(synth Synthesizer, voice VoiceConfig, logger *slog.Logger) *SpeechStage {
	return &SpeechStage{synth: synth, voice: voice, logger: logging.NewComponentLogger(logger, "speech")}
}

func (s *SpeechStage) Name() task.Stage { return task.StageGenerateTTS }

func (s *SpeechStage) HealthCheck(context.Context) stage.Health {
	return stage.Check(s.Name(), s.synth)
}

// Execute voices every script segment into tts/<i>.mp3, in order. Clips left
// behind by a previous, longer script are removed first.
func (s *SpeechStage) Execute(ctx context.Context, t *task.Task) error {
	if len(t.Script) == 0 {
		return services.Wrap(services.ErrValidation, string(s.Name()), "voice script", "script is empty", nil)
	}
	layout := t.Layout()
	if err := clearSpeech(layout.SpeechRoot()); err != nil {
		return services.WrapStorage(nil, "voice script", layout.SpeechRoot(), err)
	}
	logger := logging.WithContext(ctx, s.logger)
	for i, segment := range t.Script {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.synth.Synthesize(ctx, segment, layout.Speech(i), s.voice); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		logger.Debug("segment voiced", logging.Int(logging.FieldSegmentIndex, i))
	}
	logger.Info("speech synthesized", logging.Int("segments", len(t.Script)))
	return nil
}

func clearSpeech(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.MkdirAll(dir, 0o755)
}
