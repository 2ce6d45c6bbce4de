package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelgen/internal/config"
	"reelgen/internal/credentials"
	"reelgen/internal/editing"
	"reelgen/internal/generation"
	"reelgen/internal/logging"
	"reelgen/internal/media"
	"reelgen/internal/narration"
	"reelgen/internal/notifications"
	"reelgen/internal/queue"
	"reelgen/internal/retry"
	"reelgen/internal/services"
	"reelgen/internal/services/llm"
	"reelgen/internal/task"
)

// Open builds a Service from configuration: task store, status index,
// notifier, and every stage with its real collaborators.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	stages, err := NewStageSet(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return OpenWithStages(cfg, stages, logger)
}

// OpenWithStages is Open with caller supplied stage handlers.
func OpenWithStages(cfg *config.Config, stages StageSet, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "open service", "", err)
	}
	tasks, err := task.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return nil, err
	}
	index, err := queue.Open(cfg)
	if err != nil {
		return nil, services.WrapStorage(nil, "open status index", cfg.IndexPath(), err)
	}
	svc := NewService(tasks, stages, logger,
		WithIndex(index),
		WithNotifier(notifications.NewService(cfg)),
	)
	if index.Rebuilt() {
		count, err := svc.Reindex(context.Background())
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		logger.Info("status index rebuilt from task documents", logging.Int("tasks", count))
	}
	return svc, nil
}

// NewStageSet constructs the production handlers for every stage.
func NewStageSet(ctx context.Context, cfg *config.Config, logger *slog.Logger) (StageSet, error) {
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpeg, cfg.Media.FFprobe,
		media.WithSubtitleStyle(cfg.Media.SubtitleFont, cfg.Media.SubtitleFontSize),
		media.WithLogger(logger),
	)

	generators, err := NewGenerators(ctx, cfg, logger)
	if err != nil {
		return StageSet{}, err
	}
	pool := generation.NewPool(credentials.New(generators), cfg.Generation.Workers, retry.Policy{
		MaxAttempts: cfg.Generation.MaxAttempts,
		Delay:       cfg.RetryDelay(),
	}, logger)
	generate, err := generation.NewStage(pool, cfg.Generation.Prompt, logger)
	if err != nil {
		return StageSet{}, err
	}

	writer, err := NewScriptWriter(ctx, cfg)
	if err != nil {
		return StageSet{}, err
	}

	speech := narration.NewGoogleSpeech(cfg.Speech.APIKey, cfg.Speech.BaseURL,
		time.Duration(cfg.Speech.TimeoutSeconds)*time.Second)
	voice := narration.VoiceConfig{
		LanguageCode: cfg.Speech.LanguageCode,
		VoiceName:    cfg.Speech.VoiceName,
		SpeakingRate: cfg.Speech.SpeakingRate,
	}

	return StageSet{
		Generate: generate,
		Cut:      editing.NewCutStage(ffmpeg, logger),
		Merge:    editing.NewMergeStage(ffmpeg, logger),
		Script:   narration.NewScriptStage(writer, logger),
		Speech:   narration.NewSpeechStage(speech, voice, logger),
		Edit:     editing.NewEditStage(ffmpeg, ffmpeg, cfg.PreCutTrim().Seconds(), logger),
		Finish:   NewFinishStage(logger),
	}, nil
}

// NewGenerators builds one generator per configured credential, in order.
// The result seeds the credential ring shared by the generation pool.
func NewGenerators(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]generation.Generator, error) {
	creds := cfg.Credentials()
	generators := make([]generation.Generator, 0, len(creds))
	for i, cred := range creds {
		var (
			gen generation.Generator
			err error
		)
		switch cfg.Generation.Provider {
		case config.ProviderDeevid:
			gen, err = generation.NewDeevidGenerator(cred,
				generation.WithDeevidBaseURL(cfg.Generation.DeevidBaseURL),
				generation.WithDeevidUserAgent(cfg.Generation.UserAgent),
				generation.WithDeevidLogger(logger),
			)
		case config.ProviderVeo:
			gen, err = generation.NewVeoGenerator(ctx, cred, cfg.Generation.Model,
				generation.WithVeoPolling(cfg.PollInterval(), cfg.PollTimeout()),
				generation.WithVeoLogger(logger),
			)
		default:
			err = services.Wrap(services.ErrConfiguration, "", "build generators",
				fmt.Sprintf("unknown provider %q", cfg.Generation.Provider), nil)
		}
		if err != nil {
			return nil, fmt.Errorf("credential %d (%s): %w", i, credentials.Mask(cred), err)
		}
		generators = append(generators, gen)
	}
	return generators, nil
}

// NewScriptWriter builds the configured script provider.
func NewScriptWriter(ctx context.Context, cfg *config.Config) (narration.ScriptWriter, error) {
	prompt, err := narration.NewPrompt(cfg.Script.Prompt)
	if err != nil {
		return nil, err
	}
	switch cfg.Script.Provider {
	case config.ScriptProviderOpenRouter:
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.Script.APIKey,
			BaseURL:        cfg.Script.BaseURL,
			Model:          cfg.Script.Model,
			Title:          "reelgen",
			TimeoutSeconds: cfg.Script.TimeoutSeconds,
		})
		return narration.NewChatScriptWriter(client, prompt), nil
	case config.ScriptProviderGemini:
		writer, err := narration.NewGeminiScriptWriter(ctx, cfg.Script.APIKey, cfg.Script.Model, prompt)
		if err != nil {
			return nil, err
		}
		return writer, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "build script writer",
			fmt.Sprintf("unknown provider %q", cfg.Script.Provider), nil)
	}
}
