package config

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. Missing credentials are not a
// validation failure here: commands that never reach a provider (config, doctor,
// status) must still load. Providers fail with services.ErrNoCredentials instead.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"generation.poll_interval_seconds": c.Generation.PollIntervalSeconds,
		"generation.poll_timeout_seconds":  c.Generation.PollTimeoutSeconds,
		"script.timeout_seconds":           c.Script.TimeoutSeconds,
		"speech.timeout_seconds":           c.Speech.TimeoutSeconds,
		"notifications.request_timeout":    c.Notifications.RequestTimeout,
	})
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.Provider {
	case ProviderVeo, ProviderDeevid:
	default:
		return fmt.Errorf("generation.provider must be %q or %q, got %q", ProviderVeo, ProviderDeevid, c.Generation.Provider)
	}
	if c.Generation.Workers < 1 || c.Generation.Workers > maxGenerationWorkers {
		return fmt.Errorf("generation.workers must be between 1 and %d", maxGenerationWorkers)
	}
	if c.Generation.MaxAttempts < 1 {
		return errors.New("generation.max_attempts must be positive")
	}
	if c.Generation.RetryDelaySeconds < 0 {
		return errors.New("generation.retry_delay_seconds must be >= 0")
	}
	if c.Generation.PollTimeoutSeconds < c.Generation.PollIntervalSeconds {
		return errors.New("generation.poll_timeout_seconds must be at least generation.poll_interval_seconds")
	}
	if _, err := template.New("generation").Parse(c.Generation.Prompt); err != nil {
		return fmt.Errorf("generation.prompt: %w", err)
	}
	return nil
}

func (c *Config) validateScript() error {
	switch c.Script.Provider {
	case ScriptProviderGemini, ScriptProviderOpenRouter:
	default:
		return fmt.Errorf("script.provider must be %q or %q, got %q", ScriptProviderGemini, ScriptProviderOpenRouter, c.Script.Provider)
	}
	if strings.TrimSpace(c.Script.Prompt) != "" {
		if _, err := template.New("script").Parse(c.Script.Prompt); err != nil {
			return fmt.Errorf("script.prompt: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if _, err := language.Parse(c.Speech.LanguageCode); err != nil {
		return fmt.Errorf("speech.language_code %q is not a valid BCP 47 tag: %w", c.Speech.LanguageCode, err)
	}
	if c.Speech.SpeakingRate < minSpeakingRate || c.Speech.SpeakingRate > maxSpeakingRate {
		return fmt.Errorf("speech.speaking_rate must be between %.2f and %.1f", minSpeakingRate, maxSpeakingRate)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.PreCutTrimSeconds < 0 {
		return errors.New("media.precut_trim_seconds must be >= 0")
	}
	if c.Media.SubtitleFontSize <= 0 {
		return errors.New("media.subtitle_font_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
