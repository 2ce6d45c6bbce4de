package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGeneration()
	c.normalizeScript()
	c.normalizeSpeech()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("REELGEN_DATA_DIR"); ok {
		c.Paths.DataDir = value
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := lookupEnv("REELGEN_API_TOKEN"); ok {
			c.Paths.APIToken = value
		}
	}
	return nil
}

func (c *Config) normalizeGeneration() {
	c.Generation.Provider = strings.ToLower(strings.TrimSpace(c.Generation.Provider))
	if c.Generation.Provider == "" {
		c.Generation.Provider = defaultGenerationProvider
	}
	c.Generation.Model = strings.TrimSpace(c.Generation.Model)
	if c.Generation.Model == "" {
		c.Generation.Model = defaultVeoModel
	}
	c.Generation.APIKeys = cleanList(c.Generation.APIKeys)
	if len(c.Generation.APIKeys) == 0 {
		if value, ok := lookupEnv("GENAI_API_KEY"); ok {
			c.Generation.APIKeys = splitList(value)
		}
	}
	c.Generation.DeevidTokens = cleanList(c.Generation.DeevidTokens)
	if len(c.Generation.DeevidTokens) == 0 {
		if value, ok := lookupEnv("DEEVID_TOKENS"); ok {
			c.Generation.DeevidTokens = splitList(value)
		}
	}
	c.Generation.DeevidBaseURL = strings.TrimRight(strings.TrimSpace(c.Generation.DeevidBaseURL), "/")
	if c.Generation.DeevidBaseURL == "" {
		c.Generation.DeevidBaseURL = defaultDeevidBaseURL
	}
	c.Generation.UserAgent = strings.TrimSpace(c.Generation.UserAgent)
	if c.Generation.UserAgent == "" {
		c.Generation.UserAgent = defaultUserAgent
	}
	if c.Generation.Workers == 0 {
		c.Generation.Workers = defaultGenerationWorkers
	}
	if c.Generation.MaxAttempts == 0 {
		c.Generation.MaxAttempts = defaultGenerationAttempts
	}
	if strings.TrimSpace(c.Generation.Prompt) == "" {
		c.Generation.Prompt = defaultGenerationPrompt
	}
}

func (c *Config) normalizeScript() {
	c.Script.Provider = strings.ToLower(strings.TrimSpace(c.Script.Provider))
	if c.Script.Provider == "" {
		c.Script.Provider = defaultScriptProvider
	}
	c.Script.APIKey = strings.TrimSpace(c.Script.APIKey)
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	c.Script.BaseURL = strings.TrimSpace(c.Script.BaseURL)
	switch c.Script.Provider {
	case ScriptProviderGemini:
		if c.Script.APIKey == "" {
			if value, ok := lookupEnv("GEMINI_API_KEY"); ok {
				c.Script.APIKey = value
			} else if len(c.Generation.APIKeys) > 0 {
				c.Script.APIKey = c.Generation.APIKeys[0]
			}
		}
		if c.Script.Model == "" {
			c.Script.Model = defaultGeminiScriptModel
		}
	case ScriptProviderOpenRouter:
		if c.Script.APIKey == "" {
			if value, ok := lookupEnv("OPENROUTER_API_KEY"); ok {
				c.Script.APIKey = value
			}
		}
		if c.Script.Model == "" {
			c.Script.Model = defaultOpenRouterModel
		}
		if c.Script.BaseURL == "" {
			c.Script.BaseURL = defaultOpenRouterBaseURL
		}
	}
	if c.Script.TimeoutSeconds == 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeoutSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := lookupEnv("GOOGLE_TTS_API_KEY"); ok {
			c.Speech.APIKey = value
		}
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.LanguageCode = strings.TrimSpace(c.Speech.LanguageCode)
	if c.Speech.LanguageCode == "" {
		c.Speech.LanguageCode = defaultSpeechLanguage
	}
	c.Speech.VoiceName = strings.TrimSpace(c.Speech.VoiceName)
	if c.Speech.VoiceName == "" {
		c.Speech.VoiceName = defaultSpeechVoice
	}
	if c.Speech.SpeakingRate == 0 {
		c.Speech.SpeakingRate = defaultSpeakingRate
	}
	if c.Speech.TimeoutSeconds == 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeoutSeconds
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpeg = strings.TrimSpace(c.Media.FFmpeg)
	if c.Media.FFmpeg == "" {
		c.Media.FFmpeg = defaultFFmpegBinary
	}
	c.Media.FFprobe = strings.TrimSpace(c.Media.FFprobe)
	if c.Media.FFprobe == "" {
		c.Media.FFprobe = defaultFFprobeBinary
	}
	c.Media.SubtitleFont = strings.TrimSpace(c.Media.SubtitleFont)
	if c.Media.SubtitleFont == "" {
		c.Media.SubtitleFont = defaultSubtitleFont
	}
	if c.Media.SubtitleFontSize == 0 {
		c.Media.SubtitleFontSize = defaultSubtitleFontSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// splitList parses a comma separated environment value.
func splitList(value string) []string {
	return cleanList(strings.Split(value, ","))
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// lookupEnv returns a trimmed environment value, treating blank values as unset.
func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
