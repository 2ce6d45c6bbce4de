package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Generation contains configuration for remote clip synthesis.
type Generation struct {
	Provider            string   `toml:"provider"`
	Model               string   `toml:"model"`
	APIKeys             []string `toml:"api_keys"`
	DeevidTokens        []string `toml:"deevid_tokens"`
	DeevidBaseURL       string   `toml:"deevid_base_url"`
	UserAgent           string   `toml:"user_agent"`
	Workers             int      `toml:"workers"`
	MaxAttempts         int      `toml:"max_attempts"`
	RetryDelaySeconds   int      `toml:"retry_delay_seconds"`
	PollIntervalSeconds int      `toml:"poll_interval_seconds"`
	PollTimeoutSeconds  int      `toml:"poll_timeout_seconds"`
	Prompt              string   `toml:"prompt"`
}

// Script contains configuration for narration script drafting.
type Script struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	Prompt         string `toml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains configuration for text-to-speech synthesis.
type Speech struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	LanguageCode   string  `toml:"language_code"`
	VoiceName      string  `toml:"voice_name"`
	SpeakingRate   float64 `toml:"speaking_rate"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Media contains configuration for the ffmpeg toolchain and composition.
type Media struct {
	FFmpeg            string  `toml:"ffmpeg"`
	FFprobe           string  `toml:"ffprobe"`
	PreCutTrimSeconds float64 `toml:"precut_trim_seconds"`
	SubtitleFont      string  `toml:"subtitle_font"`
	SubtitleFontSize  int     `toml:"subtitle_font_size"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelgen.
//
// Configuration sections by subsystem:
//   - Paths: task storage, logs, and API bind address
//   - Generation: clip provider, credentials, pool size, retry and polling
//   - Script: narration script provider and prompt
//   - Speech: text-to-speech voice settings
//   - Media: ffmpeg binaries, leading-silence trim, subtitle styling
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Generation    Generation    `toml:"generation"`
	Script        Script        `toml:"script"`
	Speech        Speech        `toml:"speech"`
	Media         Media         `toml:"media"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelgen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IndexPath returns the location of the sqlite task status index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.DataDir, "tasks.db")
}

// PollInterval returns the async job poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Generation.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the bound after which an async job is abandoned.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Generation.PollTimeoutSeconds) * time.Second
}

// RetryDelay returns the wait between generation attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Generation.RetryDelaySeconds) * time.Second
}

// PreCutTrim returns the leading silence trimmed from every speech clip.
func (c *Config) PreCutTrim() time.Duration {
	return time.Duration(c.Media.PreCutTrimSeconds * float64(time.Second))
}

// Credentials returns the credential list for the configured generation provider.
func (c *Config) Credentials() []string {
	if c.Generation.Provider == ProviderDeevid {
		return append([]string(nil), c.Generation.DeevidTokens...)
	}
	return append([]string(nil), c.Generation.APIKeys...)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML with secrets redacted.
func (c *Config) Encode() (string, error) {
	redacted := *c
	redacted.Paths.APIToken = redact(c.Paths.APIToken)
	redacted.Generation.APIKeys = redactAll(c.Generation.APIKeys)
	redacted.Generation.DeevidTokens = redactAll(c.Generation.DeevidTokens)
	redacted.Script.APIKey = redact(c.Script.APIKey)
	redacted.Speech.APIKey = redact(c.Speech.APIKey)
	data, err := toml.Marshal(redacted)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}

func redactAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = redact(v)
	}
	return out
}
