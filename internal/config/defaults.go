package config

// Generation providers.
const (
	ProviderVeo    = "veo"
	ProviderDeevid = "deevid"
)

// Script providers.
const (
	ScriptProviderGemini     = "gemini"
	ScriptProviderOpenRouter = "openrouter"
)

const (
	defaultConfigPath             = "~/.config/reelgen/config.toml"
	defaultDataDir                = "~/.local/share/reelgen/tasks"
	defaultLogDir                 = "~/.local/share/reelgen/logs"
	defaultAPIBind                = "127.0.0.1:7490"
	defaultGenerationProvider     = ProviderVeo
	defaultVeoModel               = "veo-2.0-generate-001"
	defaultDeevidBaseURL          = "https://api.deevid.ai"
	defaultUserAgent              = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	defaultGenerationWorkers      = 2
	defaultGenerationAttempts     = 3
	defaultRetryDelaySeconds      = 0
	defaultPollIntervalSeconds    = 10
	defaultPollTimeoutSeconds     = 600
	defaultGenerationPrompt       = "Bring this photo of {{.Name}} to life with slow, cinematic camera motion. {{.Description}}"
	defaultScriptProvider         = ScriptProviderGemini
	defaultGeminiScriptModel      = "gemini-2.0-flash"
	defaultOpenRouterModel        = "google/gemini-2.0-flash-001"
	defaultOpenRouterBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultScriptTimeoutSeconds   = 60
	defaultSpeechBaseURL          = "https://texttospeech.googleapis.com/v1"
	defaultSpeechLanguage         = "en-US"
	defaultSpeechVoice            = "en-US-Chirp3-HD-Achernar"
	defaultSpeakingRate           = 1.0
	defaultSpeechTimeoutSeconds   = 30
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultPreCutTrimSeconds      = 0.5
	defaultSubtitleFont           = "Arial"
	defaultSubtitleFontSize       = 18
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	maxGenerationWorkers          = 8
	minSpeakingRate               = 0.25
	maxSpeakingRate               = 4.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Generation: Generation{
			Provider:            defaultGenerationProvider,
			Model:               defaultVeoModel,
			DeevidBaseURL:       defaultDeevidBaseURL,
			UserAgent:           defaultUserAgent,
			Workers:             defaultGenerationWorkers,
			MaxAttempts:         defaultGenerationAttempts,
			RetryDelaySeconds:   defaultRetryDelaySeconds,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollTimeoutSeconds:  defaultPollTimeoutSeconds,
			Prompt:              defaultGenerationPrompt,
		},
		Script: Script{
			Provider:       defaultScriptProvider,
			TimeoutSeconds: defaultScriptTimeoutSeconds,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			LanguageCode:   defaultSpeechLanguage,
			VoiceName:      defaultSpeechVoice,
			SpeakingRate:   defaultSpeakingRate,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Media: Media{
			FFmpeg:            defaultFFmpegBinary,
			FFprobe:           defaultFFprobeBinary,
			PreCutTrimSeconds: defaultPreCutTrimSeconds,
			SubtitleFont:      defaultSubtitleFont,
			SubtitleFontSize:  defaultSubtitleFontSize,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
