package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelgen/internal/fileutil"
	"reelgen/internal/retry"
	"reelgen/internal/services"
)

// VoiceConfig selects the voice for synthesis.
type VoiceConfig struct {
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
}

// Synthesizer voices text into an MP3 at outputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string, voice VoiceConfig) error
}

const defaultSpeechBaseURL = "https://texttospeech.googleapis.com/v1"

// GoogleSpeech calls the Cloud Text-to-Speech REST API with an API key.
type GoogleSpeech struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
}

// SpeechOption customizes GoogleSpeech.
type SpeechOption func(*GoogleSpeech)

// WithSpeechHTTPClient overrides the HTTP client.
func WithSpeechHTTPClient(client *http.Client) SpeechOption {
	return func(g *GoogleSpeech) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithSpeechRetry overrides the retry policy for transient API failures.
func WithSpeechRetry(policy retry.Policy) SpeechOption {
	return func(g *GoogleSpeech) {
		g.policy = policy
		if g.policy.Retryable == nil {
			g.policy.Retryable = retryableSpeechError
		}
	}
}

// NewGoogleSpeech builds a client. An empty baseURL selects the public endpoint.
func NewGoogleSpeech(apiKey, baseURL string, timeout time.Duration, opts ...SpeechOption) *GoogleSpeech {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultSpeechBaseURL
	}
	g := &GoogleSpeech{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		policy: retry.Policy{
			MaxAttempts: 3,
			Delay:       time.Second,
			MaxDelay:    5 * time.Second,
			Exponential: true,
			Retryable:   retryableSpeechError,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ready fails when no API key is configured.
func (g *GoogleSpeech) Ready() error {
	if g == nil || g.apiKey == "" {
		return errors.New("speech api key not configured")
	}
	return nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate,omitempty"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type speechStatusError struct {
	StatusCode int
	Message    string
}

func (e *speechStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Synthesize requests MP3 audio for text and writes it atomically.
func (g *GoogleSpeech) Synthesize(ctx context.Context, text, outputPath string, voice VoiceConfig) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "", "synthesize speech", "text required", nil)
	}
	if g.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "", "synthesize speech", "speech api key required", nil)
	}
	var payload synthesizeRequest
	payload.Input.Text = text
	payload.Voice.LanguageCode = voice.LanguageCode
	payload.Voice.Name = voice.VoiceName
	payload.AudioConfig.AudioEncoding = "MP3"
	payload.AudioConfig.SpeakingRate = voice.SpeakingRate

	var audio []byte
	res := g.policy.Run(ctx, func(ctx context.Context, _ int) error {
		data, err := g.send(ctx, payload)
		if err != nil {
			return err
		}
		audio = data
		return nil
	})
	if res.Err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrProvider, "", "synthesize speech", fmt.Sprintf("failed after %d attempts", res.Attempts), res.Err)
	}
	if err := fileutil.WriteFileAtomic(outputPath, audio, 0o644); err != nil {
		return services.WrapStorage(nil, "synthesize speech", outputPath, err)
	}
	return nil
}

func (g *GoogleSpeech) send(ctx context.Context, payload synthesizeRequest) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	endpoint := g.baseURL + "/text:synthesize?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", redactKey(err, g.apiKey))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return nil, &speechStatusError{StatusCode: resp.StatusCode, Message: message}
	}
	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("empty audio content")
	}
	return audio, nil
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	escaped := url.QueryEscape(key)
	if key == "" || !strings.Contains(err.Error(), escaped) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), escaped, "REDACTED"))
}

func retryableSpeechError(err error) bool {
	var statusErr *speechStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
