package narration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/retry"
	"reelgen/internal/services"
)

func TestGoogleSpeechSynthesize(t *testing.T) {
	var got synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text:synthesize", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("ID3-audio")),
		})
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "0.mp3")
	client := NewGoogleSpeech("secret", srv.URL, time.Second)
	err := client.Synthesize(context.Background(), " Hello there. ", out, VoiceConfig{
		LanguageCode: "en-US",
		VoiceName:    "en-US-Test",
		SpeakingRate: 1.25,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(data))
	assert.Equal(t, "Hello there.", got.Input.Text)
	assert.Equal(t, "en-US", got.Voice.LanguageCode)
	assert.Equal(t, "en-US-Test", got.Voice.Name)
	assert.Equal(t, "MP3", got.AudioConfig.AudioEncoding)
	assert.InDelta(t, 1.25, got.AudioConfig.SpeakingRate, 1e-9)
}

func TestGoogleSpeechRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{AudioContent: base64.StdEncoding.EncodeToString([]byte("ok"))})
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "0.mp3")
	client := NewGoogleSpeech("k", srv.URL, time.Second, WithSpeechRetry(retry.Policy{MaxAttempts: 3}))
	require.NoError(t, client.Synthesize(context.Background(), "Hi.", out, VoiceConfig{LanguageCode: "en-US"}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGoogleSpeechDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"voice not found"}}`))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "0.mp3")
	client := NewGoogleSpeech("k", srv.URL, time.Second, WithSpeechRetry(retry.Policy{MaxAttempts: 3}))
	err := client.Synthesize(context.Background(), "Hi.", out, VoiceConfig{LanguageCode: "en-US"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProvider)
	assert.Contains(t, err.Error(), "voice not found")
	assert.Equal(t, int32(1), calls.Load())
	assert.NoFileExists(t, out)
}

func TestGoogleSpeechValidatesInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "0.mp3")

	err := NewGoogleSpeech("k", "", time.Second).Synthesize(context.Background(), "  ", out, VoiceConfig{})
	assert.ErrorIs(t, err, services.ErrValidation)

	err = NewGoogleSpeech("", "", time.Second).Synthesize(context.Background(), "Hi.", out, VoiceConfig{})
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestSpeechStageHealth(t *testing.T) {
	ready := NewSpeechStage(NewGoogleSpeech("secret", "", time.Second), VoiceConfig{}, nil)
	assert.True(t, ready.HealthCheck(context.Background()).Ready)

	missing := NewSpeechStage(NewGoogleSpeech("  ", "", time.Second), VoiceConfig{}, nil)
	h := missing.HealthCheck(context.Background())
	assert.False(t, h.Ready)
	assert.Contains(t, h.Detail, "api key")
}
