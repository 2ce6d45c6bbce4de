package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelgen/internal/config"
	"reelgen/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTaskFailed(context.Background(), "Cafe", "abc", "cut_video", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newService(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "completed",
			send: func(s notifications.Service) error {
				return s.NotifyTaskCompleted(context.Background(), "Harbor Cafe", "0123456789abcdef", "/data/final.mp4", 95*time.Second)
			},
			expectTitle:    "Reelgen - Complete",
			expectMessage:  "✅ Reel ready: Harbor Cafe (01234567) in 1m35s\nFile: /data/final.mp4",
			expectTags:     "reelgen,task,completed",
			expectPriority: "high",
		},
		{
			name: "failed",
			send: func(s notifications.Service) error {
				return s.NotifyTaskFailed(context.Background(), "Harbor Cafe", "abc", "merge_video", errors.New("ffmpeg exited 1"))
			},
			expectTitle:    "Reelgen - Error",
			expectMessage:  "❌ Harbor Cafe (abc) failed at merge_video: ffmpeg exited 1",
			expectTags:     "reelgen,error,alert",
			expectPriority: "high",
		},
		{
			name: "started",
			send: func(s notifications.Service) error {
				return s.NotifyTaskStarted(context.Background(), "Harbor Cafe", "abc")
			},
			expectTitle:    "Reelgen - Started",
			expectMessage:  "🎬 Producing reel: Harbor Cafe (abc)",
			expectTags:     "reelgen,task,started",
			expectPriority: "low",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := newServer(t, http.StatusOK)
			if err := tc.send(newService(srv.URL)); err != nil {
				t.Fatalf("send: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	err := newService(srv.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
