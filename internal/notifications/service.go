package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelgen/internal/config"
)

const userAgent = "Reelgen-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyTaskStarted(ctx context.Context, name, taskID string) error
	NotifyTaskCompleted(ctx context.Context, name, taskID, finalPath string, duration time.Duration) error
	NotifyTaskFailed(ctx context.Context, name, taskID, stage string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyTaskStarted(ctx context.Context, name, taskID string) error {
	data := payload{
		title:    "Reelgen - Started",
		message:  fmt.Sprintf("🎬 Producing reel: %s (%s)", strings.TrimSpace(name), shortID(taskID)),
		tags:     []string{"reelgen", "task", "started"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, name, taskID, finalPath string, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("✅ Reel ready: %s (%s) in %s", strings.TrimSpace(name), shortID(taskID), duration)
	if finalPath = strings.TrimSpace(finalPath); finalPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, finalPath)
	}
	data := payload{
		title:    "Reelgen - Complete",
		message:  message,
		tags:     []string{"reelgen", "task", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, name, taskID, stage string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(strings.TrimSpace(name))
	builder.WriteString(" (")
	builder.WriteString(shortID(taskID))
	builder.WriteString(") failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" at ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelgen - Error",
		message:  builder.String(),
		tags:     []string{"reelgen", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelgen - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reelgen", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyTaskStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyTaskCompleted(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyTaskFailed(context.Context, string, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
