package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelgen/internal/fileutil"
	"reelgen/internal/logging"
	"reelgen/internal/services"
)

// Deevid defaults match the cadence of the web client.
const (
	DefaultDeevidBaseURL      = "https://api.deevid.ai"
	DefaultDeevidUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
	DefaultDeevidPollInterval = 6 * time.Second
	DefaultDeevidPollTimeout  = 120 * time.Second
	deevidStepPause           = time.Second
	deevidClipSeconds         = 5
	deevidResolution          = "480p"
	deevidUploadWidth         = 1024
	deevidUploadHeight        = 1280
	deevidTaskPageSize        = 20
)

// DeevidGenerator drives the Deevid image-to-video web API with one bearer token.
type DeevidGenerator struct {
	token        string
	userAgent    string
	baseURL      string
	httpClient   *http.Client
	stepPause    time.Duration
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger
}

// DeevidOption customizes a DeevidGenerator.
type DeevidOption func(*DeevidGenerator)

// WithDeevidBaseURL overrides the API origin.
func WithDeevidBaseURL(baseURL string) DeevidOption {
	return func(d *DeevidGenerator) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			d.baseURL = trimmed
		}
	}
}

// WithDeevidUserAgent overrides the browser user agent sent with requests.
func WithDeevidUserAgent(ua string) DeevidOption {
	return func(d *DeevidGenerator) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			d.userAgent = trimmed
		}
	}
}

// WithDeevidHTTPClient overrides the HTTP client.
func WithDeevidHTTPClient(client *http.Client) DeevidOption {
	return func(d *DeevidGenerator) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithDeevidTiming overrides the pause between submission steps and the task
// poll cadence and bound.
func WithDeevidTiming(stepPause, interval, timeout time.Duration) DeevidOption {
	return func(d *DeevidGenerator) {
		if stepPause >= 0 {
			d.stepPause = stepPause
		}
		if interval > 0 {
			d.pollInterval = interval
		}
		if timeout > 0 {
			d.pollTimeout = timeout
		}
	}
}

// WithDeevidLogger attaches a logger.
func WithDeevidLogger(logger *slog.Logger) DeevidOption {
	return func(d *DeevidGenerator) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDeevidGenerator builds a generator for token.
func NewDeevidGenerator(token string, opts ...DeevidOption) (*DeevidGenerator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "deevid client", "token required", nil)
	}
	d := &DeevidGenerator{
		token:        token,
		userAgent:    DefaultDeevidUserAgent,
		baseURL:      DefaultDeevidBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		stepPause:    deevidStepPause,
		pollInterval: DefaultDeevidPollInterval,
		pollTimeout:  DefaultDeevidPollTimeout,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// deevidID accepts identifiers encoded as JSON numbers or strings.
type deevidID string

func (id *deevidID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(trimmed); err == nil {
		*id = deevidID(unquoted)
		return nil
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return fmt.Errorf("invalid id %s", trimmed)
	}
	*id = deevidID(trimmed)
	return nil
}

type deevidEnvelope[T any] struct {
	Error any `json:"error"`
	Data  struct {
		Data T `json:"data"`
	} `json:"data"`
}

type deevidCreated struct {
	ID deevidID `json:"id"`
}

type deevidTaskPage struct {
	Data []deevidTask `json:"data"`
}

type deevidTask struct {
	ID        deevidID `json:"id"`
	TaskID    string   `json:"taskId"`
	TaskState string   `json:"taskState"`
	VideoURL  string   `json:"videoUrl"`
}

// Generate reports the UI events the web client emits, uploads the image,
// submits the job, and polls the task list until the job succeeds.
func (d *DeevidGenerator) Generate(ctx context.Context, prompt, imagePath string) (string, error) {
	logger := logging.WithContext(ctx, d.logger)
	for _, event := range []string{"choose_media", "begin_upload_media"} {
		if err := d.report(ctx, event); err != nil {
			return "", err
		}
		if err := d.pause(ctx); err != nil {
			return "", err
		}
	}
	imageID, err := d.upload(ctx, imagePath)
	if err != nil {
		return "", err
	}
	if err := d.pause(ctx); err != nil {
		return "", err
	}
	jobID, err := d.submit(ctx, prompt, imageID)
	if err != nil {
		return "", err
	}
	logger.Debug("deevid job submitted", logging.String("job_id", string(jobID)))

	var videoURL string
	err = waitFor(ctx, "deevid generate", d.pollInterval, d.pollTimeout, func(ctx context.Context) (bool, error) {
		tasks, err := d.tasks(ctx)
		if err != nil {
			return false, err
		}
		for _, task := range tasks {
			if task.ID != jobID {
				continue
			}
			switch strings.ToUpper(task.TaskState) {
			case "SUCCESS":
				if strings.TrimSpace(task.VideoURL) == "" {
					return false, providerError("deevid generate", "job %s succeeded without a video url", jobID)
				}
				videoURL = task.VideoURL
				return true, nil
			case "FAIL", "FAILED", "ERROR":
				return false, providerError("deevid generate", "job %s ended in state %s", jobID, task.TaskState)
			}
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return videoURL, nil
}

// Download streams the clip to dst.
func (d *DeevidGenerator) Download(ctx context.Context, videoURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return services.Wrap(services.ErrProvider, "", "deevid download", "build request", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrProvider, "", "deevid download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return providerError("deevid download", "status %d", resp.StatusCode)
	}
	n, err := fileutil.WriteReaderAtomic(dst, resp.Body, 0o644)
	if err != nil {
		return services.Wrap(services.ErrProvider, "", "deevid download", fmt.Sprintf("write %s", filepath.Base(dst)), err)
	}
	if n == 0 {
		return providerError("deevid download", "empty video payload")
	}
	return nil
}

func (d *DeevidGenerator) report(ctx context.Context, event string) error {
	payload := map[string]any{
		"eventType": "CLICK",
		"eventName": event,
		"eventData": map[string]string{
			"page_url":  "https://deevid.ai/image-to-video",
			"host":      "deevid.ai",
			"search":    "",
			"type":      "/image-to-video_image1",
			"user_type": "free",
		},
	}
	_, err := d.postJSON(ctx, "deevid report", "/event/report", payload)
	return err
}

func (d *DeevidGenerator) upload(ctx context.Context, imagePath string) (deevidID, error) {
	data, mimeType, err := readImage(imagePath)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		return "", services.Wrap(services.ErrValidation, "", "deevid upload", "unknown image type "+filepath.Ext(imagePath), nil)
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("width", strconv.Itoa(deevidUploadWidth))
	_ = writer.WriteField("height", strconv.Itoa(deevidUploadHeight))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": randomUploadName(imagePath),
	}))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "", "deevid upload", "build form", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", services.Wrap(services.ErrProvider, "", "deevid upload", "build form", err)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrProvider, "", "deevid upload", "build form", err)
	}

	req, err := d.newRequest(ctx, http.MethodPost, "/file-upload/image", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	raw, err := d.do(req, "deevid upload")
	if err != nil {
		return "", err
	}
	var env deevidEnvelope[deevidCreated]
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", services.Wrap(services.ErrProvider, "", "deevid upload", "decode response", err)
	}
	if env.Data.Data.ID == "" {
		return "", providerError("deevid upload", "response missing image id")
	}
	return env.Data.Data.ID, nil
}

func (d *DeevidGenerator) submit(ctx context.Context, prompt string, imageID deevidID) (deevidID, error) {
	payload := map[string]any{
		"userImageId":     json.RawMessage(imageID),
		"prompt":          prompt,
		"lengthOfSecond":  deevidClipSeconds,
		"resolution":      deevidResolution,
		"aiPromptEnhance": true,
		"addEndFrame":     false,
	}
	if _, err := strconv.ParseFloat(string(imageID), 64); err != nil {
		payload["userImageId"] = string(imageID)
	}
	raw, err := d.postJSON(ctx, "deevid submit", "/image-to-video/task/submit", payload)
	if err != nil {
		return "", err
	}
	var env deevidEnvelope[deevidCreated]
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", services.Wrap(services.ErrProvider, "", "deevid submit", "decode response", err)
	}
	if env.Error != nil {
		return "", providerError("deevid submit", "api error: %v", env.Error)
	}
	if env.Data.Data.ID == "" {
		return "", providerError("deevid submit", "response missing task id")
	}
	return env.Data.Data.ID, nil
}

func (d *DeevidGenerator) tasks(ctx context.Context) ([]deevidTask, error) {
	req, err := d.newRequest(ctx, http.MethodGet, fmt.Sprintf("/video/tasks?page=1&size=%d", deevidTaskPageSize), nil)
	if err != nil {
		return nil, err
	}
	raw, err := d.do(req, "deevid tasks")
	if err != nil {
		return nil, err
	}
	var env deevidEnvelope[deevidTaskPage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, services.Wrap(services.ErrProvider, "", "deevid tasks", "decode response", err)
	}
	return env.Data.Data.Data, nil
}

func (d *DeevidGenerator) postJSON(ctx context.Context, op, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "", op, "encode body", err)
	}
	req, err := d.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req, op)
}

func (d *DeevidGenerator) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "", "deevid request", "build request", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Referer", "https://deevid.ai/")
	req.Header.Set("User-Agent", d.userAgent)
	return req, nil
}

func (d *DeevidGenerator) do(req *http.Request, op string) ([]byte, error) {
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "", op, "", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "", op, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providerError(op, "status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}

func (d *DeevidGenerator) pause(ctx context.Context) error {
	if d.stepPause <= 0 {
		return nil
	}
	timer := time.NewTimer(d.stepPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomUploadName(path string) string {
	return strconv.Itoa(111111+rand.IntN(888889)) + strings.ToLower(filepath.Ext(path))
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}
