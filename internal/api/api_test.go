package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"reelgen/internal/api"
	"reelgen/internal/deps"
	"reelgen/internal/logging"
	"reelgen/internal/task"
	"reelgen/internal/testsupport"
	"reelgen/internal/workflow"
)

type stubStage struct {
	name task.Stage
	run  func(ctx context.Context, t *task.Task) error
}

func (s stubStage) Name() task.Stage { return s.name }

func (s stubStage) Execute(ctx context.Context, t *task.Task) error {
	if s.run != nil {
		return s.run(ctx, t)
	}
	return nil
}

type harness struct {
	server  *api.Server
	handler http.Handler
	tasks   *task.Store
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

type harnessOption func(*api.ServerConfig)

func withToken(token string) harnessOption {
	return func(cfg *api.ServerConfig) { cfg.Token = token }
}

// newHarness serves a real workflow.Service whose stages do no media work.
// The finish stage writes final.mp4. When gated, generate_video blocks until
// release is called.
func newHarness(t *testing.T, gated bool, opts ...harnessOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	tasks := testsupport.MustOpenTasks(t, cfg)
	h := &harness{tasks: tasks, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	if !gated {
		close(h.gate)
	}

	stages := workflow.StageSet{
		Generate: stubStage{name: task.StageGenerateVideo, run: func(ctx context.Context, _ *task.Task) error {
			select {
			case h.entered <- struct{}{}:
			default:
			}
			select {
			case <-h.gate:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
		Cut:    stubStage{name: task.StageCutVideo},
		Merge:  stubStage{name: task.StageMergeVideo},
		Script: stubStage{name: task.StageGenerateScript},
		Speech: stubStage{name: task.StageGenerateTTS},
		Edit:   stubStage{name: task.StageEditVideo},
		Finish: stubStage{name: task.StageFinish, run: func(_ context.Context, tk *task.Task) error {
			return os.WriteFile(tk.Layout().Final(), []byte("reel"), 0o644)
		}},
	}
	svc := workflow.NewService(tasks, stages, logging.NewNop(),
		workflow.WithIndex(testsupport.MustOpenIndex(t, cfg)))

	serverCfg := api.ServerConfig{
		Service: svc,
		Logger:  logging.NewNop(),
		Dependencies: func() []deps.Status {
			return []deps.Status{{Name: "FFmpeg", Command: "ffmpeg", Available: true}}
		},
	}
	for _, opt := range opts {
		opt(&serverCfg)
	}
	h.server = api.NewServer(serverCfg)
	h.handler = h.server.Handler()
	t.Cleanup(func() {
		h.release()
		_ = h.server.Shutdown(context.Background())
	})
	return h
}

func (h *harness) release() {
	h.once.Do(func() {
		select {
		case <-h.gate:
		default:
			close(h.gate)
		}
	})
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

type upload struct {
	name    string
	content string
}

func createRequest(t *testing.T, options string, files []upload, query string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if options != "" {
		if err := mw.WriteField("options", options); err != nil {
			t.Fatalf("write options: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("images[]", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/tasks"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

func (h *harness) create(t *testing.T, query string) api.CreateTaskResponse {
	t.Helper()
	rr := h.do(t, createRequest(t,
		`{"business_name":"Harbor Cafe","description":"Espresso by the water","cut_length_sec":3}`,
		[]upload{{"front.JPG", "jpeg-bytes"}, {"inside.png", "png-bytes"}},
		query,
	))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	return decode[api.CreateTaskResponse](t, rr)
}
