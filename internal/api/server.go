package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"reelgen/internal/deps"
	"reelgen/internal/logging"
	"reelgen/internal/queue"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// Version is reported by /health.
const Version = "0.1.0"

// defaultMaxUploadBytes bounds a create request including all images.
const defaultMaxUploadBytes = 64 << 20

// TaskService is the workflow surface the API drives. *workflow.Service
// implements it.
type TaskService interface {
	CreateTask(ctx context.Context, opts task.Options) (string, error)
	AddAsset(ctx context.Context, id, ext string) (string, error)
	Run(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (task.Document, error)
	FinalArtifact(ctx context.Context, id string) (string, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Entry, error)
	Health(ctx context.Context) []stage.Health
}

// ServerConfig wires the HTTP server.
type ServerConfig struct {
	Addr    string
	Token   string
	Service TaskService
	// Dependencies reports external binaries for /health. Optional.
	Dependencies   func() []deps.Status
	Logger         *slog.Logger
	StartTime      time.Time
	MaxUploadBytes int64
}

// Server hosts the API and owns the background pipeline runs it starts.
type Server struct {
	cfg        ServerConfig
	httpServer *http.Server
	logger     *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	runs    sync.WaitGroup
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(cfg.Logger, "api"),
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", logging.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests, cancels background runs, and waits for
// them to persist their checkpoint or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// startRun executes the pipeline for id in the background. The request id is
// carried over so logs of the run correlate with the request that started it.
func (s *Server) startRun(requestCtx context.Context, id string) {
	ctx := services.WithTaskID(s.baseCtx, id)
	if rid, ok := services.RequestIDFromContext(requestCtx); ok {
		ctx = services.WithRequestID(ctx, rid)
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		logger := logging.WithContext(ctx, s.logger)
		if err := s.cfg.Service.Run(ctx, id); err != nil {
			logging.WarnWithContext(logger, "background run failed", "background_run_failed",
				append(logging.Failure(err), logging.String(logging.FieldErrorHint, "POST /api/tasks/{id}/run resumes the task"))...,
			)
			return
		}
		logger.Info("background run finished")
	}()
}
