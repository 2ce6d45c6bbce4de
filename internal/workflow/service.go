package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"reelgen/internal/logging"
	"reelgen/internal/notifications"
	"reelgen/internal/queue"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// Service is the task-level surface used by the CLI and the HTTP API.
type Service struct {
	tasks    *task.Store
	index    *queue.Store
	stages   StageSet
	pipeline *Pipeline
	notifier notifications.Service
	logger   *slog.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithIndex mirrors task progress into the sqlite status index.
func WithIndex(index *queue.Store) ServiceOption {
	return func(s *Service) { s.index = index }
}

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) ServiceOption {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithObservers adds pipeline observers.
func WithObservers(observers ...Observer) ServiceOption {
	return func(s *Service) { s.pipeline.Observe(observers...) }
}

// NewService wires the pipeline over tasks and stages.
func NewService(tasks *task.Store, stages StageSet, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		tasks:    tasks,
		stages:   stages,
		pipeline: NewPipeline(tasks, logger, stages.Handlers()...),
		notifier: noopNotifier{},
		logger:   logging.NewComponentLogger(logger, "service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index != nil {
		s.pipeline.Observe(NewIndexObserver(s.index))
	}
	return s
}

// CreateTask validates opts and allocates a new task.
func (s *Service) CreateTask(ctx context.Context, opts task.Options) (string, error) {
	t, err := s.tasks.Create(opts)
	if err != nil {
		return "", err
	}
	s.indexTask(ctx, t, queue.StatusPending)
	logging.WithContext(services.WithTaskID(ctx, t.ID), s.logger).Info("task created",
		logging.String("business_name", t.Options.Name),
		logging.String("mode", t.Options.EffectiveMode()),
	)
	return t.ID, nil
}

// AddAsset registers a new input image and returns the path the caller must
// write it to. Assets can only be added before the first stage completes.
func (s *Service) AddAsset(ctx context.Context, id, ext string) (string, error) {
	t, lock, err := s.lockAndLoad(id, "add asset")
	if err != nil {
		return "", err
	}
	defer unlock(lock)
	if len(t.Completed) > 0 {
		return "", services.Wrap(services.ErrValidation, "", "add asset",
			fmt.Sprintf("task has already completed %s; create a new task", t.Completed[len(t.Completed)-1]), nil)
	}
	path, err := s.tasks.AddAsset(t, ext)
	if err != nil {
		return "", err
	}
	s.indexTask(ctx, t, queue.StatusPending)
	return path, nil
}

// Run executes the pipeline for task id, resuming after its last completed
// stage. Concurrent runs of the same task fail with services.ErrBusy.
func (s *Service) Run(ctx context.Context, id string) error {
	t, lock, err := s.lockAndLoad(id, "run task")
	if err != nil {
		return err
	}
	defer unlock(lock)

	ctx = services.WithTaskID(ctx, t.ID)
	logger := logging.WithContext(ctx, s.logger)
	if t.Finished() {
		logger.Info("task already finished")
		return nil
	}
	if err := s.notifier.NotifyTaskStarted(ctx, t.Options.Name, t.ID); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}

	start := time.Now()
	runErr := s.pipeline.Run(ctx, t)
	if runErr != nil {
		failed, _ := t.NextStage()
		if err := s.notifier.NotifyTaskFailed(context.WithoutCancel(ctx), t.Options.Name, t.ID, string(failed), runErr); err != nil {
			logger.Debug("failure notification failed", logging.Error(err))
		}
		return runErr
	}
	if err := s.notifier.NotifyTaskCompleted(ctx, t.Options.Name, t.ID, t.Layout().Final(), time.Since(start)); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}
	return nil
}

// Status returns the persisted document of task id.
func (s *Service) Status(_ context.Context, id string) (task.Document, error) {
	t, err := s.tasks.Load(id)
	if err != nil {
		return task.Document{}, err
	}
	return t.Document(), nil
}

// FinalArtifact returns the path of the composed reel of a finished task.
func (s *Service) FinalArtifact(_ context.Context, id string) (string, error) {
	t, err := s.tasks.Load(id)
	if err != nil {
		return "", err
	}
	if !t.Finished() {
		return "", services.WrapStorage(services.ErrNotFound, "final artifact", "task "+id+" has not finished", nil)
	}
	final := t.Layout().Final()
	if _, err := os.Stat(final); err != nil {
		return "", services.WrapStorage(services.ErrNotFound, "final artifact", final, err)
	}
	return final, nil
}

// List returns the status index, oldest first. Without an index the entries
// are derived from the task documents.
func (s *Service) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Entry, error) {
	if s.index != nil {
		entries, err := s.index.List(ctx, statuses...)
		if err != nil {
			return nil, services.WrapStorage(nil, "list tasks", "index", err)
		}
		return entries, nil
	}
	entries, err := s.scanEntries()
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return entries, nil
	}
	filtered := entries[:0]
	for _, entry := range entries {
		for _, status := range statuses {
			if entry.Status == status {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered, nil
}

// Reindex rebuilds the status index from the task documents. Failure details
// of earlier runs are not recoverable from the documents and are dropped.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, services.Wrap(services.ErrConfiguration, "", "reindex", "no status index configured", nil)
	}
	entries, err := s.scanEntries()
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		known[entry.TaskID] = struct{}{}
		if err := s.index.Upsert(ctx, *entry); err != nil {
			return 0, services.WrapStorage(nil, "reindex", entry.TaskID, err)
		}
	}
	indexed, err := s.index.List(ctx)
	if err != nil {
		return 0, services.WrapStorage(nil, "reindex", "index", err)
	}
	for _, entry := range indexed {
		if _, ok := known[entry.TaskID]; ok {
			continue
		}
		if _, err := s.index.Remove(ctx, entry.TaskID); err != nil {
			return 0, services.WrapStorage(nil, "reindex", entry.TaskID, err)
		}
		s.logger.Info("dropped index entry without task document", logging.String(logging.FieldTaskID, entry.TaskID))
	}
	return len(entries), nil
}

// Stats counts tasks per status.
func (s *Service) Stats(ctx context.Context) (map[queue.Status]int, error) {
	if s.index != nil {
		stats, err := s.index.Stats(ctx)
		if err != nil {
			return nil, services.WrapStorage(nil, "task stats", "index", err)
		}
		return stats, nil
	}
	entries, err := s.scanEntries()
	if err != nil {
		return nil, err
	}
	stats := make(map[queue.Status]int)
	for _, entry := range entries {
		stats[entry.Status]++
	}
	return stats, nil
}

// Health reports the readiness of stages backed by external services.
func (s *Service) Health(ctx context.Context) []stage.Health {
	return s.stages.Health(ctx)
}

// Close releases the status index.
func (s *Service) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

func (s *Service) scanEntries() ([]*queue.Entry, error) {
	ids, err := s.tasks.List()
	if err != nil {
		return nil, err
	}
	entries := make([]*queue.Entry, 0, len(ids))
	for _, id := range ids {
		t, err := s.tasks.Load(id)
		if err != nil {
			if errors.Is(err, services.ErrCorrupt) {
				s.logger.Warn("skipping unreadable task", logging.String(logging.FieldTaskID, id), logging.Error(err))
				continue
			}
			return nil, err
		}
		entry := documentEntry(t)
		entries = append(entries, &entry)
	}
	return entries, nil
}

func documentEntry(t *task.Task) queue.Entry {
	entry := queue.Entry{
		TaskID:     t.ID,
		Name:       t.Options.Name,
		AssetCount: t.AssetCount(),
		Status:     queue.StatusPending,
	}
	if last, ok := t.LastCompleted(); ok {
		entry.LastCompleted = last
		entry.LastAttempted = last
		entry.Status = queue.StatusRunning
	}
	if t.Finished() {
		entry.Status = queue.StatusCompleted
	}
	return entry
}

func (s *Service) indexTask(ctx context.Context, t *task.Task, status queue.Status) {
	if s.index == nil {
		return
	}
	entry := documentEntry(t)
	entry.Status = status
	if err := s.index.Upsert(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "status index update failed", "index_update_failed",
			logging.String(logging.FieldTaskID, t.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run reelgen task reindex"),
			logging.String(logging.FieldImpact, "task list may be stale"),
		)
	}
}

// lockAndLoad validates id, takes the run lock, and loads a fresh snapshot.
func (s *Service) lockAndLoad(id, op string) (*task.Task, *flock.Flock, error) {
	if !s.tasks.Exists(id) {
		_, err := s.tasks.Load(id)
		if err == nil {
			err = services.WrapStorage(services.ErrNotFound, op, id, nil)
		}
		return nil, nil, err
	}
	lock, err := lockTask(task.Layout{Dir: s.tasks.Dir(id)}.Lock(), id, op)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.tasks.Load(id)
	if err != nil {
		unlock(lock)
		return nil, nil, err
	}
	return t, lock, nil
}

func unlock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

type noopNotifier struct{}

func (noopNotifier) NotifyTaskStarted(context.Context, string, string) error { return nil }
func (noopNotifier) NotifyTaskCompleted(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (noopNotifier) NotifyTaskFailed(context.Context, string, string, string, error) error {
	return nil
}
func (noopNotifier) TestNotification(context.Context) error { return nil }
