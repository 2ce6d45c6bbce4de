package workflow

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"reelgen/internal/logging"
	"reelgen/internal/services"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// Saver persists a task snapshot. *task.Store implements it.
type Saver interface {
	Save(t *task.Task) error
}

// Pipeline runs the stage sequence for one task at a time. Callers must not
// run the same task concurrently; Service enforces this with a lock file.
type Pipeline struct {
	saver     Saver
	handlers  map[task.Stage]stage.Handler
	observers []Observer
	logger    *slog.Logger
}

// NewPipeline registers handlers by their stage name. A later handler for
// the same stage replaces an earlier one.
func NewPipeline(saver Saver, logger *slog.Logger, handlers ...stage.Handler) *Pipeline {
	p := &Pipeline{
		saver:    saver,
		handlers: make(map[task.Stage]stage.Handler, len(handlers)),
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
	for _, h := range handlers {
		if h != nil {
			p.handlers[h.Name()] = h
		}
	}
	return p
}

// Observe adds observers notified after every stage attempt or skip.
func (p *Pipeline) Observe(observers ...Observer) {
	for _, o := range observers {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// Run executes every incomplete stage of t in order and stops at the first
// failure. The task document is saved after every attempt; a failed stage
// leaves the completed log exactly as it was.
func (p *Pipeline) Run(ctx context.Context, t *task.Task) error {
	ctx = services.WithTaskID(ctx, t.ID)
	logger := logging.WithContext(ctx, p.logger)
	start := time.Now()
	ran := 0

	for _, name := range task.Stages {
		if t.IsComplete(name) {
			logger.Debug("stage already complete",
				logging.String(logging.FieldStage, string(name)),
				logging.String(logging.FieldEventType, logging.EventStageSkip),
			)
			p.notify(ctx, newEvent(t, name, EventSkipped))
			continue
		}
		handler, ok := p.handlers[name]
		if !ok {
			err := services.Wrap(services.ErrConfiguration, string(name), "run stage", "no handler registered", nil)
			p.fail(ctx, t, name, err, 0)
			return err
		}
		if err := p.runStage(ctx, t, handler); err != nil {
			return err
		}
		ran++
	}

	logging.InfoEvent(logger, "task complete", logging.EventTaskComplete,
		logging.Int("stages_run", ran),
		logging.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, t *task.Task, handler stage.Handler) error {
	name := handler.Name()
	stageCtx := services.WithStage(ctx, string(name))
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	logger := logging.WithContext(stageCtx, p.logger)

	logging.InfoEvent(logger, "stage started", logging.EventStageStart,
		logging.Int("assets", t.AssetCount()),
		logging.Int("completed", len(t.Completed)),
	)
	p.notify(stageCtx, newEvent(t, name, EventStarted))

	started := time.Now()
	before := slices.Clone(t.Completed)
	execErr := handler.Execute(stageCtx, t)
	if execErr != nil {
		t.Completed = before
		p.fail(stageCtx, t, name, execErr, time.Since(started))
		return execErr
	}

	t.MarkComplete(name)
	if err := p.saver.Save(t); err != nil {
		t.Completed = before
		p.fail(stageCtx, t, name, err, time.Since(started))
		return err
	}

	event := newEvent(t, name, EventCompleted)
	event.Duration = time.Since(started)
	logging.InfoEvent(logger, "stage completed", logging.EventStageComplete,
		logging.Duration("stage_duration", event.Duration),
	)
	p.notify(stageCtx, event)
	return nil
}

// fail persists the unchanged checkpoint, logs the failure, and notifies
// observers. A save error is logged; the stage error is what the caller sees.
func (p *Pipeline) fail(ctx context.Context, t *task.Task, name task.Stage, stageErr error, elapsed time.Duration) {
	logger := logging.WithContext(services.WithStage(ctx, string(name)), p.logger)
	if err := p.saver.Save(t); err != nil {
		logging.ErrorWithContext(logger, "failed to persist checkpoint", logging.EventStageFailure,
			append(logging.Failure(err), logging.String(logging.FieldErrorHint, "check free space and permissions of the data directory"))...,
		)
	}
	attrs := append(logging.Failure(stageErr),
		logging.Duration("stage_duration", elapsed),
		logging.String(logging.FieldErrorHint, failureHint(stageErr)),
	)
	logging.ErrorWithContext(logger, "stage failed", logging.EventStageFailure, attrs...)

	event := newEvent(t, name, EventFailed)
	event.Err = stageErr
	event.Duration = elapsed
	p.notify(ctx, event)
}

func (p *Pipeline) notify(ctx context.Context, event StageEvent) {
	for _, o := range p.observers {
		if err := o.ObserveStage(ctx, event); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "stage observer failed", "observer_failed",
				logging.Error(err),
				logging.String("event_status", string(event.Status)),
				logging.String(logging.FieldErrorHint, "the task itself is unaffected"),
			)
		}
	}
}

func failureHint(err error) string {
	switch services.Classify(err) {
	case "validation":
		return "fix the task inputs and run it again"
	case "configuration":
		return "check the configuration file and credentials"
	case "timeout", "provider", "partial_failure":
		return "upstream service failed; run the task again to resume"
	case "external_tool":
		return "check the ffmpeg installation with reelgen doctor"
	case "storage", "corrupt":
		return "check the task directory"
	default:
		return "run the task again to resume"
	}
}
