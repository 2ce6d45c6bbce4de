package workflow

import (
	"context"
	"slices"
	"time"

	"reelgen/internal/task"
)

// EventStatus is the outcome reported in a StageEvent.
type EventStatus string

const (
	EventStarted   EventStatus = "started"
	EventSkipped   EventStatus = "skipped"
	EventCompleted EventStatus = "completed"
	EventFailed    EventStatus = "failed"
)

// StageEvent describes one stage attempt or skip.
type StageEvent struct {
	TaskID     string
	Name       string
	AssetCount int
	Stage      task.Stage
	Status     EventStatus
	// Completed is a copy of the task's completed log after the attempt.
	Completed []task.Stage
	Err       error
	Duration  time.Duration
	At        time.Time
}

// LastCompleted returns the newest completed stage, if any.
func (e StageEvent) LastCompleted() task.Stage {
	if len(e.Completed) == 0 {
		return ""
	}
	return e.Completed[len(e.Completed)-1]
}

// Finished reports whether the terminal stage is in the completed log.
func (e StageEvent) Finished() bool {
	return slices.Contains(e.Completed, task.StageFinish)
}

// Observer receives stage events. Errors are logged by the pipeline and never
// change the outcome of a run.
type Observer interface {
	ObserveStage(ctx context.Context, event StageEvent) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event StageEvent) error

func (f ObserverFunc) ObserveStage(ctx context.Context, event StageEvent) error {
	return f(ctx, event)
}

func newEvent(t *task.Task, stage task.Stage, status EventStatus) StageEvent {
	return StageEvent{
		TaskID:     t.ID,
		Name:       t.Options.Name,
		AssetCount: t.AssetCount(),
		Stage:      stage,
		Status:     status,
		Completed:  slices.Clone(t.Completed),
		At:         time.Now().UTC(),
	}
}
