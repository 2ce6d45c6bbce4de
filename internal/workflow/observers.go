package workflow

import (
	"context"
	"strings"

	"reelgen/internal/queue"
	"reelgen/internal/services"
)

// IndexObserver mirrors stage events into the sqlite status index.
type IndexObserver struct {
	index *queue.Store
}

func NewIndexObserver(index *queue.Store) *IndexObserver {
	return &IndexObserver{index: index}
}

func (o *IndexObserver) ObserveStage(ctx context.Context, event StageEvent) error {
	if o == nil || o.index == nil {
		return nil
	}
	return o.index.Upsert(ctx, entryForEvent(event))
}

func entryForEvent(event StageEvent) queue.Entry {
	entry := queue.Entry{
		TaskID:        event.TaskID,
		Name:          event.Name,
		AssetCount:    event.AssetCount,
		LastCompleted: event.LastCompleted(),
		LastAttempted: event.Stage,
		Status:        queue.StatusRunning,
	}
	switch {
	case event.Status == EventFailed:
		entry.Status = queue.StatusFailed
		entry.ErrorKind = services.Classify(event.Err)
		if event.Err != nil {
			entry.ErrorMessage = strings.TrimSpace(event.Err.Error())
		}
	case event.Finished():
		entry.Status = queue.StatusCompleted
	}
	return entry
}
