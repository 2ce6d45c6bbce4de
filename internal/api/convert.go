package api

import (
	"slices"

	"reelgen/internal/deps"
	"reelgen/internal/queue"
	"reelgen/internal/stage"
	"reelgen/internal/task"
)

// FromEntry converts an index entry to its API representation.
func FromEntry(entry *queue.Entry) TaskSummary {
	if entry == nil {
		return TaskSummary{}
	}
	dto := TaskSummary{
		ID:           entry.TaskID,
		BusinessName: entry.Name,
		Status:       string(entry.Status),
		AssetCount:   entry.AssetCount,
		Progress: TaskProgress{
			Completed:     entry.Progress(),
			Total:         len(task.Stages),
			LastCompleted: string(entry.LastCompleted),
			LastAttempted: string(entry.LastAttempted),
			NextStage:     nextAfter(entry.LastCompleted),
		},
		ErrorKind:    entry.ErrorKind,
		ErrorMessage: entry.ErrorMessage,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromEntries converts a slice of index entries. The result is never nil so
// an empty list encodes as [].
func FromEntries(entries []*queue.Entry) []TaskSummary {
	out := make([]TaskSummary, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// FromDocument converts a persisted task document.
func FromDocument(doc task.Document) TaskDetail {
	completed := make([]string, 0, len(doc.Completed))
	for _, s := range doc.Completed {
		completed = append(completed, string(s))
	}
	dto := TaskDetail{
		ID: doc.TaskID,
		Options: TaskOptions{
			BusinessName: doc.Options.Name,
			Description:  doc.Options.Description,
			Mode:         doc.Options.EffectiveMode(),
			CutLengthSec: doc.Options.TrimLengthSeconds,
		},
		Extensions: append([]string{}, doc.Extensions...),
		Script:     append([]string{}, doc.Script...),
		Completed:  completed,
		Progress: TaskProgress{
			Completed: len(doc.Completed),
			Total:     len(task.Stages),
		},
		Finished: slices.Contains(doc.Completed, task.StageFinish),
	}
	if n := len(doc.Completed); n > 0 {
		dto.Progress.LastCompleted = string(doc.Completed[n-1])
	}
	for _, s := range task.Stages {
		if !slices.Contains(doc.Completed, s) {
			dto.Progress.NextStage = string(s)
			break
		}
	}
	return dto
}

// ToOptions converts the wire options to task creation options.
func (o TaskOptions) ToOptions() task.Options {
	return task.Options{
		Name:              o.BusinessName,
		Description:       o.Description,
		Mode:              o.Mode,
		TrimLengthSeconds: o.CutLengthSec,
	}
}

// StageHealthSlice converts stage readiness in pipeline order.
func StageHealthSlice(health []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

func nextAfter(last task.Stage) string {
	pos := last.Position()
	if pos+1 >= len(task.Stages) {
		return ""
	}
	return string(task.Stages[pos+1])
}
