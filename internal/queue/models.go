package queue

import (
	"fmt"
	"strings"
	"time"

	"reelgen/internal/task"
)

// Status summarizes where a task stands.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusFailed,
	StatusCompleted,
}

// AllStatuses returns every known status in display order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user supplied status name.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Entry is one row of the task index.
type Entry struct {
	TaskID        string
	Name          string
	Status        Status
	AssetCount    int
	LastCompleted task.Stage
	LastAttempted task.Stage
	ErrorKind     string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Progress returns the number of completed stages implied by LastCompleted.
func (e *Entry) Progress() int {
	if e == nil || e.LastCompleted == "" {
		return 0
	}
	return e.LastCompleted.Position() + 1
}
