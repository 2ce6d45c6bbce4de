package stage

import (
	"context"

	"reelgen/internal/task"
)

// Health summarizes whether a stage could run right now.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// HealthChecker is implemented by stages that depend on an external service
// or binary.
type HealthChecker interface {
	HealthCheck(context.Context) Health
}

// Readier is implemented by stage collaborators that can report cheaply,
// without a network round trip, whether they are usable.
type Readier interface {
	Ready() error
}

// Healthy constructs a ready Health record.
func Healthy(name task.Stage) Health {
	return Health{Name: string(name), Ready: true}
}

// Unhealthy constructs a failing Health record with detail.
func Unhealthy(name task.Stage, detail string) Health {
	return Health{Name: string(name), Detail: detail}
}

// Check reports the stage unhealthy on the first collaborator that is nil or
// whose Ready fails.
func Check(name task.Stage, collaborators ...any) Health {
	for _, c := range collaborators {
		if c == nil {
			return Unhealthy(name, "not configured")
		}
		if r, ok := c.(Readier); ok {
			if err := r.Ready(); err != nil {
				return Unhealthy(name, err.Error())
			}
		}
	}
	return Healthy(name)
}
