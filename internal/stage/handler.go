package stage

import (
	"context"

	"reelgen/internal/task"
)

// Handler describes the contract the pipeline needs from each stage.
// Execute must overwrite its outputs so a stage can be re-run from scratch
// after a partial failure.
type Handler interface {
	Name() task.Stage
	Execute(context.Context, *task.Task) error
}
