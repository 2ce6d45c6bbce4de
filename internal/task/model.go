package task

import (
	"fmt"
	"slices"
)

// Stage names one independently checkpointed unit of the pipeline.
type Stage string

const (
	StageGenerateVideo  Stage = "generate_video"
	StageCutVideo       Stage = "cut_video"
	StageMergeVideo     Stage = "merge_video"
	StageGenerateScript Stage = "generate_script"
	StageGenerateTTS    Stage = "generate_tts"
	StageEditVideo      Stage = "edit_video"
	StageFinish         Stage = "finish"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageGenerateVideo,
	StageCutVideo,
	StageMergeVideo,
	StageGenerateScript,
	StageGenerateTTS,
	StageEditVideo,
	StageFinish,
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return slices.Contains(Stages, s)
}

// Position returns the 0-based pipeline position of s, or -1 when unknown.
func (s Stage) Position() int {
	return slices.Index(Stages, s)
}

func (s Stage) String() string { return string(s) }

// ParseStage converts a persisted stage name.
func ParseStage(value string) (Stage, error) {
	stage := Stage(value)
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q", value)
	}
	return stage, nil
}

// Task is the in-memory snapshot of one reel being produced.
//
// The asset index space is [0, len(Extensions)). Completed holds each stage at
// most once, in the order the stages finished, and only after the stage
// returned without error.
type Task struct {
	ID         string
	Options    Options
	Extensions []string
	Script     []string
	Completed  []Stage
	// Root is the task's own work directory.
	Root string
}

// AssetCount returns the number of input assets.
func (t *Task) AssetCount() int { return len(t.Extensions) }

// Layout returns the artifact paths for this task.
func (t *Task) Layout() Layout { return Layout{Dir: t.Root} }

// InputPath returns the stored input asset for index.
func (t *Task) InputPath(index int) string {
	return t.Layout().Input(index, t.Extensions[index])
}

// IsComplete reports whether stage is in the completed log.
func (t *Task) IsComplete(stage Stage) bool {
	return slices.Contains(t.Completed, stage)
}

// MarkComplete appends stage to the completed log. Marking an already
// completed stage is a no-op.
func (t *Task) MarkComplete(stage Stage) {
	if t.IsComplete(stage) {
		return
	}
	t.Completed = append(t.Completed, stage)
}

// LastCompleted returns the most recently completed stage, if any.
func (t *Task) LastCompleted() (Stage, bool) {
	if len(t.Completed) == 0 {
		return "", false
	}
	return t.Completed[len(t.Completed)-1], true
}

// NextStage returns the first stage, in pipeline order, that has not completed.
func (t *Task) NextStage() (Stage, bool) {
	for _, stage := range Stages {
		if !t.IsComplete(stage) {
			return stage, true
		}
	}
	return "", false
}

// Finished reports whether the terminal stage has completed.
func (t *Task) Finished() bool {
	return t.IsComplete(StageFinish)
}

// Document returns the persisted representation of the task.
func (t *Task) Document() Document {
	return Document{
		TaskID:     t.ID,
		Extensions: nonNil(t.Extensions),
		Script:     nonNil(t.Script),
		Completed:  nonNil(t.Completed),
		Options:    t.Options,
	}
}

func nonNil[T any](values []T) []T {
	return append(make([]T, 0, len(values)), values...)
}
