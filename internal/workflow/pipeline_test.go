package workflow_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"reelgen/internal/logging"
	"reelgen/internal/services"
	"reelgen/internal/task"
	"reelgen/internal/testsupport"
	"reelgen/internal/workflow"
)

func newPipelineTask(t *testing.T) (*task.Store, *task.Task) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenTasks(t, cfg)
	return store, testsupport.NewTask(t, store, "Harbor Cafe", 2)
}

func TestPipelineRunsAllStagesInOrder(t *testing.T) {
	store, tk := newPipelineTask(t)
	set, stubs := stubStages()
	var order []task.Stage
	for _, name := range task.Stages {
		stub := stubs[name]
		stub.hook = func(*task.Task) { order = append(order, stub.name) }
	}
	observer := &recordingObserver{}
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)
	p.Observe(observer)

	if err := p.Run(context.Background(), tk); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(order, task.Stages) {
		t.Fatalf("unexpected execution order: %v", order)
	}
	if !slices.Equal(tk.Completed, task.Stages) {
		t.Fatalf("unexpected completed log: %v", tk.Completed)
	}
	loaded, err := store.Load(tk.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(loaded.Completed, task.Stages) {
		t.Fatalf("completed log not persisted: %v", loaded.Completed)
	}
	if got := len(observer.statuses()); got != 2*len(task.Stages) {
		t.Fatalf("expected start+complete per stage, got %v", observer.statuses())
	}
}

func TestPipelineSecondRunDoesNoWork(t *testing.T) {
	store, tk := newPipelineTask(t)
	set, stubs := stubStages()
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)
	ctx := context.Background()

	if err := p.Run(ctx, tk); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	reloaded, err := store.Load(tk.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Run(ctx, reloaded); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for name, stub := range stubs {
		if stub.Calls() != 1 {
			t.Fatalf("stage %s executed %d times", name, stub.Calls())
		}
	}
	if !slices.Equal(reloaded.Completed, task.Stages) {
		t.Fatalf("completed log changed: %v", reloaded.Completed)
	}
}

func TestPipelineFailureKeepsCompletedSet(t *testing.T) {
	for _, failing := range task.Stages {
		t.Run(string(failing), func(t *testing.T) {
			store, tk := newPipelineTask(t)
			set, stubs := stubStages()
			stubs[failing].err = services.Wrap(services.ErrProvider, string(failing), "run", "upstream down", nil)
			p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)

			err := p.Run(context.Background(), tk)
			if !errors.Is(err, services.ErrProvider) {
				t.Fatalf("expected provider error, got %v", err)
			}
			want := task.Stages[:failing.Position()]
			if !slices.Equal(tk.Completed, want) {
				t.Fatalf("in-memory completed = %v, want %v", tk.Completed, want)
			}
			loaded, loadErr := store.Load(tk.ID)
			if loadErr != nil {
				t.Fatalf("Load: %v", loadErr)
			}
			if !slices.Equal(loaded.Completed, want) {
				t.Fatalf("persisted completed = %v, want %v", loaded.Completed, want)
			}
			for _, later := range task.Stages[failing.Position()+1:] {
				if stubs[later].Calls() != 0 {
					t.Fatalf("stage %s ran after failure", later)
				}
			}
		})
	}
}

func TestPipelineResumesAfterLastCompleted(t *testing.T) {
	store, tk := newPipelineTask(t)
	tk.Completed = []task.Stage{task.StageGenerateVideo, task.StageCutVideo}
	if err := store.Save(tk); err != nil {
		t.Fatalf("Save: %v", err)
	}
	set, stubs := stubStages()
	observer := &recordingObserver{}
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)
	p.Observe(observer)

	if err := p.Run(context.Background(), tk); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stubs[task.StageGenerateVideo].Calls() != 0 || stubs[task.StageCutVideo].Calls() != 0 {
		t.Fatal("completed stages must not run again")
	}
	for _, name := range task.Stages[2:] {
		if stubs[name].Calls() != 1 {
			t.Fatalf("stage %s ran %d times", name, stubs[name].Calls())
		}
	}
	statuses := observer.statuses()
	if statuses[0] != "generate_video:skipped" || statuses[1] != "cut_video:skipped" {
		t.Fatalf("expected skips first, got %v", statuses)
	}
}

func TestPipelineMissingHandlerIsConfigurationError(t *testing.T) {
	store, tk := newPipelineTask(t)
	set, _ := stubStages()
	set.Script = nil
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)

	err := p.Run(context.Background(), tk)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	want := []task.Stage{task.StageGenerateVideo, task.StageCutVideo, task.StageMergeVideo}
	if !slices.Equal(tk.Completed, want) {
		t.Fatalf("unexpected completed log: %v", tk.Completed)
	}
}

func TestPipelineObserverErrorsDoNotFailRun(t *testing.T) {
	store, tk := newPipelineTask(t)
	set, _ := stubStages()
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)
	p.Observe(&recordingObserver{err: errors.New("index offline")})

	if err := p.Run(context.Background(), tk); err != nil {
		t.Fatalf("observer failure leaked into run: %v", err)
	}
}

type failingSaver struct {
	failOn task.Stage
}

func (f failingSaver) Save(t *task.Task) error {
	if t.IsComplete(f.failOn) {
		return services.WrapStorage(nil, "save task", t.ID, errors.New("disk full"))
	}
	return nil
}

func TestPipelineSaveFailureDoesNotMarkComplete(t *testing.T) {
	_, tk := newPipelineTask(t)
	set, stubs := stubStages()
	p := workflow.NewPipeline(failingSaver{failOn: task.StageCutVideo}, logging.NewNop(), set.Handlers()...)

	err := p.Run(context.Background(), tk)
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !slices.Equal(tk.Completed, []task.Stage{task.StageGenerateVideo}) {
		t.Fatalf("unexpected completed log: %v", tk.Completed)
	}
	if stubs[task.StageMergeVideo].Calls() != 0 {
		t.Fatal("pipeline continued after save failure")
	}
}

func TestPipelineCancellationIsStageFailure(t *testing.T) {
	store, tk := newPipelineTask(t)
	set, stubs := stubStages()
	ctx, cancel := context.WithCancel(context.Background())
	stubs[task.StageMergeVideo].hook = func(*task.Task) { cancel() }
	stubs[task.StageMergeVideo].err = context.Canceled
	p := workflow.NewPipeline(store, logging.NewNop(), set.Handlers()...)

	err := p.Run(ctx, tk)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	loaded, loadErr := store.Load(tk.ID)
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if !slices.Equal(loaded.Completed, []task.Stage{task.StageGenerateVideo, task.StageCutVideo}) {
		t.Fatalf("unexpected checkpoint: %v", loaded.Completed)
	}
}
