package workflow_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"reelgen/internal/credentials"
	"reelgen/internal/editing"
	"reelgen/internal/generation"
	"reelgen/internal/logging"
	"reelgen/internal/narration"
	"reelgen/internal/retry"
	"reelgen/internal/task"
	"reelgen/internal/testsupport"
	"reelgen/internal/workflow"
)

type stubStage struct {
	name  task.Stage
	err   error
	hook  func(*task.Task)
	mu    sync.Mutex
	calls int
}

func newStubStage(name task.Stage) *stubStage {
	return &stubStage{name: name}
}

func (s *stubStage) Name() task.Stage { return s.name }

func (s *stubStage) Execute(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.hook != nil {
		s.hook(t)
	}
	return s.err
}

func (s *stubStage) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func stubStages() (workflow.StageSet, map[task.Stage]*stubStage) {
	stubs := make(map[task.Stage]*stubStage, len(task.Stages))
	for _, name := range task.Stages {
		stubs[name] = newStubStage(name)
	}
	set := workflow.StageSet{
		Generate: stubs[task.StageGenerateVideo],
		Cut:      stubs[task.StageCutVideo],
		Merge:    stubs[task.StageMergeVideo],
		Script:   stubs[task.StageGenerateScript],
		Speech:   stubs[task.StageGenerateTTS],
		Edit:     stubs[task.StageEditVideo],
		Finish:   stubs[task.StageFinish],
	}
	return set, stubs
}

type recordingObserver struct {
	mu     sync.Mutex
	events []workflow.StageEvent
	err    error
}

func (r *recordingObserver) ObserveStage(_ context.Context, event workflow.StageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingObserver) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, string(e.Stage)+":"+string(e.Status))
	}
	return out
}

// fakeGenerator "renders" a clip whose content names the source image.
type fakeGenerator struct {
	mu       sync.Mutex
	prompts  []string
	failures int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, imagePath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return "", errors.New("upstream overloaded")
	}
	f.prompts = append(f.prompts, prompt)
	return "fake://" + imagePath, nil
}

func (f *fakeGenerator) Download(_ context.Context, videoURL, dst string) error {
	return os.WriteFile(dst, []byte("clip:"+strings.TrimPrefix(videoURL, "fake://")), 0o644)
}

type fakeWriter struct{ script string }

func (f fakeWriter) Generate(context.Context, string, string, string) (string, error) {
	return f.script, nil
}

type fakeSynth struct{}

func (fakeSynth) Synthesize(_ context.Context, text, outputPath string, _ narration.VoiceConfig) error {
	return os.WriteFile(outputPath, []byte(text), 0o644)
}

// realStages wires the production stage handlers around fakes for every
// external collaborator.
func realStages(t *testing.T, gen *fakeGenerator, fake *testsupport.FakeMedia) workflow.StageSet {
	t.Helper()
	logger := logging.NewNop()
	ring := credentials.New([]generation.Generator{gen})
	pool := generation.NewPool(ring, 2, retry.Policy{MaxAttempts: 3}, logger)
	generate, err := generation.NewStage(pool, "{{.Name}} clip {{.Index}}", logger)
	if err != nil {
		t.Fatalf("generation.NewStage: %v", err)
	}
	return workflow.StageSet{
		Generate: generate,
		Cut:      editing.NewCutStage(fake, logger),
		Merge:    editing.NewMergeStage(fake, logger),
		Script:   narration.NewScriptStage(fakeWriter{script: "Welcome to the harbor.\nFresh coffee daily."}, logger),
		Speech:   narration.NewSpeechStage(fakeSynth{}, narration.VoiceConfig{LanguageCode: "en-US"}, logger),
		Edit:     editing.NewEditStage(fake, fake, 0.5, logger),
		Finish:   workflow.NewFinishStage(logger),
	}
}
