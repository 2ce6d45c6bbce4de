package testsupport

import (
	"testing"

	"reelgen/internal/config"
	"reelgen/internal/queue"
	"reelgen/internal/task"
)

// MustOpenIndex opens the task index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenTasks opens the task store under the config data directory.
func MustOpenTasks(t testing.TB, cfg *config.Config) *task.Store {
	t.Helper()

	store, err := task.NewStore(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("task.NewStore: %v", err)
	}
	return store
}

// NewTask creates a task with assets input images of a few bytes each.
func NewTask(t testing.TB, store *task.Store, name string, assets int) *task.Task {
	t.Helper()

	tk, err := store.Create(task.Options{Name: name, Mode: task.ModePromo})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	for i := 0; i < assets; i++ {
		path, err := store.AddAsset(tk, ".png")
		if err != nil {
			t.Fatalf("store.AddAsset: %v", err)
		}
		WriteFile(t, path, 16)
	}
	return tk
}
