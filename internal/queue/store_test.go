package queue_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"reelgen/internal/queue"
	"reelgen/internal/task"
	"reelgen/internal/testsupport"
)

func TestOpenCreatesIndexUnderDataDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if got := cfg.IndexPath(); filepath.Dir(got) != cfg.Paths.DataDir {
		t.Fatalf("expected index under data dir, got %s", got)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.Upsert(ctx, queue.Entry{TaskID: "a", Name: "Shop"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	first.Close()

	second := testsupport.MustOpenIndex(t, cfg)
	entry, err := second.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry == nil || entry.Name != "Shop" || entry.Status != queue.StatusPending {
		t.Fatalf("unexpected entry after reopen: %#v", entry)
	}
}

func TestUpsertReplacesAndKeepsCreatedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	ctx := context.Background()

	if err := store.Upsert(ctx, queue.Entry{TaskID: "t1", Name: "Cafe", AssetCount: 3}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	before, err := store.Get(ctx, "t1")
	if err != nil || before == nil {
		t.Fatalf("Get failed: %v %#v", err, before)
	}

	time.Sleep(5 * time.Millisecond)
	err = store.Upsert(ctx, queue.Entry{
		TaskID:        "t1",
		Name:          "Cafe",
		Status:        queue.StatusFailed,
		AssetCount:    3,
		LastCompleted: task.StageCutVideo,
		LastAttempted: task.StageMergeVideo,
		ErrorKind:     "external_tool",
		ErrorMessage:  "ffmpeg exited 1",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	after, err := store.Get(ctx, "t1")
	if err != nil || after == nil {
		t.Fatalf("Get failed: %v %#v", err, after)
	}
	if after.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", after.Status)
	}
	if after.LastCompleted != task.StageCutVideo || after.LastAttempted != task.StageMergeVideo {
		t.Fatalf("unexpected stages: %#v", after)
	}
	if after.ErrorKind != "external_tool" || after.ErrorMessage != "ffmpeg exited 1" {
		t.Fatalf("unexpected error fields: %#v", after)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
	if after.Progress() != 2 {
		t.Fatalf("expected progress 2, got %d", after.Progress())
	}
}

func TestUpsertClearsErrorOnSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	ctx := context.Background()

	_ = store.Upsert(ctx, queue.Entry{TaskID: "t1", Name: "x", Status: queue.StatusFailed, ErrorMessage: "boom"})
	_ = store.Upsert(ctx, queue.Entry{TaskID: "t1", Name: "x", Status: queue.StatusCompleted, LastCompleted: task.StageFinish})

	entry, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", entry.ErrorMessage)
	}
	if entry.Progress() != len(task.Stages) {
		t.Fatalf("expected full progress, got %d", entry.Progress())
	}
}

func TestUpsertRequiresTaskID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	if err := store.Upsert(context.Background(), queue.Entry{Name: "x"}); err == nil {
		t.Fatal("expected error for empty task id")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)

	entry, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	ctx := context.Background()

	entries := []queue.Entry{
		{TaskID: "a", Name: "A", Status: queue.StatusCompleted},
		{TaskID: "b", Name: "B", Status: queue.StatusFailed},
		{TaskID: "c", Name: "C", Status: queue.StatusRunning},
	}
	for i, entry := range entries {
		entry.CreatedAt = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		if err := store.Upsert(ctx, entry); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].TaskID != "a" || all[2].TaskID != "c" {
		t.Fatalf("unexpected ordering: %#v", all)
	}

	filtered, err := store.List(ctx, queue.StatusFailed, queue.StatusRunning)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(filtered) != 2 || filtered[0].TaskID != "b" || filtered[1].TaskID != "c" {
		t.Fatalf("unexpected filtered entries: %#v", filtered)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusCompleted] != 1 || stats[queue.StatusFailed] != 1 || stats[queue.StatusRunning] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	ctx := context.Background()

	_ = store.Upsert(ctx, queue.Entry{TaskID: "a", Name: "A"})
	removed, err := store.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Remove failed: %v removed=%v", err, removed)
	}
	removed, err = store.Remove(ctx, "a")
	if err != nil || removed {
		t.Fatalf("second Remove: %v removed=%v", err, removed)
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := queue.ParseStatus(" Failed "); err != nil || status != queue.StatusFailed {
		t.Fatalf("ParseStatus failed: %v %s", err, status)
	}
	if _, err := queue.ParseStatus("encoding"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOpenRebuildsStaleSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	store, err := queue.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if store.Rebuilt() {
		t.Fatal("fresh index should not report a rebuild")
	}
	if err := store.Upsert(ctx, queue.Entry{TaskID: "a", Name: "Shop"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	reopened, err := queue.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if !reopened.Rebuilt() {
		t.Fatal("expected stale index to be rebuilt")
	}
	entries, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty rebuilt index, got %d entries", len(entries))
	}
}
