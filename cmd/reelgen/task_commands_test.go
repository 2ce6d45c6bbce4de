package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelgen/internal/task"
)

func createTask(t *testing.T, env *cliTestEnv, images ...string) string {
	t.Helper()
	args := []string{"task", "create", "--name", "Harbor Cafe", "--mode", "story"}
	for _, image := range images {
		args = append(args, "--image", image)
	}
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("task create: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func TestTaskCreateAddAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()

	id := createTask(t, env, writeImage(t, dir, "front.JPG"))

	out, _, err := runCLI(t, []string{"task", "add", id, writeImage(t, dir, "menu.png")}, env.configPath)
	if err != nil {
		t.Fatalf("task add: %v", err)
	}
	requireContains(t, out, "as 1.png")

	out, _, err = runCLI(t, []string{"task", "status", id, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("task status: %v", err)
	}
	var doc task.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if doc.TaskID != id {
		t.Fatalf("task id = %q, want %q", doc.TaskID, id)
	}
	if got := strings.Join(doc.Extensions, ","); got != ".jpg,.png" {
		t.Fatalf("extensions = %s", got)
	}
	if doc.Options.Mode != "story" {
		t.Fatalf("mode = %q", doc.Options.Mode)
	}
}

func TestTaskCreateRejectsInvalidOptions(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"task", "create", "--name", ""}, env.configPath); err == nil {
		t.Fatal("expected error for missing business name")
	}
	if _, _, err := runCLI(t, []string{"task", "create", "--name", "Cafe", "--mode", "ad"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, _, err := runCLI(t, []string{"task", "create", "--name", "Cafe", "--image", filepath.Join(t.TempDir(), "missing.png")}, env.configPath); err == nil {
		t.Fatal("expected error for missing image")
	}

	out, _, err := runCLI(t, []string{"task", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	requireContains(t, out, "No tasks")
}

func TestTaskRunListAndFinal(t *testing.T) {
	env := setupCLITestEnv(t)
	id := createTask(t, env, writeImage(t, t.TempDir(), "front.jpg"))

	if _, _, err := runCLI(t, []string{"task", "final", id}, env.configPath); err == nil {
		t.Fatal("expected final to fail before the task finishes")
	}

	out, _, err := runCLI(t, []string{"task", "run", id}, env.configPath)
	if err != nil {
		t.Fatalf("task run: %v", err)
	}
	requireContains(t, out, "Reel ready:")

	out, _, err = runCLI(t, []string{"task", "final", id}, env.configPath)
	if err != nil {
		t.Fatalf("task final: %v", err)
	}
	if got := strings.TrimSpace(out); filepath.Base(got) != task.FinalName {
		t.Fatalf("final path = %q", got)
	}

	out, _, err = runCLI(t, []string{"task", "list", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	requireContains(t, out, id)
	requireContains(t, out, "7/7")
	requireContains(t, out, "Totals: completed 1")

	out, _, err = runCLI(t, []string{"task", "status", id}, env.configPath)
	if err != nil {
		t.Fatalf("task status: %v", err)
	}
	requireContains(t, out, "Finished:  yes")

	if _, _, err := runCLI(t, []string{"task", "add", id, writeImage(t, t.TempDir(), "late.png")}, env.configPath); err == nil {
		t.Fatal("expected add to be rejected after the pipeline ran")
	}
}

func TestTaskListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"task", "list", "--status", "stalled"}, env.configPath); err == nil {
		t.Fatal("expected unknown status error")
	}
}

func TestTaskReindex(t *testing.T) {
	env := setupCLITestEnv(t)
	createTask(t, env)
	createTask(t, env)

	out, _, err := runCLI(t, []string{"task", "reindex"}, env.configPath)
	if err != nil {
		t.Fatalf("task reindex: %v", err)
	}
	requireContains(t, out, "Indexed 2 task(s)")
}

func TestTaskStatusUnknownTask(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"task", "status", "not-a-uuid"}, env.configPath); err == nil {
		t.Fatal("expected malformed id error")
	}
}

func TestLogsCommandFiltersByTask(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "reelgen.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := `{"msg":"started","task_id":"a"}` + "\n" + `{"msg":"other","task_id":"b"}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--task", "a"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, `"started"`)
	if strings.Contains(out, `"other"`) {
		t.Fatalf("expected task b lines to be filtered:\n%s", out)
	}
}
