package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelgen/internal/config"
	"reelgen/internal/logging"
	"reelgen/internal/task"
	"reelgen/internal/testsupport"
	"reelgen/internal/workflow"
)

// recordStage marks its stage complete without touching any provider. The
// finish stage writes a placeholder reel so FinalArtifact succeeds.
type recordStage struct {
	name task.Stage
}

func (s recordStage) Name() task.Stage { return s.name }

func (s recordStage) Execute(_ context.Context, t *task.Task) error {
	if s.name == task.StageFinish {
		return os.WriteFile(t.Layout().Final(), []byte("reel"), 0o644)
	}
	return nil
}

func recordStages(context.Context, *config.Config, *slog.Logger) (workflow.StageSet, error) {
	return workflow.StageSet{
		Generate: recordStage{task.StageGenerateVideo},
		Cut:      recordStage{task.StageCutVideo},
		Merge:    recordStage{task.StageMergeVideo},
		Script:   recordStage{task.StageGenerateScript},
		Speech:   recordStage{task.StageGenerateTTS},
		Edit:     recordStage{task.StageEditVideo},
		Finish:   recordStage{task.StageFinish},
	}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, name := range []string{"GENAI_API_KEY", "DEEVID_TOKENS", "GEMINI_API_KEY", "OPENROUTER_API_KEY", "GOOGLE_TTS_API_KEY", "REELGEN_DATA_DIR", "REELGEN_API_TOKEN"} {
		t.Setenv(name, "")
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	ctx := newCommandContext(nil)
	ctx.stages = recordStages
	ctx.log = logging.NewNop()

	cmd := newRootCommandWith(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substring string) {
	t.Helper()
	if !strings.Contains(output, substring) {
		t.Fatalf("expected output to contain %q, got:\n%s", substring, output)
	}
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, 64)
	return path
}
