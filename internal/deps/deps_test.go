package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe"},
		{Name: "Extra", Optional: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "FFprobe" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestMediaRequirementsDefaults(t *testing.T) {
	reqs := MediaRequirements("", "/opt/ffmpeg/bin/ffprobe")
	if reqs[0].Command != "ffmpeg" {
		t.Fatalf("expected ffmpeg default, got %q", reqs[0].Command)
	}
	if reqs[1].Command != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("expected configured ffprobe, got %q", reqs[1].Command)
	}
}

func TestVersionReadsFirstLine(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	script := []byte("#!/bin/sh\necho 'ffmpeg version 7.1 Copyright (c) the FFmpeg developers'\necho 'built with gcc'\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	got := Version(context.Background(), stub)
	if got != "ffmpeg version 7.1 Copyright (c) the FFmpeg developers" {
		t.Fatalf("unexpected version line %q", got)
	}
	if Version(context.Background(), filepath.Join(t.TempDir(), "absent")) != "" {
		t.Fatal("expected empty version for missing binary")
	}
}
