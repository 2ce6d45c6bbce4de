package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// MediaRequirements lists the ffmpeg tools every cut, merge and edit stage
// needs.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     fallback(ffmpegBinary, "ffmpeg"),
			Description: "Required for trimming, concatenation and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     fallback(ffprobeBinary, "ffprobe"),
			Description: "Required for narration durations",
		},
	}
}

// Version runs "<command> -version" and returns the first output line, e.g.
// "ffmpeg version 7.1 Copyright ...". An empty string means the probe failed.
func Version(ctx context.Context, command string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, command, "-version").Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
