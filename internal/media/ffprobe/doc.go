// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns the parsed Result. DurationSeconds
// prefers the container duration and falls back to the longest stream, which
// covers raw MP3 segments that report no container duration.
package ffprobe
