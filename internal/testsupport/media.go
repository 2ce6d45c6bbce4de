package testsupport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"reelgen/internal/subtitles"
)

// FakeMedia implements media.Tool and media.Compositor without ffmpeg. Every
// operation writes a small marker file at its destination so later stages see
// real outputs, and records the call for assertions.
type FakeMedia struct {
	mu sync.Mutex

	// Durations maps a path to the duration Duration reports. Unknown paths
	// report DefaultDuration.
	Durations       map[string]float64
	DefaultDuration float64
	// FailOn makes the named operation fail.
	FailOn string

	Calls     []string
	Trims     map[string]float64
	Concats   [][]string
	AudioTrim float64
	Timeline  []subtitles.Timestamp
}

// NewFakeMedia returns a fake reporting 2s for every clip.
func NewFakeMedia() *FakeMedia {
	return &FakeMedia{
		Durations:       make(map[string]float64),
		DefaultDuration: 2,
		Trims:           make(map[string]float64),
	}
}

func (f *FakeMedia) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	if f.FailOn == op {
		return fmt.Errorf("fake %s failure", op)
	}
	return nil
}

func (f *FakeMedia) Trim(_ context.Context, src, dst string, seconds float64) error {
	if err := f.record("trim"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Trims[dst] = seconds
	f.mu.Unlock()
	return os.WriteFile(dst, []byte("trim:"+src), 0o644)
}

func (f *FakeMedia) ConcatVideos(_ context.Context, paths []string, dst string) error {
	if err := f.record("concat_videos"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Concats = append(f.Concats, append([]string(nil), paths...))
	f.mu.Unlock()
	return os.WriteFile(dst, []byte(strings.Join(paths, "\n")), 0o644)
}

func (f *FakeMedia) ConcatAudios(_ context.Context, paths []string, dst string, leadTrim float64) error {
	if err := f.record("concat_audios"); err != nil {
		return err
	}
	f.mu.Lock()
	f.AudioTrim = leadTrim
	f.mu.Unlock()
	return os.WriteFile(dst, []byte(strings.Join(paths, "\n")), 0o644)
}

func (f *FakeMedia) Duration(_ context.Context, path string) (float64, error) {
	if err := f.record("duration"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.Durations[path]; ok {
		return d, nil
	}
	return f.DefaultDuration, nil
}

func (f *FakeMedia) Compose(_ context.Context, videoPath, audioPath string, timestamps []subtitles.Timestamp, outputPath string) error {
	if err := f.record("compose"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Timeline = append([]subtitles.Timestamp(nil), timestamps...)
	f.mu.Unlock()
	return os.WriteFile(outputPath, []byte(videoPath+"+"+audioPath), 0o644)
}

// CallCount returns how many times op ran.
func (f *FakeMedia) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.Calls {
		if call == op {
			n++
		}
	}
	return n
}
