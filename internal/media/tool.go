package media

import (
	"context"

	"reelgen/internal/subtitles"
)

// Tool performs the clip-level operations of the editing stages.
type Tool interface {
	// Trim keeps the first seconds of src and writes the result to dst.
	Trim(ctx context.Context, src, dst string, seconds float64) error
	// ConcatVideos joins clips in order into dst.
	ConcatVideos(ctx context.Context, paths []string, dst string) error
	// ConcatAudios joins narration segments in order into dst after removing
	// leadTrim seconds of leading silence from each.
	ConcatAudios(ctx context.Context, paths []string, dst string, leadTrim float64) error
	// Duration reports the media duration of path in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

// Compositor renders the final reel from the merged video, the merged
// narration, and the global caption timeline.
type Compositor interface {
	Compose(ctx context.Context, videoPath, audioPath string, timestamps []subtitles.Timestamp, outputPath string) error
}
