// Package media wraps the ffmpeg and ffprobe binaries behind the small set of
// operations the editing stages need: trimming clips, concatenating clips and
// narration, probing durations, and burning word captions into the final reel.
//
// Every operation renders into a temporary sibling of its destination and
// renames on success, so an interrupted run never leaves a truncated artifact
// at a path a later stage would trust.
package media
