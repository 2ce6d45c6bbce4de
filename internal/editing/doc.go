// Package editing implements the ffmpeg-backed stages of the pipeline:
// cut_video trims each generated clip, merge_video joins the cuts, and
// edit_video lays the narration and its word-timed captions over the merged
// clip.
package editing
