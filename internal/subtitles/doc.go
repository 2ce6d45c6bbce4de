// Package subtitles derives word-level caption timing from narration segments.
//
// Each script segment has a known audio duration. Words inside a segment are
// timed proportionally to their character count, and segments are laid end to
// end on a shared clock that accounts for the leading silence trimmed from
// every synthesized clip before concatenation. The resulting timeline is
// rendered as SRT for the compositor.
package subtitles
