package subtitles

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Timestamp pairs a word with the time, in seconds, at which its display
// interval ends.
type Timestamp struct {
	Word string
	End  float64
}

// Segment is one narrated script line and the duration of its audio.
type Segment struct {
	Text     string
	Duration float64
}

// WordTimings splits text on whitespace and returns each word's cumulative end
// time within a segment lasting duration seconds. Time is divided evenly over
// the non-whitespace characters, so "AB CD" over 4s ends at 2s and 4s.
func WordTimings(duration float64, text string) []Timestamp {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chars := 0
	for _, word := range words {
		chars += utf8.RuneCountInString(word)
	}
	if chars == 0 {
		return nil
	}
	perChar := duration / float64(chars)
	timings := make([]Timestamp, 0, len(words))
	var elapsed float64
	for _, word := range words {
		elapsed += perChar * float64(utf8.RuneCountInString(word))
		timings = append(timings, Timestamp{Word: word, End: elapsed})
	}
	return timings
}

// Synthesizer lays segment word timings onto a single global clock.
type Synthesizer struct {
	// PreCutTrim is the leading silence, in seconds, removed from every
	// segment's audio before concatenation.
	PreCutTrim float64
}

// Timeline returns global word end times for segments in script order. After
// each segment the clock advances by its duration minus PreCutTrim, never by a
// negative amount.
func (s Synthesizer) Timeline(segments []Segment) []Timestamp {
	var (
		out     []Timestamp
		current float64
	)
	for _, segment := range segments {
		for _, ts := range WordTimings(segment.Duration, segment.Text) {
			out = append(out, Timestamp{Word: ts.Word, End: current + ts.End})
		}
		current += s.advance(segment.Duration)
	}
	return out
}

// Offsets returns the global start time of each segment.
func (s Synthesizer) Offsets(segments []Segment) []float64 {
	offsets := make([]float64, len(segments))
	var current float64
	for i, segment := range segments {
		offsets[i] = current
		current += s.advance(segment.Duration)
	}
	return offsets
}

func (s Synthesizer) advance(duration float64) float64 {
	step := duration - s.PreCutTrim
	if step < 0 {
		return 0
	}
	return step
}

// Cue is one displayed caption interval.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Cues converts a timeline into display intervals: each word is shown from the
// previous word's end to its own end. Words with an empty interval are kept so
// the caption stream never skips a word.
func Cues(timeline []Timestamp) []Cue {
	cues := make([]Cue, 0, len(timeline))
	var start float64
	for i, ts := range timeline {
		end := ts.End
		if end < start {
			end = start
		}
		cues = append(cues, Cue{
			Index: i + 1,
			Start: start,
			End:   end,
			Text:  strings.TrimFunc(ts.Word, unicode.IsSpace),
		})
		start = end
	}
	return cues
}
