package subtitles

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWordTimingsDividesByCharacters(t *testing.T) {
	got := WordTimings(4.0, "AB CD")
	want := []Timestamp{{Word: "AB", End: 2.0}, {Word: "CD", End: 4.0}}
	if len(got) != len(want) {
		t.Fatalf("expected %d timings, got %v", len(want), got)
	}
	for i := range want {
		if got[i].Word != want[i].Word || !almostEqual(got[i].End, want[i].End) {
			t.Fatalf("timing %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWordTimingsUnevenWords(t *testing.T) {
	got := WordTimings(6.0, "a bb  ccc")
	ends := []float64{1, 3, 6}
	if len(got) != 3 {
		t.Fatalf("expected 3 timings, got %v", got)
	}
	for i, end := range ends {
		if !almostEqual(got[i].End, end) {
			t.Fatalf("word %q ends at %v, want %v", got[i].Word, got[i].End, end)
		}
	}
}

func TestWordTimingsCountsRunes(t *testing.T) {
	got := WordTimings(2.0, "café au")
	if len(got) != 2 || !almostEqual(got[0].End, 2.0*4/6) {
		t.Fatalf("unexpected timings %v", got)
	}
}

func TestWordTimingsEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := WordTimings(3.0, text); len(got) != 0 {
			t.Fatalf("expected no timings for %q, got %v", text, got)
		}
	}
}

func TestTimelineOffsetsSegments(t *testing.T) {
	synth := Synthesizer{PreCutTrim: 0.5}
	segments := []Segment{
		{Text: "hello world", Duration: 5.0},
		{Text: "AB CD", Duration: 4.0},
	}
	timeline := synth.Timeline(segments)
	if len(timeline) != 4 {
		t.Fatalf("expected 4 timestamps, got %v", timeline)
	}
	if !almostEqual(timeline[1].End, 5.0) {
		t.Fatalf("first segment should end at 5.0, got %v", timeline[1].End)
	}
	if !almostEqual(timeline[2].End, 6.5) || !almostEqual(timeline[3].End, 8.5) {
		t.Fatalf("second segment should start at 4.5, got %v", timeline[2:])
	}
	offsets := synth.Offsets(segments)
	if !almostEqual(offsets[0], 0) || !almostEqual(offsets[1], 4.5) {
		t.Fatalf("unexpected offsets %v", offsets)
	}
}

func TestTimelineClampsShortSegments(t *testing.T) {
	synth := Synthesizer{PreCutTrim: 0.5}
	segments := []Segment{
		{Text: "hi", Duration: 0.2},
		{Text: "there", Duration: 1.0},
	}
	offsets := synth.Offsets(segments)
	if !almostEqual(offsets[1], 0) {
		t.Fatalf("expected offset clamped at 0, got %v", offsets[1])
	}
	timeline := synth.Timeline(segments)
	if !almostEqual(timeline[1].End, 1.0) {
		t.Fatalf("unexpected end %v", timeline[1].End)
	}
}

func TestTimelineSkipsEmptySegments(t *testing.T) {
	synth := Synthesizer{}
	timeline := synth.Timeline([]Segment{{Text: "", Duration: 2}, {Text: "go", Duration: 1}})
	if len(timeline) != 1 || !almostEqual(timeline[0].End, 3.0) {
		t.Fatalf("unexpected timeline %v", timeline)
	}
}

func TestCuesUsePreviousEnd(t *testing.T) {
	cues := Cues([]Timestamp{{Word: "AB", End: 2}, {Word: "CD", End: 4}})
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %v", cues)
	}
	if cues[0].Start != 0 || cues[0].End != 2 || cues[1].Start != 2 || cues[1].End != 4 {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if cues[1].Index != 2 {
		t.Fatalf("unexpected index %d", cues[1].Index)
	}
}

func TestWriteAndReadSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.srt")
	timeline := []Timestamp{{Word: "Fresh", End: 1.25}, {Word: "bread", End: 2.5}}
	if err := WriteSRT(path, timeline); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	cues, err := ReadCues(path)
	if err != nil {
		t.Fatalf("ReadCues: %v", err)
	}
	if len(cues) != 2 || cues[1].Text != "bread" || !almostEqual(cues[1].Start, 1.25) {
		t.Fatalf("unexpected cues %+v", cues)
	}
}

func TestRenderSRTFormat(t *testing.T) {
	out := string(RenderSRT([]Cue{{Index: 1, Start: 0, End: 3723.5, Text: "hi"}}))
	want := "1\n00:00:00,000 --> 01:02:03,500\nhi\n"
	if out != want {
		t.Fatalf("unexpected srt %q", out)
	}
	if strings.Count(string(RenderSRT([]Cue{{Index: 1, Text: "a"}, {Index: 2, Text: "b"}})), "\n\n") != 1 {
		t.Fatal("expected cues separated by one blank line")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := map[string]float64{
		"00:00:01,500": 1.5,
		"01:00:00.250": 3600.25,
	}
	for input, want := range cases {
		got, err := ParseTimestamp(input)
		if err != nil || !almostEqual(got, want) {
			t.Fatalf("ParseTimestamp(%q) = %v, %v", input, got, err)
		}
	}
	for _, bad := range []string{"", "1:2", "aa:bb:cc,ddd"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if FormatTimestamp(-2) != "00:00:00,000" {
		t.Fatal("expected negative timestamps clamped")
	}
}
