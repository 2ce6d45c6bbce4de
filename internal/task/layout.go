package task

import (
	"path/filepath"
	"strconv"
)

// Artifact directory and file names inside a task directory.
const (
	InputDir        = "input"
	VideoDir        = "video"
	CutDir          = "cut"
	SpeechDir       = "tts"
	DocumentName    = "info.json"
	MergedVideoName = "merged.mp4"
	MergedAudioName = "merged.mp3"
	FinalName       = "final.mp4"
	SubtitlesName   = "final.srt"
	LockName        = ".lock"
)

// Layout resolves every artifact path of one task directory:
//
//	<dir>/input/<idx><ext>  <dir>/video/<idx>.mp4  <dir>/cut/<idx>.mp4
//	<dir>/tts/<idx>.mp3     <dir>/merged.mp4       <dir>/merged.mp3
//	<dir>/final.mp4         <dir>/final.srt        <dir>/info.json
type Layout struct {
	Dir string
}

// Subdirs lists the directories created with a new task.
func (l Layout) Subdirs() []string {
	return []string{
		filepath.Join(l.Dir, InputDir),
		filepath.Join(l.Dir, VideoDir),
		filepath.Join(l.Dir, CutDir),
		filepath.Join(l.Dir, SpeechDir),
	}
}

func (l Layout) Input(index int, ext string) string {
	return filepath.Join(l.Dir, InputDir, strconv.Itoa(index)+ext)
}

func (l Layout) Video(index int) string {
	return filepath.Join(l.Dir, VideoDir, strconv.Itoa(index)+".mp4")
}

func (l Layout) Cut(index int) string {
	return filepath.Join(l.Dir, CutDir, strconv.Itoa(index)+".mp4")
}

func (l Layout) Speech(index int) string {
	return filepath.Join(l.Dir, SpeechDir, strconv.Itoa(index)+".mp3")
}

func (l Layout) SpeechRoot() string  { return filepath.Join(l.Dir, SpeechDir) }
func (l Layout) MergedVideo() string { return filepath.Join(l.Dir, MergedVideoName) }
func (l Layout) MergedAudio() string { return filepath.Join(l.Dir, MergedAudioName) }
func (l Layout) Final() string       { return filepath.Join(l.Dir, FinalName) }
func (l Layout) Subtitles() string   { return filepath.Join(l.Dir, SubtitlesName) }
func (l Layout) Document() string    { return filepath.Join(l.Dir, DocumentName) }
func (l Layout) Lock() string        { return filepath.Join(l.Dir, LockName) }
