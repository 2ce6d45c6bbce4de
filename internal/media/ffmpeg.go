package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelgen/internal/logging"
	"reelgen/internal/media/ffprobe"
	"reelgen/internal/services"
	"reelgen/internal/subtitles"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ProbeFunc reports the duration of a media file in seconds.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// FFmpeg implements Tool and Compositor with the ffmpeg command line.
type FFmpeg struct {
	ffmpegBinary  string
	ffprobeBinary string
	fontName      string
	fontSize      int
	run           Runner
	probe         ProbeFunc
	logger        *slog.Logger
}

// Option customizes an FFmpeg instance.
type Option func(*FFmpeg)

// WithRunner overrides how ffmpeg commands are executed.
func WithRunner(r Runner) Option {
	return func(f *FFmpeg) {
		if r != nil {
			f.run = r
		}
	}
}

// WithProbe overrides duration probing.
func WithProbe(p ProbeFunc) Option {
	return func(f *FFmpeg) {
		if p != nil {
			f.probe = p
		}
	}
}

// WithSubtitleStyle sets the caption font used by Compose.
func WithSubtitleStyle(font string, size int) Option {
	return func(f *FFmpeg) {
		if strings.TrimSpace(font) != "" {
			f.fontName = strings.TrimSpace(font)
		}
		if size > 0 {
			f.fontSize = size
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFFmpeg constructs the adapter. Empty binary names resolve from PATH.
func NewFFmpeg(ffmpegBinary, ffprobeBinary string, opts ...Option) *FFmpeg {
	f := &FFmpeg{
		ffmpegBinary:  defaultBinary(ffmpegBinary, "ffmpeg"),
		ffprobeBinary: defaultBinary(ffprobeBinary, "ffprobe"),
		fontName:      "Arial",
		fontSize:      18,
		run:           defaultRunner,
		logger:        logging.NewNop(),
	}
	f.probe = f.inspectDuration
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultBinary(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Ready reports whether both binaries resolve on PATH.
func (f *FFmpeg) Ready() error {
	if f == nil {
		return errors.New("ffmpeg not configured")
	}
	for _, binary := range []string{f.ffmpegBinary, f.ffprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("binary %q not found", binary)
		}
	}
	return nil
}

// Trim keeps the first seconds of src using stream copy.
func (f *FFmpeg) Trim(ctx context.Context, src, dst string, seconds float64) error {
	if seconds <= 0 {
		return services.Wrap(services.ErrValidation, "", "trim clip", "trim length must be positive", nil)
	}
	return f.render(ctx, "trim clip", dst, func(tmp string) []string {
		return []string{"-i", src, "-t", formatSeconds(seconds), "-c", "copy", tmp}
	})
}

// ConcatVideos joins clips with the concat demuxer.
func (f *FFmpeg) ConcatVideos(ctx context.Context, paths []string, dst string) error {
	if len(paths) == 0 {
		return services.Wrap(services.ErrValidation, "", "concat videos", "no clips to merge", nil)
	}
	list, err := writeConcatList(filepath.Dir(dst), paths)
	if err != nil {
		return services.WrapStorage(nil, "concat videos", "write concat list", err)
	}
	defer os.Remove(list)
	return f.render(ctx, "concat videos", dst, func(tmp string) []string {
		return []string{"-f", "concat", "-safe", "0", "-i", list, "-c", "copy", tmp}
	})
}

// ConcatAudios trims leadTrim seconds from the front of every segment and
// concatenates the results into an MP3.
func (f *FFmpeg) ConcatAudios(ctx context.Context, paths []string, dst string, leadTrim float64) error {
	if len(paths) == 0 {
		return services.Wrap(services.ErrValidation, "", "concat audio", "no segments to merge", nil)
	}
	if leadTrim < 0 {
		leadTrim = 0
	}
	return f.render(ctx, "concat audio", dst, func(tmp string) []string {
		args := make([]string, 0, 2*len(paths)+8)
		for _, path := range paths {
			args = append(args, "-i", path)
		}
		args = append(args,
			"-filter_complex", audioConcatFilter(len(paths), leadTrim),
			"-map", "[out]",
			"-c:a", "libmp3lame",
			tmp,
		)
		return args
	})
}

func audioConcatFilter(n int, leadTrim float64) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[%d:a]atrim=start=%s,asetpts=PTS-STARTPTS[a%d];", i, formatSeconds(leadTrim), i)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[a%d]", i)
	}
	fmt.Fprintf(&sb, "concat=n=%d:v=0:a=1[out]", n)
	return sb.String()
}

// Duration probes path with ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	seconds, err := f.probe(ctx, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "", "probe duration", filepath.Base(path), err)
	}
	if seconds <= 0 {
		return 0, services.Wrap(services.ErrExternalTool, "", "probe duration", fmt.Sprintf("%s reports no duration", filepath.Base(path)), nil)
	}
	return seconds, nil
}

func (f *FFmpeg) inspectDuration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, f.ffprobeBinary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

// Compose writes the caption timeline as SRT beside outputPath and burns it
// into the merged video while muxing the merged narration.
func (f *FFmpeg) Compose(ctx context.Context, videoPath, audioPath string, timestamps []subtitles.Timestamp, outputPath string) error {
	srtPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".srt"
	if err := subtitles.WriteSRT(srtPath, timestamps); err != nil {
		return services.WrapStorage(nil, "compose", "write captions", err)
	}
	style := fmt.Sprintf("FontName=%s,FontSize=%d,Alignment=2", f.fontName, f.fontSize)
	filter := fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterValue(srtPath), style)
	return f.render(ctx, "compose", outputPath, func(tmp string) []string {
		return []string{
			"-i", videoPath,
			"-i", audioPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-vf", filter,
			"-c:v", "libx264",
			"-c:a", "aac",
			tmp,
		}
	})
}

// render runs ffmpeg writing to a temporary sibling of dst and renames it into
// place on success.
func (f *FFmpeg) render(ctx context.Context, op, dst string, build func(tmp string) []string) error {
	tmp := tempSibling(dst)
	args := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, build(tmp)...)
	f.logger.Debug("ffmpeg command",
		logging.String("operation", op),
		logging.String("output", dst),
		logging.String("args", strings.Join(args, " ")),
	)
	output, err := f.run(ctx, f.ffmpegBinary, args...)
	if err != nil {
		_ = os.Remove(tmp)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "", "ffmpeg "+op, summarizeOutput(output), err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrExternalTool, "", "ffmpeg "+op, "no output produced", err)
		}
		return services.WrapStorage(nil, "ffmpeg "+op, dst, err)
	}
	return nil
}

// tempSibling keeps the destination extension so ffmpeg can infer the muxer.
func tempSibling(dst string) string {
	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(filepath.Base(dst), ext)
	return filepath.Join(filepath.Dir(dst), "."+base+".partial"+ext)
}

func writeConcatList(dir string, paths []string) (string, error) {
	file, err := os.CreateTemp(dir, ".concat-*.txt")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if _, err := file.WriteString(sb.String()); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\\\`, `:`, `\\:`, `'`, `\\\'`, `,`, `\,`)
	return replacer.Replace(value)
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

func summarizeOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 400 {
		text = "..." + text[len(text)-400:]
	}
	return text
}
