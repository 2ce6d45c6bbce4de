package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"reelgen/internal/fileutil"
	"reelgen/internal/logging"
	"reelgen/internal/services"
)

// Defaults for Veo jobs, which typically finish in one to three minutes.
const (
	DefaultVeoModel        = "veo-2.0-generate-001"
	DefaultVeoPollInterval = 10 * time.Second
	DefaultVeoPollTimeout  = 10 * time.Minute
)

// veoAPI is the slice of the genai client the generator uses.
type veoAPI interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	Download(ctx context.Context, video *genai.Video) ([]byte, error)
}

type genaiVeo struct {
	client *genai.Client
}

func (g genaiVeo) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return g.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (g genaiVeo) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return g.client.Operations.GetVideosOperation(ctx, op, nil)
}

func (g genaiVeo) Download(ctx context.Context, video *genai.Video) ([]byte, error) {
	return g.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
}

// VeoGenerator generates clips with Google Veo using one API key.
type VeoGenerator struct {
	api          veoAPI
	model        string
	aspectRatio  string
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger
}

// VeoOption customizes a VeoGenerator.
type VeoOption func(*VeoGenerator)

// WithVeoPolling sets the operation poll cadence and bound.
func WithVeoPolling(interval, timeout time.Duration) VeoOption {
	return func(v *VeoGenerator) {
		if interval > 0 {
			v.pollInterval = interval
		}
		if timeout > 0 {
			v.pollTimeout = timeout
		}
	}
}

// WithVeoAspectRatio requests a specific aspect ratio such as "9:16".
func WithVeoAspectRatio(ratio string) VeoOption {
	return func(v *VeoGenerator) {
		v.aspectRatio = strings.TrimSpace(ratio)
	}
}

// WithVeoLogger attaches a logger.
func WithVeoLogger(logger *slog.Logger) VeoOption {
	return func(v *VeoGenerator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func withVeoAPI(api veoAPI) VeoOption {
	return func(v *VeoGenerator) { v.api = api }
}

// NewVeoGenerator creates a Gemini API client for apiKey.
func NewVeoGenerator(ctx context.Context, apiKey, model string, opts ...VeoOption) (*VeoGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "veo client", "api key required", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "veo client", "create genai client", err)
	}
	return newVeoGenerator(genaiVeo{client: client}, model, opts...), nil
}

func newVeoGenerator(api veoAPI, model string, opts ...VeoOption) *VeoGenerator {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultVeoModel
	}
	v := &VeoGenerator{
		api:          api,
		model:        model,
		aspectRatio:  "9:16",
		pollInterval: DefaultVeoPollInterval,
		pollTimeout:  DefaultVeoPollTimeout,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Generate submits an image-to-video job and polls the operation until done.
func (v *VeoGenerator) Generate(ctx context.Context, prompt, imagePath string) (string, error) {
	data, mimeType, err := readImage(imagePath)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		return "", services.Wrap(services.ErrValidation, "", "veo generate", "unsupported image type", nil)
	}
	cfg := &genai.GenerateVideosConfig{NumberOfVideos: 1, AspectRatio: v.aspectRatio}
	op, err := v.api.GenerateVideos(ctx, v.model, prompt, &genai.Image{ImageBytes: data, MIMEType: mimeType}, cfg)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "", "veo generate", "submit job", err)
	}
	logger := logging.WithContext(ctx, v.logger)
	logger.Debug("veo job submitted", logging.String("operation", op.Name), logging.String("model", v.model))

	started := time.Now()
	if !op.Done {
		err = waitFor(ctx, "veo generate", v.pollInterval, v.pollTimeout, func(ctx context.Context) (bool, error) {
			next, err := v.api.GetVideosOperation(ctx, op)
			if err != nil {
				return false, services.Wrap(services.ErrProvider, "", "veo generate", "poll operation", err)
			}
			op = next
			logger.Debug("veo job polled", logging.Bool("done", op.Done), logging.Duration("elapsed", time.Since(started)))
			return op.Done, nil
		})
		if err != nil {
			return "", err
		}
	}
	return videoURI(op)
}

func videoURI(op *genai.GenerateVideosOperation) (string, error) {
	if len(op.Error) > 0 {
		return "", providerError("veo generate", "operation failed: %v", op.Error["message"])
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		if op.Response != nil && op.Response.RAIMediaFilteredCount > 0 {
			return "", providerError("veo generate", "video filtered: %s", strings.Join(op.Response.RAIMediaFilteredReasons, "; "))
		}
		return "", providerError("veo generate", "operation returned no videos")
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil || strings.TrimSpace(video.URI) == "" {
		return "", providerError("veo generate", "generated video has no uri")
	}
	return video.URI, nil
}

// Download fetches the clip bytes through the Files API and writes them atomically.
func (v *VeoGenerator) Download(ctx context.Context, videoURL, dst string) error {
	data, err := v.api.Download(ctx, &genai.Video{URI: videoURL, MIMEType: "video/mp4"})
	if err != nil {
		return services.Wrap(services.ErrProvider, "", "veo download", "", err)
	}
	if len(data) == 0 {
		return providerError("veo download", "empty video payload")
	}
	if err := fileutil.WriteFileAtomic(dst, data, 0o644); err != nil {
		return services.WrapStorage(nil, "veo download", fmt.Sprintf("write %s", dst), err)
	}
	return nil
}
