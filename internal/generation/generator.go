package generation

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reelgen/internal/services"
)

// Generator is a remote image-to-video provider bound to one credential.
type Generator interface {
	// Generate submits prompt and the image at imagePath, waits for the job to
	// finish, and returns a locator for the produced clip.
	Generate(ctx context.Context, prompt, imagePath string) (videoURL string, err error)
	// Download stores the clip behind videoURL at dst. A failed download
	// leaves dst untouched.
	Download(ctx context.Context, videoURL, dst string) error
}

// Unit is the generation work for one input asset.
type Unit struct {
	Index      int
	ImagePath  string
	OutputPath string
	Prompt     string
}

func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "", "read image", filepath.Base(path), err)
	}
	return data, detectImageType(path, data), nil
}

func detectImageType(path string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}

func providerError(op string, format string, args ...any) error {
	return services.Wrap(services.ErrProvider, "", op, fmt.Sprintf(format, args...), nil)
}
