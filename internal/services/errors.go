package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrProvider       = errors.New("provider error")
	ErrTimeout        = errors.New("timeout")
	ErrStorage        = errors.New("storage error")
	ErrNotFound       = errors.New("not found")
	ErrCorrupt        = errors.New("corrupt task document")
	ErrPartialFailure = errors.New("partial failure")
	ErrNoCredentials  = errors.New("no credentials")
	ErrExternalTool   = errors.New("external tool error")
	ErrBusy           = errors.New("task busy")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// WrapStorage tags err with ErrStorage and an optional storage sub-kind such as
// ErrNotFound or ErrCorrupt.
func WrapStorage(kind error, operation, message string, err error) error {
	detail := buildDetail("", operation, message)
	switch {
	case kind != nil && err != nil:
		return fmt.Errorf("%w: %w: %s: %w", ErrStorage, kind, detail, err)
	case kind != nil:
		return fmt.Errorf("%w: %w: %s", ErrStorage, kind, detail)
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrStorage, detail, err)
	default:
		return fmt.Errorf("%w: %s", ErrStorage, detail)
	}
}

// Retryable reports whether re-invoking the failed operation may succeed
// without the caller changing its request.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrNoCredentials), errors.Is(err, ErrStorage):
		return false
	case errors.Is(err, ErrProvider), errors.Is(err, ErrTimeout),
		errors.Is(err, ErrPartialFailure), errors.Is(err, ErrExternalTool),
		errors.Is(err, ErrBusy):
		return true
	default:
		return false
	}
}

// Classify maps an error to a short kind label used in logs, the status index
// and API responses.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNoCredentials), errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCorrupt):
		return "corrupt"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrPartialFailure):
		return "partial_failure"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
