package logging

import (
	"context"
	"log/slog"

	"reelgen/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTaskID is the standardized structured logging key for task identifiers.
	FieldTaskID = "task_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldAssetIndex is the key for the input asset a generation unit works on.
	FieldAssetIndex = "asset_index"
	// FieldSegmentIndex is the key for the script segment being voiced.
	FieldSegmentIndex = "segment_index"
	// FieldAttempt is the 1-based attempt number within a retry budget.
	FieldAttempt = "attempt"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (stage_start, stage_failure, ...).
	FieldEventType = "event_type"
	// FieldErrorKind carries services.Classify for the logged error.
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests the next step for an operator.
	FieldErrorHint = "error_hint"
)

// Standard event types.
const (
	EventStageStart        = "stage_start"
	EventStageComplete     = "stage_complete"
	EventStageSkip         = "stage_skip"
	EventStageFailure      = "stage_failure"
	EventUnitAttemptFailed = "unit_attempt_failed"
	EventCredentialRotated = "credential_rotated"
	EventTaskComplete      = "task_complete"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.TaskIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTaskID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if idx, ok := services.AssetIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldAssetIndex, idx))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}

// Failure returns the error plus its classification.
func Failure(err error) []Attr {
	return []Attr{Error(err), String(FieldErrorKind, services.Classify(err))}
}
