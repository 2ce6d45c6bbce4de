package api

import (
	"errors"
	"net/http"

	"reelgen/internal/logging"
	"reelgen/internal/services"
)

// statusForError maps a services classification to an HTTP status and a
// stable error code.
func statusForError(err error) (int, string) {
	switch services.Classify(err) {
	case "validation":
		return http.StatusBadRequest, "BAD_REQUEST"
	case "not_found":
		return http.StatusNotFound, "NOT_FOUND"
	case "busy":
		return http.StatusConflict, "TASK_BUSY"
	case "timeout":
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case "provider", "partial_failure", "external_tool":
		return http.StatusBadGateway, "UPSTREAM_FAILED"
	case "configuration":
		return http.StatusInternalServerError, "CONFIGURATION_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeServiceError logs server-side failures and writes the mapped response.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		WriteError(w, r, http.StatusRequestEntityTooLarge, "upload too large", "TOO_LARGE")
		return
	}
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "http_error",
			append(logging.Failure(err), logging.String("path", r.URL.Path))...,
		)
	}
	WriteError(w, r, status, err.Error(), code)
}
