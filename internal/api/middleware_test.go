package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelgen/internal/generation"
	"reelgen/internal/logging"
	"reelgen/internal/services"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrValidation, "", "create", "bad", nil), http.StatusBadRequest},
		{services.WrapStorage(services.ErrNotFound, "load", "x", nil), http.StatusNotFound},
		{services.Wrap(services.ErrBusy, "", "run", "busy", nil), http.StatusConflict},
		{services.Wrap(services.ErrTimeout, "generate_video", "poll", "slow", nil), http.StatusGatewayTimeout},
		{services.Wrap(services.ErrProvider, "generate_script", "call", "down", nil), http.StatusBadGateway},
		{&generation.PartialFailure{Total: 2, Failed: []generation.UnitError{{Index: 1, Err: errors.New("x")}}}, http.StatusBadGateway},
		{services.Wrap(services.ErrExternalTool, "cut_video", "ffmpeg", "exit 1", nil), http.StatusBadGateway},
		{services.Wrap(services.ErrConfiguration, "", "run", "no handler", nil), http.StatusInternalServerError},
		{errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := statusForError(tc.err); got != tc.want {
			t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RequestIDMiddleware()(RecoveryMiddleware(logging.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAuthMiddlewareDisabledWithoutToken(t *testing.T) {
	called := false
	handler := AuthMiddleware("", logging.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
}
