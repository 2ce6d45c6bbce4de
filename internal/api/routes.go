package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the route table for s.
func NewRouter(s *Server) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))

	r.Get("/health", s.healthHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.Token, s.logger))

		r.Get("/tasks", s.listTasksHandler())
		r.Post("/tasks", s.createTaskHandler())
		r.Get("/tasks/{id}", s.getTaskHandler())
		r.Post("/tasks/{id}/run", s.runTaskHandler())
		r.Get("/tasks/{id}/final", s.finalHandler())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "route not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
	})
	return r
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:       "ok",
			Version:      Version,
			UptimeS:      int64(time.Since(s.cfg.StartTime).Seconds()),
			Stages:       StageHealthSlice(s.cfg.Service.Health(r.Context())),
			Dependencies: []DependencyStatus{},
		}
		if s.cfg.Dependencies != nil {
			resp.Dependencies = FromDependencies(s.cfg.Dependencies())
		}
		for _, st := range resp.Stages {
			if !st.Ready {
				resp.Status = "degraded"
			}
		}
		for _, dep := range resp.Dependencies {
			if !dep.Available && !dep.Optional {
				resp.Status = "degraded"
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
