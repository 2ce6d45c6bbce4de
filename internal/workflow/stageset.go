package workflow

import (
	"context"

	"reelgen/internal/stage"
)

// StageSet bundles the concrete handlers the pipeline orchestrates.
type StageSet struct {
	Generate stage.Handler
	Cut      stage.Handler
	Merge    stage.Handler
	Script   stage.Handler
	Speech   stage.Handler
	Edit     stage.Handler
	Finish   stage.Handler
}

// Handlers returns the configured handlers in pipeline order, omitting nil
// entries.
func (s StageSet) Handlers() []stage.Handler {
	all := []stage.Handler{s.Generate, s.Cut, s.Merge, s.Script, s.Speech, s.Edit, s.Finish}
	out := make([]stage.Handler, 0, len(all))
	for _, h := range all {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Health runs the health check of every handler that has one.
func (s StageSet) Health(ctx context.Context) []stage.Health {
	var results []stage.Health
	for _, h := range s.Handlers() {
		if checker, ok := h.(stage.HealthChecker); ok {
			results = append(results, checker.HealthCheck(ctx))
		}
	}
	return results
}
