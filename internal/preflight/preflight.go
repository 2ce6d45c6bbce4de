package preflight

import (
	"context"

	"reelgen/internal/config"
	"reelgen/internal/services/llm"
)

// MinFreeBytes is the free space below which the data directory check fails.
// A single task keeps every intermediate clip, so this is deliberately loose.
const MinFreeBytes uint64 = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir, MinFreeBytes),
		CheckCredentials(cfg),
	}

	// Gemini is reached through the genai SDK; only the OpenRouter endpoint
	// has a cheap health probe.
	if cfg.Script.Provider == config.ScriptProviderOpenRouter {
		results = append(results, CheckLLM(ctx, "Script LLM", llm.Config{
			APIKey:  cfg.Script.APIKey,
			BaseURL: cfg.Script.BaseURL,
			Model:   cfg.Script.Model,
			Title:   "reelgen",
		}))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
