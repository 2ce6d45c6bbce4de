// Package llm provides an OpenRouter-compatible chat client used to draft
// narration scripts when the script provider is set to "openrouter".
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteText: send system/user prompts, receive free text.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant JSON decoding for fenced or chatty responses.
//
// # Retry Behaviour
//
// Requests run under a retry.Policy: HTTP 408/429/5xx, network timeouts and
// empty completions are retried with exponential backoff (base 1s, max 10s,
// 3 attempts by default). Context cancellation aborts retries immediately.
// Exhausted or permanent failures are wrapped in services.ErrProvider.
package llm
