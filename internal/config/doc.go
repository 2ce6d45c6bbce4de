// Package config loads, normalizes, and validates reelgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GENAI_API_KEY (comma separated) and GOOGLE_TTS_API_KEY. The Config type
// centralizes every knob the CLI and API server need so provider credentials,
// storage paths, and pipeline tuning are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
