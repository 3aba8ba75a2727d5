// Package services defines shared utilities consumed by the subtitle engine
// and its provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch run IDs, video paths, and provider
//     step names for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent per-file outcomes (not found vs error).
//
// Use these helpers when wiring new providers or pipeline stages so
// operational behaviour (error handling, observability) stays uniform across
// the engine.
package services
