// Package logging assembles structured slog loggers and formatting helpers used
// across subseek.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so resolver and batch code can
// automatically tag log lines with run IDs, video paths, and chain steps. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
