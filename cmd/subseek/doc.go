// Package main hosts the subseek CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves subtitles for single videos (fetch),
// whole folders (batch), and interactive selection (search), and exposes the
// run history, preflight checks, and configuration scaffolding. It
// centralizes configuration resolution and engine wiring so subcommands only
// deal with presentation.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
