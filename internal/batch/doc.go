// Package batch resolves and downloads subtitles for many videos at once.
//
// A Coordinator runs the per-file flow (resolve, then materialize) on a
// bounded worker pool and reports results in input order. Cancellation is
// checked between files; a file that has started runs to completion on a
// context detached from the caller's cancellation so no subtitle is left
// half-written. Folder runs take an advisory lock so two invocations never
// process the same directory concurrently.
package batch
