// Package materialize turns an accepted subtitle candidate into a file next
// to its video.
//
// The orchestrator fetches the payload through the candidate's provider,
// unpacks zip archives, validates and converts the subtitle to SRT with
// go-astisub, and writes `<stem>.<lang>.srt` through a Writer. The default
// writer is atomic (temp file + rename) and refuses to replace an existing
// subtitle unless overwriting is enabled.
package materialize
