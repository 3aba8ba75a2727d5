package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"subseek/internal/batch"
	"subseek/internal/fileutil"
	"subseek/internal/language"
	"subseek/internal/ledger"
	"subseek/internal/materialize"
	"subseek/internal/providers"
	"subseek/internal/services"
)

type resultJSON struct {
	RunID     string        `json:"run_id"`
	Language  string        `json:"language"`
	Cancelled bool          `json:"cancelled"`
	Counts    ledger.Counts `json:"counts"`
	Entries   []entryJSON   `json:"entries"`
}

type entryJSON struct {
	Video    string  `json:"video"`
	Status   string  `json:"status"`
	Provider string  `json:"provider,omitempty"`
	Source   string  `json:"source,omitempty"`
	Step     string  `json:"step,omitempty"`
	Release  string  `json:"release,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func toResultJSON(r batch.Result) resultJSON {
	out := resultJSON{
		RunID:     r.RunID,
		Language:  r.Language,
		Cancelled: r.Cancelled,
		Counts:    r.Counts,
		Entries:   make([]entryJSON, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		item := entryJSON{Video: e.Video.Path, Status: e.Kind, Subtitle: e.SubtitlePath}
		if e.Outcome.IsFound() {
			item.Provider = e.Outcome.Candidate.Provider
			item.Source = e.Outcome.Candidate.Source
			item.Step = e.Outcome.Step
			item.Release = e.Outcome.Candidate.Release
			item.Score = e.Outcome.Score
		}
		if e.Err != nil {
			item.Error = e.Err.Error()
		}
		out.Entries = append(out.Entries, item)
	}
	return out
}

func renderResult(w io.Writer, r batch.Result, colorize bool) {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		provider := "-"
		score := "-"
		if e.Outcome.IsFound() {
			provider = providerLabel(e.Outcome.Candidate)
			score = fmt.Sprintf("%.2f", e.Outcome.Score)
		}
		rows = append(rows, []string{
			e.Video.Name,
			paint(outcomeLabel(e.Kind), statusKindColor(outcomeStatus(e.Kind)), colorize),
			provider,
			score,
			entryDetail(e),
		})
	}
	footer := []string{
		fmt.Sprintf("%d files", len(r.Entries)),
		fmt.Sprintf("%d downloaded", r.Counts.Downloaded),
		fmt.Sprintf("%d not found", r.Counts.NotFound),
		fmt.Sprintf("%d errors", r.Counts.Errors),
		fmt.Sprintf("%d skipped", r.Counts.Skipped),
	}
	fmt.Fprintln(w, renderTable(
		[]string{"File", "Status", "Provider", "Score", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		footer,
	))
	if r.Cancelled {
		fmt.Fprintln(w, paint("Run interrupted; remaining files were skipped.", ansiYellow, colorize))
	}
	fmt.Fprintf(w, "Run %s (%s, %s)\n", r.RunID, language.DisplayName(r.Language), r.Duration.Round(time.Millisecond))
}

func providerLabel(c providers.Candidate) string {
	if c.Source != "" {
		return c.Provider + "/" + c.Source
	}
	return c.Provider
}

func entryDetail(e batch.Entry) string {
	switch {
	case e.SubtitlePath != "":
		return filepath.Base(e.SubtitlePath)
	case e.Err == nil:
		return ""
	}
	if dlErr, ok := materialize.AsDownloadError(e.Err); ok {
		switch {
		case errors.Is(dlErr, materialize.ErrSubtitleExists):
			return "subtitle exists (use --force)"
		case fileutil.IsPathTypeConflict(dlErr):
			return "target is not a regular file"
		}
		return dlErr.Op + ": " + rootCause(dlErr.Err)
	}
	if errors.Is(e.Err, services.ErrTimeout) {
		return "provider timed out"
	}
	if last := e.Outcome.LastError(); last != nil {
		return "last provider error: " + last.Provider + " " + last.Reason
	}
	return rootCause(e.Err)
}

func rootCause(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
