package preflight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"subseek/internal/config"
	"subseek/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which checks RunAll performs.
type Options struct {
	// Folder is the directory subtitles will be written to, if known.
	Folder string
	// Network enables provider connectivity checks.
	Network bool
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output folder (when a run targets one)
	if strings.TrimSpace(opts.Folder) != "" {
		results = append(results, CheckDirectoryAccess("Output folder", opts.Folder))
	}

	// History database directory
	if cfg.Batch.RecordHistory && cfg.Paths.LedgerPath != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.LedgerPath)))
	}

	results = append(results, CheckProviderOrder(cfg))
	results = append(results, CheckOpenSubtitlesCredentials(cfg))

	if !opts.Network {
		return results
	}
	if cfg.OpenSubtitles.Enabled && strings.TrimSpace(cfg.OpenSubtitles.APIKey) != "" {
		results = append(results, CheckOpenSubtitles(ctx, cfg.OpenSubtitles.BaseURL, cfg.OpenSubtitles.APIKey, cfg.OpenSubtitles.UserAgent))
	}
	if cfg.Fallback.Enabled {
		for _, source := range cfg.Fallback.Sources {
			switch source {
			case config.SourceSubdl:
				results = append(results, CheckReachable(ctx, "Subdl", cfg.Fallback.SubdlBaseURL))
			case config.SourceYIFY:
				results = append(results, CheckReachable(ctx, "YIFY", cfg.Fallback.YIFYBaseURL))
			}
		}
	}
	return results
}

// Err returns a configuration error naming every failed check, or nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), errors.New("preflight failed"))
}
