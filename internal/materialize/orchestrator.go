package materialize

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"subseek/internal/fileutil"
	"subseek/internal/logging"
	"subseek/internal/providers"
)

// ProviderLookup resolves the provider that produced a candidate.
type ProviderLookup interface {
	Lookup(c providers.Candidate) (providers.Provider, error)
}

// Options configures an Orchestrator.
type Options struct {
	Writer    Writer
	Overwrite bool
	Logger    *slog.Logger
}

// Orchestrator downloads, validates and writes accepted candidates.
type Orchestrator struct {
	lookup    ProviderLookup
	writer    Writer
	overwrite bool
	logger    *slog.Logger
}

// New builds an orchestrator. A nil Writer selects AtomicWriter.
func New(lookup ProviderLookup, opts Options) *Orchestrator {
	writer := opts.Writer
	if writer == nil {
		writer = AtomicWriter{}
	}
	return &Orchestrator{
		lookup:    lookup,
		writer:    writer,
		overwrite: opts.Overwrite,
		logger:    logging.NewComponentLogger(opts.Logger, "materialize"),
	}
}

// TargetPath returns `<dir>/<stem>.<lang>.srt` for videoPath.
func TargetPath(videoPath, lang string) string {
	dir := filepath.Dir(videoPath)
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"."+strings.ToLower(lang)+".srt")
}

// Materialize fetches c and writes it next to videoPath, returning the written
// path. Every failure is a DownloadError; an existing target without
// overwrite wraps ErrSubtitleExists.
func (o *Orchestrator) Materialize(ctx context.Context, c providers.Candidate, videoPath string) (string, error) {
	target := TargetPath(videoPath, c.Language)
	fail := func(op string, err error) (string, error) {
		return "", &DownloadError{Provider: c.Provider, Ref: c.Ref, Path: target, Op: op, Err: err}
	}
	if c.Language == "" {
		return fail("resolve target", errors.New("candidate has no language"))
	}
	if !o.overwrite && fileutil.Exists(target) {
		return fail("check target", ErrSubtitleExists)
	}

	provider, err := o.lookup.Lookup(c)
	if err != nil {
		return fail("lookup provider", err)
	}
	payload, err := provider.Fetch(ctx, c)
	if err != nil {
		return fail("fetch", err)
	}
	data, err := Normalize(payload)
	if err != nil {
		return fail("decode", err)
	}
	if err := o.writer.Write(target, data, o.overwrite); err != nil {
		return fail("write", err)
	}
	logging.WithContext(ctx, o.logger).Info("subtitle written",
		logging.String("path", target),
		logging.String(logging.FieldProvider, c.Provider),
		logging.String("source", c.Source),
		logging.String("release", c.Label()),
		logging.Int("bytes", len(data)),
	)
	return target, nil
}
