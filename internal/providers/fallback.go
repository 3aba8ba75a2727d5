package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"subseek/internal/identity"
	"subseek/internal/logging"
)

// FallbackID is the provider id of the multi-source fallback adapter.
const FallbackID = "fallback"

// Source is one secondary subtitle site aggregated by Fallback.
type Source interface {
	ID() string
	Search(ctx context.Context, id identity.Identity, lang string) ([]Candidate, error)
	Fetch(ctx context.Context, c Candidate) ([]byte, error)
}

// Fallback aggregates several secondary sources behind one name-search
// provider. A failing source is logged and excluded; the adapter only fails
// when every source fails.
type Fallback struct {
	sources []Source
	logger  *slog.Logger
}

// NewFallback builds a fallback adapter querying sources in the given order.
func NewFallback(logger *slog.Logger, sources ...Source) *Fallback {
	kept := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			kept = append(kept, src)
		}
	}
	return &Fallback{
		sources: kept,
		logger:  logging.NewComponentLogger(logger, "fallback"),
	}
}

func (f *Fallback) ID() string { return FallbackID }

func (f *Fallback) Priority() int { return PriorityFallback }

// Sources lists the configured sub-source ids in query order.
func (f *Fallback) Sources() []string {
	ids := make([]string, 0, len(f.sources))
	for _, src := range f.sources {
		ids = append(ids, src.ID())
	}
	return ids
}

// SearchByName queries every source concurrently. Results keep source order
// so the returned list is deterministic regardless of completion order.
func (f *Fallback) SearchByName(ctx context.Context, id identity.Identity, lang string) ([]Candidate, error) {
	if len(f.sources) == 0 {
		return nil, NewProviderError(FallbackID, "search", ReasonNoSources, errors.New("no fallback sources configured"))
	}

	results := make([][]Candidate, len(f.sources))
	failures := make([]error, len(f.sources))
	var group errgroup.Group
	for i, src := range f.sources {
		group.Go(func() error {
			cands, err := src.Search(ctx, id, lang)
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", src.ID(), err)
				return nil
			}
			results[i] = cands
			return nil
		})
	}
	_ = group.Wait()

	var (
		merged []Candidate
		errs   []error
	)
	for i, src := range f.sources {
		if failures[i] != nil {
			errs = append(errs, failures[i])
			logging.WarnWithContext(logging.WithContext(ctx, f.logger), "fallback source failed", "fallback_source_failed",
				logging.String(logging.FieldProvider, src.ID()),
				logging.Error(failures[i]),
				logging.String(logging.FieldImpact, "source excluded from this search"),
				logging.String(logging.FieldErrorHint, "check the source base URL and network connectivity"),
			)
			continue
		}
		for _, c := range results[i] {
			c.Provider = FallbackID
			c.Source = src.ID()
			c.Priority = PriorityFallback
			if c.Match == "" {
				c.Match = MatchName
			}
			merged = append(merged, c)
		}
	}
	if len(errs) == len(f.sources) {
		return nil, NewProviderError(FallbackID, "search", reasonFor(errs), errors.Join(errs...))
	}

	merged = Dedupe(FilterLanguage(merged, lang))
	f.logger.Debug("fallback search complete",
		logging.Int("candidates", len(merged)),
		logging.Int("failed_sources", len(errs)),
	)
	return merged, nil
}

// Fetch downloads a candidate through the source that produced it.
func (f *Fallback) Fetch(ctx context.Context, c Candidate) ([]byte, error) {
	for _, src := range f.sources {
		if src.ID() != c.Source {
			continue
		}
		data, err := src.Fetch(ctx, c)
		if err != nil {
			return nil, NewProviderError(FallbackID, "fetch "+c.Source, "", err)
		}
		return data, nil
	}
	return nil, NewProviderError(FallbackID, "fetch", ReasonFailed, fmt.Errorf("unknown source %q", c.Source))
}

func reasonFor(errs []error) string {
	for _, err := range errs {
		if !errors.Is(err, context.DeadlineExceeded) {
			return ReasonUnavailable
		}
	}
	return ReasonTimeout
}
