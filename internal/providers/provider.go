package providers

import (
	"context"
	"fmt"
	"strings"

	"subseek/internal/identity"
)

// Source priorities. Lower values are consulted first and win ranking ties.
const (
	PriorityPrimary  = 0
	PriorityFallback = 1
)

// Provider is one subtitle backend exposed through a uniform capability set.
type Provider interface {
	ID() string
	Priority() int
	SearchByName(ctx context.Context, id identity.Identity, lang string) ([]Candidate, error)
	Fetch(ctx context.Context, c Candidate) ([]byte, error)
}

// HashSearcher is implemented by providers that index subtitles by content hash.
type HashSearcher interface {
	SearchByHash(ctx context.Context, hash string, lang string) ([]Candidate, error)
}

// Registry is a read-only lookup of providers by id.
type Registry struct {
	byID map[string]Provider
}

// NewRegistry indexes providers by lowercase id, rejecting duplicates.
func NewRegistry(providers ...Provider) (Registry, error) {
	byID := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider is nil")
		}
		id := strings.ToLower(strings.TrimSpace(p.ID()))
		if id == "" {
			return Registry{}, fmt.Errorf("provider id is empty")
		}
		if _, ok := byID[id]; ok {
			return Registry{}, fmt.Errorf("duplicate provider %q", id)
		}
		byID[id] = p
	}
	return Registry{byID: byID}, nil
}

// Get returns the provider registered under id.
func (r Registry) Get(id string) (Provider, bool) {
	if r.byID == nil {
		return nil, false
	}
	p, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// Ordered returns registered providers following order. Ids that are not
// registered (disabled backends) are skipped.
func (r Registry) Ordered(order []string) []Provider {
	out := make([]Provider, 0, len(order))
	for _, id := range order {
		if p, ok := r.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the provider for a candidate produced by one of the
// registered providers.
func (r Registry) Lookup(c Candidate) (Provider, error) {
	p, ok := r.Get(c.Provider)
	if !ok {
		return nil, fmt.Errorf("no provider registered for %q", c.Provider)
	}
	return p, nil
}
