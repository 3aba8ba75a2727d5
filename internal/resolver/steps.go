package resolver

import (
	"context"

	"subseek/internal/identity"
	"subseek/internal/providers"
)

// AttemptFunc runs one step against a provider.
type AttemptFunc func(ctx context.Context, id identity.Identity, lang string) ([]providers.Candidate, error)

// Step is one link of the fallback chain.
type Step struct {
	Name     string
	Kind     providers.MatchKind
	Provider string
	Priority int
	Attempt  AttemptFunc
}

// BuildSteps returns the chain for id over the ordered providers. Hash steps
// are only included when id carries a hash.
func BuildSteps(ordered []providers.Provider, id identity.Identity) []Step {
	steps := make([]Step, 0, len(ordered)*2)
	for _, p := range ordered {
		if p == nil {
			continue
		}
		if hs, ok := p.(providers.HashSearcher); ok && id.HasHash() {
			steps = append(steps, Step{
				Name:     p.ID() + "-hash",
				Kind:     providers.MatchHash,
				Provider: p.ID(),
				Priority: p.Priority(),
				Attempt: func(ctx context.Context, id identity.Identity, lang string) ([]providers.Candidate, error) {
					return hs.SearchByHash(ctx, id.Hash, lang)
				},
			})
		}
		steps = append(steps, Step{
			Name:     p.ID() + "-name",
			Kind:     providers.MatchName,
			Provider: p.ID(),
			Priority: p.Priority(),
			Attempt:  p.SearchByName,
		})
	}
	return steps
}

// Names lists step names in chain order.
func Names(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Name)
	}
	return out
}
