// Package ranking scores subtitle candidates against a video identity and
// orders them deterministically.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"subseek/internal/identity"
	"subseek/internal/providers"
	"subseek/internal/textutil"
)

// Weights of the three match heuristics. For movies the episode weight is
// moved onto title similarity.
type Weights struct {
	Tags    float64
	Episode float64
	Title   float64
}

// DefaultWeights returns 0.5 tags, 0.3 episode, 0.2 title.
func DefaultWeights() Weights {
	return Weights{Tags: 0.5, Episode: 0.3, Title: 0.2}
}

// Scored is a ranked candidate.
type Scored struct {
	Candidate providers.Candidate
	// Score is the weighted heuristic score in [0,1].
	Score float64
	// Acceptance is compared against the resolver thresholds. Hash matches
	// and fallback sources may lift it to their declared confidence; primary
	// name matches are accepted on Score alone.
	Acceptance float64
	TagScore   float64
	Episode    bool
	TitleScore float64
}

// Ranker scores candidates. A zero Language keeps candidates of any language.
type Ranker struct {
	Weights  Weights
	Language string
}

// Rank orders cands with default weights, highest first.
func Rank(cands []providers.Candidate, id identity.Identity) []Scored {
	return Ranker{Weights: DefaultWeights()}.Rank(cands, id)
}

// Rank drops other languages and duplicates, scores the rest, and sorts them
// by score, confidence, source priority, downloads, provider id and ref.
// Equal inputs always produce the same order.
func (r Ranker) Rank(cands []providers.Candidate, id identity.Identity) []Scored {
	if r.Weights == (Weights{}) {
		r.Weights = DefaultWeights()
	}
	filtered := cands
	if r.Language != "" {
		filtered = providers.FilterLanguage(cands, r.Language)
	}
	filtered = providers.Dedupe(filtered)

	out := make([]Scored, 0, len(filtered))
	for _, c := range filtered {
		c.Confidence = providers.ClampConfidence(c.Confidence)
		out = append(out, r.score(c, id))
	}
	slices.SortStableFunc(out, compareScored)
	return out
}

func (r Ranker) score(c providers.Candidate, id identity.Identity) Scored {
	s := Scored{Candidate: c}
	s.TagScore = textutil.Jaccard(id.Tags, c.Tags)
	s.TitleScore = textutil.TitleSimilarity(queryTitle(id), candidateTitle(c))

	titleWeight := r.Weights.Title
	if id.Episodic {
		s.Episode = c.Season == id.Season && c.Episode == id.Episode && c.Season > 0
	} else {
		titleWeight += r.Weights.Episode
	}
	s.Score = r.Weights.Tags*s.TagScore + titleWeight*s.TitleScore
	if s.Episode {
		s.Score += r.Weights.Episode
	}
	s.Score = providers.ClampConfidence(s.Score)
	s.Acceptance = s.Score
	if vouched(c) {
		s.Acceptance = max(s.Score, c.Confidence)
	}
	return s
}

// vouched reports whether the candidate's declared confidence reflects a
// match rather than popularity.
func vouched(c providers.Candidate) bool {
	return c.Match == providers.MatchHash || c.Priority >= providers.PriorityFallback
}

func queryTitle(id identity.Identity) string {
	if id.QueryTitle != "" {
		return id.QueryTitle
	}
	return id.Title
}

// candidateTitle prefers the provider's feature title and falls back to the
// title portion of the release name.
func candidateTitle(c providers.Candidate) string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	if c.Release == "" {
		return ""
	}
	return identity.Extract(c.Release).QueryTitle
}

func compareScored(a, b Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Candidate.Confidence, a.Candidate.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Candidate.Priority, b.Candidate.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Candidate.Downloads, a.Candidate.Downloads); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Candidate.Provider, b.Candidate.Provider); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Candidate.Source, b.Candidate.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.Candidate.Ref, b.Candidate.Ref)
}
