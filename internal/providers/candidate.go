package providers

import (
	"math"
	"sort"
	"strings"
)

// MatchKind records how a candidate was found.
type MatchKind string

const (
	MatchHash MatchKind = "hash"
	MatchName MatchKind = "name"
)

// Candidate is a subtitle search result prior to being fetched.
type Candidate struct {
	// Provider is the id of the adapter that returned the candidate.
	Provider string
	// Source is the backend inside the adapter (e.g. "subdl" for fallback).
	Source   string
	Priority int
	Language string
	// Confidence is the provider-declared match confidence in [0,1].
	Confidence float64
	// Ref is the opaque download reference the provider understands.
	Ref      string
	Release  string
	Tags     map[string]struct{}
	Title    string
	Year     int
	Season   int
	Episode  int
	Episodic bool
	Match    MatchKind
	// Downloads is the provider popularity counter, used only to break ties.
	Downloads int
}

// Key identifies a candidate for de-duplication.
func (c Candidate) Key() string {
	return c.Provider + "|" + c.Source + "|" + c.Ref
}

// TagList returns the candidate tags sorted.
func (c Candidate) TagList() []string {
	out := make([]string, 0, len(c.Tags))
	for tag := range c.Tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Label is a short human-readable description for listings.
func (c Candidate) Label() string {
	if release := strings.TrimSpace(c.Release); release != "" {
		return release
	}
	if title := strings.TrimSpace(c.Title); title != "" {
		return title
	}
	return c.Ref
}

// ClampConfidence bounds v to [0,1].
func ClampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Dedupe drops candidates whose Key was already seen, keeping the first.
func Dedupe(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FilterLanguage keeps candidates in lang and clamps their confidence.
func FilterLanguage(cands []Candidate, lang string) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !strings.EqualFold(c.Language, lang) {
			continue
		}
		c.Confidence = ClampConfidence(c.Confidence)
		out = append(out, c)
	}
	return out
}
