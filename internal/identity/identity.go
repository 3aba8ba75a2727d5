package identity

import (
	"fmt"
	"sort"
)

// Identity is the structured description of a video used to query providers.
type Identity struct {
	// Title is never empty. Episodes carry the cleaned series title; files
	// without an episode marker carry the trimmed filename stem.
	Title string
	// QueryTitle is the cleaned title used for provider queries and ranking.
	QueryTitle string
	// Year is zero when absent.
	Year int
	// Season and Episode are only meaningful when Episodic is true.
	Season   int
	Episode  int
	Episodic bool
	// Tags holds lowercase release markers (resolution, source, codec, group).
	Tags  map[string]struct{}
	Group string
	// Hash is the 16-hex-digit content fingerprint, empty when not computable.
	Hash string
	// Ambiguous is set when neither an episode marker nor a year was found
	// and the title fell back to filename heuristics.
	Ambiguous bool
}

// HasHash reports whether a content fingerprint is available.
func (id Identity) HasHash() bool {
	return id.Hash != ""
}

// TagList returns the tags sorted for stable display and logging.
func (id Identity) TagList() []string {
	out := make([]string, 0, len(id.Tags))
	for tag := range id.Tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// EpisodeCode formats the season/episode as S01E02, or "" for movies.
func (id Identity) EpisodeCode() string {
	if !id.Episodic {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", id.Season, id.Episode)
}

func (id Identity) String() string {
	if code := id.EpisodeCode(); code != "" {
		return id.QueryTitle + " " + code
	}
	if id.Year > 0 {
		return fmt.Sprintf("%s (%d)", id.QueryTitle, id.Year)
	}
	return id.QueryTitle
}
