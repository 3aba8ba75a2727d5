package textutil

import (
	"math"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Amélie", "amelie"},
		{"  The.Office_US-  ", "the office us"},
		{"Niño & Señor", "nino senor"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"año", "ano", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Levenshtein(tt.b, tt.a); got != tt.want {
			t.Errorf("Levenshtein not symmetric for %q, %q", tt.a, tt.b)
		}
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("The Office", "the.office"); got != 1 {
		t.Errorf("expected identical folded titles to score 1, got %v", got)
	}
	if got := TitleSimilarity("Amélie", "Amelie"); got != 1 {
		t.Errorf("expected diacritics to be ignored, got %v", got)
	}
	if got := TitleSimilarity("", "Movie"); got != 0 {
		t.Errorf("expected empty title to score 0, got %v", got)
	}
	got := TitleSimilarity("Breaking Bad", "Breaking Badly")
	if got <= 0.8 || got >= 1 {
		t.Errorf("expected close titles to score in (0.8,1), got %v", got)
	}
	if got := TitleSimilarity("abc", "xyz"); got != 0 {
		t.Errorf("expected disjoint titles to score 0, got %v", got)
	}
}

func set(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]struct{}
		want float64
	}{
		{"both empty", set(), set(), 0},
		{"one empty", set("1080p"), set(), 0},
		{"identical", set("1080p", "bluray"), set("bluray", "1080p"), 1},
		{"half", set("1080p", "bluray"), set("1080p", "web"), 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("The Lord of the Rings: The Return"); got != "the-lord-of-the-rings-the-return" {
		t.Errorf("Slug = %q", got)
	}
}
