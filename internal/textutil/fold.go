package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// StripDiacritics removes combining marks after canonical decomposition, so
// "Amélie" becomes "Amelie". Input that fails to transform is returned as-is.
func StripDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Fold lowercases text, strips diacritics, and reduces it to space-separated
// alphanumeric words.
func Fold(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// Tokenize splits folded text into lowercase alphanumeric tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(StripDiacritics(text))
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}
