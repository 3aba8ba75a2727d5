package textutil

import "strings"

// Slug converts a title to a lowercase URL path segment ("The Office" -> "the-office").
func Slug(title string) string {
	return strings.Join(Tokenize(title), "-")
}
