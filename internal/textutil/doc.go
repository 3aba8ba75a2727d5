// Package textutil provides text folding, similarity metrics, and filename
// sanitization.
//
// The primary use cases are:
//   - Folding titles to a comparable form (diacritics stripped, lowercase, alphanumeric words)
//   - Edit-distance similarity between folded titles
//   - Jaccard overlap between release tag sets
//   - Sanitizing filenames and URL slugs
package textutil
