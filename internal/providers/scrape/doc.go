// Package scrape implements the HTML subtitle sites aggregated by the
// fallback provider. Each source locates result pages, parses subtitle rows
// with goquery, and downloads raw payloads (often zip archives) for the
// materialize stage to unpack.
package scrape
