// Package providers defines the uniform search/fetch capability every
// subtitle backend implements, the Candidate and Outcome values that flow
// through resolution, and the Fallback adapter that fans a name search out
// over several secondary sources.
//
// The resolver depends only on the Provider and HashSearcher interfaces.
// Concrete backends live in subpackages (opensubtitles, scrape).
package providers
