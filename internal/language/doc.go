// Package language normalizes subtitle language codes.
//
// subseek only fetches Spanish and English subtitles, so the table here is
// deliberately small. Codes arrive as ISO 639-1 ("es"), ISO 639-2 ("spa"),
// provider words ("spanish", "español") or flag CSS classes scraped from
// HTML, and are folded to the two-letter form used in output filenames.
package language
