// Package identity derives a canonical VideoIdentity from a video filename
// and its bytes.
//
// Extract is pure and never fails: it recognizes SxxEyy, "Season x Episode y"
// and 1x02 episode markers, a release year, quality/source/codec tags, and
// the release group. Hash computes the OpenSubtitles 64-bit fingerprint from
// the first and last 64 KiB of the file. VideoFile ties both together and
// caches the result for the lifetime of one scan.
package identity
