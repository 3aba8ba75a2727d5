package identity

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moistari/rls"
)

// VideoExtensions lists the extensions stripped from filenames and accepted
// by folder scans when no override is configured.
var VideoExtensions = []string{
	".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v", ".flv", ".webm",
	".mpg", ".mpeg", ".ts", ".m2ts",
}

// now is replaced in tests so the accepted year range is fixed.
var now = time.Now

var (
	// Each pattern captures season and episode. The leading group anchors the
	// marker to a separator so "Title_S01E02" and "Title.S01.E02" both match.
	episodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9])s(\d{1,2})[ ._-]?e(\d{1,3})(?:[^0-9]|$)`),
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:season|temporada)[ ._-]*(\d{1,2})[ ._-]*(?:episode|episodio|capitulo|cap|ep)[ ._-]*(\d{1,3})(?:[^0-9]|$)`),
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(\d{1,2})x(\d{1,3})(?:[^0-9]|$)`),
	}
	yearPattern      = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)\d{2})(?:[^0-9]|$)`)
	separatorPattern = regexp.MustCompile(`[\s._-]+`)
)

// Extract parses a video filename (a bare name or a path) into an Identity.
// It never fails; on unrecognizable input the title is the filename stem.
// The returned identity has no Hash; see Hash and VideoFile.
func Extract(filename string) Identity {
	base := filepath.Base(strings.TrimSpace(filename))
	stem := StripVideoExtension(base)
	if strings.TrimSpace(stem) == "" {
		stem = base
	}

	id := Identity{Tags: extractTags(stem)}
	if group := releaseGroup(base); group != "" {
		id.Group = group
		id.Tags[strings.ToLower(group)] = struct{}{}
	}

	consumedStart, consumedEnd := -1, -1
	for _, pattern := range episodePatterns {
		loc := pattern.FindStringSubmatchIndex(stem)
		if loc == nil {
			continue
		}
		season, _ := strconv.Atoi(stem[loc[2]:loc[3]])
		episode, _ := strconv.Atoi(stem[loc[4]:loc[5]])
		id.Season, id.Episode, id.Episodic = season, episode, true
		consumedStart, consumedEnd = loc[0], loc[1]
		id.Title = cleanTitle(stem[:loc[0]])
		break
	}

	if year, start := findYear(stem, consumedStart, consumedEnd); year > 0 {
		id.Year = year
		if !id.Episodic {
			id.QueryTitle = cleanTitle(stem[:start])
		}
	}

	if id.Episodic {
		if id.Title == "" {
			id.Title = fallbackTitle(stem, base)
		}
		id.QueryTitle = id.Title
		return id
	}

	id.Title = fallbackTitle(stem, base)
	if id.QueryTitle == "" {
		id.QueryTitle = titleBeforeTags(stem)
		id.Ambiguous = id.Year == 0
	}
	if id.QueryTitle == "" {
		id.QueryTitle = cleanTitle(stem)
	}
	if id.QueryTitle == "" {
		id.QueryTitle = id.Title
	}
	return id
}

// StripVideoExtension removes a known video extension (case-insensitive).
func StripVideoExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	if IsVideoExtension(ext, VideoExtensions) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// IsVideoExtension reports whether ext is one of allowed (case-insensitive).
func IsVideoExtension(ext string, allowed []string) bool {
	ext = strings.ToLower(ext)
	for _, candidate := range allowed {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// findYear returns the first plausible release year outside the consumed
// episode marker that has some title text before it, and the year's offset.
func findYear(stem string, consumedStart, consumedEnd int) (int, int) {
	maxYear := now().Year() + 1
	offset := 0
	for offset < len(stem) {
		loc := yearPattern.FindStringSubmatchIndex(stem[offset:])
		if loc == nil {
			return 0, -1
		}
		start, end := offset+loc[2], offset+loc[3]
		offset = end
		if consumedStart >= 0 && start < consumedEnd && end > consumedStart {
			continue
		}
		year, _ := strconv.Atoi(stem[start:end])
		if year < 1900 || year > maxYear {
			continue
		}
		// A year at the very start is usually the title itself ("2012.2009.mkv").
		if consumedStart < 0 && cleanTitle(stem[:start]) == "" {
			continue
		}
		return year, start
	}
	return 0, -1
}

func titleBeforeTags(stem string) string {
	tokens := separatorPattern.Split(stem, -1)
	for i, token := range tokens {
		if _, ok := canonicalTag(strings.ToLower(token)); ok && i > 0 {
			return cleanTitle(strings.Join(tokens[:i], " "))
		}
	}
	return ""
}

func cleanTitle(raw string) string {
	cleaned := separatorPattern.ReplaceAllString(raw, " ")
	cleaned = strings.Trim(cleaned, " ([{")
	return strings.TrimSpace(cleaned)
}

func fallbackTitle(stem, base string) string {
	if title := strings.TrimSpace(stem); title != "" {
		return title
	}
	if title := strings.TrimSpace(base); title != "" {
		return title
	}
	return "unknown"
}

// releaseGroup returns the scene group suffix ("-GROUP") when the release
// parser recognizes one. A hyphenated plain title ("Blade-Runner") also parses
// as a group, so the name must carry a resolution, source or codec marker.
func releaseGroup(name string) string {
	release := rls.ParseString(name)
	group := strings.TrimSpace(release.Group)
	if group == "" {
		return ""
	}
	if release.Resolution == "" && release.Source == "" && len(extractTags(StripVideoExtension(name))) == 0 {
		return ""
	}
	return group
}
