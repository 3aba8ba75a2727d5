// Package scan enumerates video files in a folder and detects subtitles that
// already sit next to them.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"subseek/internal/identity"
	"subseek/internal/language"
	"subseek/internal/materialize"
)

// Videos lists the video files directly inside dir (no recursion), sorted by
// name, with their subtitle presence detected. A nil extensions slice uses
// identity.VideoExtensions.
func Videos(dir string, extensions []string) ([]*identity.VideoFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}
	if len(extensions) == 0 {
		extensions = identity.VideoExtensions
	}
	names := make(map[string]struct{}, len(entries))
	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		names[strings.ToLower(name)] = struct{}{}
		if strings.HasPrefix(name, ".") {
			continue
		}
		if identity.IsVideoExtension(filepath.Ext(name), extensions) {
			videos = append(videos, name)
		}
	}
	sort.Strings(videos)

	out := make([]*identity.VideoFile, 0, len(videos))
	for _, name := range videos {
		path := filepath.Join(dir, name)
		out = append(out, identity.NewVideoFile(path, hasSubtitleIn(names, name)))
	}
	return out, nil
}

// HasSubtitle reports whether a subtitle exists for videoPath as
// `<stem><ext>` or `<stem>.<lang><ext>` for any supported language suffix.
func HasSubtitle(videoPath string) bool {
	for _, candidate := range SubtitleCandidates(videoPath) {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// SubtitleCandidates lists every sibling path HasSubtitle checks.
func SubtitleCandidates(videoPath string) []string {
	dir := filepath.Dir(videoPath)
	out := make([]string, 0, len(materialize.SubtitleExtensions)*(1+len(language.AllFileSuffixes())))
	for _, name := range subtitleNames(filepath.Base(videoPath)) {
		out = append(out, filepath.Join(dir, name))
	}
	return out
}

func subtitleNames(videoName string) []string {
	stem := strings.TrimSuffix(videoName, filepath.Ext(videoName))
	suffixes := language.AllFileSuffixes()
	names := make([]string, 0, len(materialize.SubtitleExtensions)*(1+len(suffixes)))
	for _, ext := range materialize.SubtitleExtensions {
		names = append(names, stem+ext)
		for _, suffix := range suffixes {
			names = append(names, stem+"."+suffix+ext)
		}
	}
	return names
}

// hasSubtitleIn checks a lowercased directory listing instead of stat-ing
// each candidate name.
func hasSubtitleIn(listing map[string]struct{}, videoName string) bool {
	for _, name := range subtitleNames(videoName) {
		if _, ok := listing[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}
