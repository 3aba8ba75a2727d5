package identity

import (
	"regexp"
	"strings"
)

var tagSplitPattern = regexp.MustCompile(`[\s._\-\[\]()]+`)

var resolutionPattern = regexp.MustCompile(`^\d{3,4}[pi]$`)

// knownTags maps lowercase tokens to their canonical tag.
var knownTags = map[string]string{
	// resolution
	"4k": "2160p", "uhd": "2160p",
	// source
	"bluray": "bluray", "bdrip": "bdrip", "brrip": "brrip", "remux": "remux",
	"webdl": "webdl", "webrip": "webrip", "web": "web", "hdtv": "hdtv",
	"hdrip": "hdrip", "dvdrip": "dvdrip", "dvd": "dvd", "dvdscr": "dvdscr",
	"amzn": "amzn", "nf": "nf", "dsnp": "dsnp", "hmax": "hmax", "atvp": "atvp",
	// codec
	"x264": "x264", "x265": "x265", "h264": "x264", "h265": "x265",
	"avc": "x264", "hevc": "x265", "xvid": "xvid", "divx": "divx", "av1": "av1",
	"10bit": "10bit",
	// audio
	"aac": "aac", "ac3": "ac3", "eac3": "eac3", "ddp": "ddp", "dts": "dts",
	"truehd": "truehd", "atmos": "atmos", "flac": "flac", "opus": "opus",
	// hdr
	"hdr": "hdr", "hdr10": "hdr10", "dv": "dv", "dovi": "dv", "sdr": "sdr",
	// edition
	"proper": "proper", "repack": "repack", "extended": "extended",
	"remastered": "remastered", "unrated": "unrated",
}

// pairTags joins markers that commonly arrive split by a separator
// ("WEB-DL", "Blu-ray", "H.264").
var pairTags = map[string]string{
	"webdl": "webdl", "bluray": "bluray", "h264": "x264", "h265": "x265",
	"dtshd": "dts",
}

func canonicalTag(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if resolutionPattern.MatchString(token) {
		return token, true
	}
	tag, ok := knownTags[token]
	return tag, ok
}

// extractTags returns the set of release markers found anywhere in stem.
func extractTags(stem string) map[string]struct{} {
	tags := make(map[string]struct{})
	tokens := tagSplitPattern.Split(strings.ToLower(stem), -1)
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if tag, ok := pairTags[tokens[i]+tokens[i+1]]; ok {
				tags[tag] = struct{}{}
				i++
				continue
			}
		}
		if tag, ok := canonicalTag(strings.TrimSuffix(tokens[i], "+")); ok {
			tags[tag] = struct{}{}
		}
	}
	return tags
}

// NormalizeTags folds free-form release names reported by providers into the
// same canonical tag set used for local files.
func NormalizeTags(release string) map[string]struct{} {
	tags := extractTags(release)
	if group := releaseGroup(release); group != "" {
		tags[strings.ToLower(group)] = struct{}{}
	}
	return tags
}
