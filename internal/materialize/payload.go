package materialize

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/asticode/go-astisub"
	"golang.org/x/text/encoding/charmap"
)

// SubtitleExtensions are the payload formats recognized inside archives and
// next to videos.
var SubtitleExtensions = []string{".srt", ".sub", ".ssa", ".ass", ".vtt"}

const maxEntrySize = 8 << 20

var (
	errEmptyPayload = errors.New("payload is empty")
	errNoCues       = errors.New("subtitle has no cues")
)

// IsSubtitleExtension reports whether ext (with dot) is a subtitle format.
func IsSubtitleExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, known := range SubtitleExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// Normalize unpacks archives and converts the payload to UTF-8 SRT. A payload
// that already is valid UTF-8 SRT is returned unchanged.
func Normalize(payload []byte) ([]byte, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errEmptyPayload
	}
	name := ""
	if isZip(payload) {
		entry, data, err := unzipSubtitle(payload)
		if err != nil {
			return nil, err
		}
		name, payload = entry, data
		if len(bytes.TrimSpace(payload)) == 0 {
			return nil, errEmptyPayload
		}
	}
	text := toUTF8(payload)
	ext := strings.ToLower(path.Ext(name))

	subs, err := parse(text, ext)
	if err != nil {
		return nil, err
	}
	if len(subs.Items) == 0 {
		return nil, errNoCues
	}
	if isSRT(text, ext) && utf8.Valid(payload) {
		return payload, nil
	}
	var buf bytes.Buffer
	if err := subs.WriteToSRT(&buf); err != nil {
		return nil, fmt.Errorf("encode srt: %w", err)
	}
	return buf.Bytes(), nil
}

func isZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

// unzipSubtitle picks the first .srt entry, else the first subtitle entry,
// else the first regular file.
func unzipSubtitle(data []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open archive: %w", err)
	}
	var srt, sub, first *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		switch {
		case ext == ".srt" && srt == nil:
			srt = f
		case IsSubtitleExtension(ext) && sub == nil:
			sub = f
		case first == nil:
			first = f
		}
	}
	pick := srt
	if pick == nil {
		pick = sub
	}
	if pick == nil {
		pick = first
	}
	if pick == nil {
		return "", nil, errors.New("archive contains no files")
	}
	rc, err := pick.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", pick.Name, err)
	}
	defer rc.Close()
	out, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", pick.Name, err)
	}
	if len(out) > maxEntrySize {
		return "", nil, fmt.Errorf("%s exceeds %d bytes", pick.Name, maxEntrySize)
	}
	return pick.Name, out, nil
}

// toUTF8 strips a BOM and decodes Windows-1252, the usual encoding of
// Spanish subtitles, when the payload is not valid UTF-8.
func toUTF8(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

func isVTT(text []byte, ext string) bool {
	return ext == ".vtt" || bytes.HasPrefix(bytes.TrimSpace(text), []byte("WEBVTT"))
}

func isSSA(text []byte, ext string) bool {
	return ext == ".ssa" || ext == ".ass" || bytes.HasPrefix(bytes.TrimSpace(text), []byte("[Script Info]"))
}

func isSRT(text []byte, ext string) bool {
	return !isVTT(text, ext) && !isSSA(text, ext)
}

func parse(text []byte, ext string) (*astisub.Subtitles, error) {
	var (
		subs *astisub.Subtitles
		err  error
	)
	switch {
	case isVTT(text, ext):
		subs, err = astisub.ReadFromWebVTT(bytes.NewReader(text))
	case isSSA(text, ext):
		subs, err = astisub.ReadFromSSA(bytes.NewReader(text))
	default:
		subs, err = astisub.ReadFromSRT(bytes.NewReader(text))
	}
	if err != nil {
		return nil, fmt.Errorf("parse subtitle: %w", err)
	}
	return subs, nil
}
