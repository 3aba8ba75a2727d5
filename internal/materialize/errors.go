package materialize

import (
	"errors"
	"fmt"

	"subseek/internal/services"
)

// ErrSubtitleExists is returned when the target subtitle already exists and
// overwriting is disabled.
var ErrSubtitleExists = errors.New("subtitle already exists")

// DownloadError is a fetch, decode, or write failure for one candidate.
type DownloadError struct {
	Provider string
	Ref      string
	Path     string
	Op       string
	Err      error
}

func (e *DownloadError) Error() string {
	if e == nil {
		return "download error"
	}
	target := e.Path
	if target == "" {
		target = e.Ref
	}
	return fmt.Sprintf("download %s from %s: %s: %v", target, e.Provider, e.Op, e.Err)
}

// Unwrap exposes the ErrDownload marker and the cause.
func (e *DownloadError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{services.ErrDownload, e.Err}
}

// AsDownloadError extracts a DownloadError from err.
func AsDownloadError(err error) (*DownloadError, bool) {
	var derr *DownloadError
	ok := errors.As(err, &derr)
	return derr, ok
}
