package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParseAmbiguity = errors.New("parse ambiguity")
	ErrProvider       = errors.New("provider error")
	ErrNotFound       = errors.New("no acceptable match")
	ErrDownload       = errors.New("download error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrTimeout        = errors.New("timeout")
	ErrTransient      = errors.New("transient failure")
)

// Outcome kinds reported per file in batch summaries.
const (
	KindDownloaded = "downloaded"
	KindNotFound   = "not_found"
	KindError      = "error"
	KindSkipped    = "skipped"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps a per-file error to the outcome kind shown to the user.
// Only a missing match is reported as "not found"; everything else is an error.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return KindDownloaded
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
