package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subseek/internal/services"
)

// Status is the kind of a SearchOutcome.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

// Outcome is the result of one provider attempt or of a whole resolution.
type Outcome struct {
	Status    Status
	Candidate Candidate
	// Score is the acceptance score of Candidate when Found.
	Score float64
	// Step names the chain step that produced the outcome.
	Step string
	// Err is the last provider failure of a NotFound resolution.
	Err *ProviderError
	// Errors collects provider failures observed while resolving. They are
	// informational; a resolution that saw errors can still be Found.
	Errors []*ProviderError
}

// Found builds a Found outcome.
func Found(c Candidate, score float64, step string) Outcome {
	return Outcome{Status: StatusFound, Candidate: c, Score: score, Step: step}
}

// NotFound builds a NotFound outcome.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// IsFound reports whether the outcome carries an accepted candidate.
func (o Outcome) IsFound() bool {
	return o.Status == StatusFound
}

// LastError returns the most recent provider failure, or nil.
func (o Outcome) LastError() *ProviderError {
	if len(o.Errors) == 0 {
		return o.Err
	}
	return o.Errors[len(o.Errors)-1]
}

// Failure reasons reported by adapters.
const (
	ReasonAuth        = "auth"
	ReasonQuota       = "quota"
	ReasonTimeout     = "timeout"
	ReasonUnavailable = "unavailable"
	ReasonBadResponse = "bad_response"
	ReasonNoSources   = "no_sources"
	ReasonFailed      = "failed"
)

// ProviderError is a network, auth, or quota failure from one adapter. It
// never escalates past the resolver.
type ProviderError struct {
	Provider string
	Op       string
	Reason   string
	Err      error
}

// NewProviderError wraps err, classifying timeouts when no reason is given.
func NewProviderError(provider, op, reason string, err error) *ProviderError {
	if reason == "" {
		reason = ReasonFailed
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
	}
	return &ProviderError{Provider: provider, Op: op, Reason: reason, Err: err}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	parts := []string{"provider " + e.Provider}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, e.Reason)
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the markers and the underlying cause to errors.Is/As.
// Timeouts also match services.ErrTimeout.
func (e *ProviderError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := []error{services.ErrProvider}
	if e.Reason == ReasonTimeout {
		out = append(out, services.ErrTimeout)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// AsProviderError converts err into a ProviderError attributed to provider
// when it is not one already.
func AsProviderError(provider, op string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return NewProviderError(provider, op, "", err)
}
