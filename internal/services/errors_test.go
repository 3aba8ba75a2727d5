package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"subseek/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrDownload, "materialize", "fetch", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"materialize", "fetch", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestFailureKindMapping(t *testing.T) {
	notFound := services.Wrap(services.ErrNotFound, "resolver", "resolve", "nothing acceptable", nil)
	if kind := services.FailureKind(notFound); kind != services.KindNotFound {
		t.Fatalf("expected not_found, got %s", kind)
	}
	wrapped := fmt.Errorf("outer: %w", services.Wrap(services.ErrDownload, "materialize", "write", "disk full", errors.New("io")))
	if kind := services.FailureKind(wrapped); kind != services.KindError {
		t.Fatalf("expected error kind, got %s", kind)
	}
	if kind := services.FailureKind(nil); kind != services.KindDownloaded {
		t.Fatalf("expected downloaded for nil error, got %s", kind)
	}
}
