package resolver

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"subseek/internal/identity"
	"subseek/internal/providers"
	"subseek/internal/services"
)

type fakeProvider struct {
	id        string
	priority  int
	byName    []providers.Candidate
	nameErr   error
	nameCalls atomic.Int32
	block     bool
}

func (f *fakeProvider) ID() string    { return f.id }
func (f *fakeProvider) Priority() int { return f.priority }

func (f *fakeProvider) SearchByName(ctx context.Context, _ identity.Identity, _ string) ([]providers.Candidate, error) {
	f.nameCalls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.byName, f.nameErr
}

func (f *fakeProvider) Fetch(context.Context, providers.Candidate) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type fakeHashProvider struct {
	fakeProvider
	byHash    []providers.Candidate
	hashErr   error
	hashCalls atomic.Int32
}

func (f *fakeHashProvider) SearchByHash(context.Context, string, string) ([]providers.Candidate, error) {
	f.hashCalls.Add(1)
	return f.byHash, f.hashErr
}

func movieIdentity() identity.Identity {
	id := identity.Extract("Movie.2023.720p.BluRay.mp4")
	id.Hash = "8e245d9679d31e12"
	return id
}

func TestHashMatchShortCircuits(t *testing.T) {
	primary := &fakeHashProvider{
		fakeProvider: fakeProvider{id: "opensubtitles", byName: []providers.Candidate{{Ref: "name", Language: "en", Confidence: 0.6}}},
		byHash:       []providers.Candidate{{Provider: "opensubtitles", Ref: "hash", Language: "en", Confidence: 0.9, Match: providers.MatchHash}},
	}
	fallback := &fakeProvider{id: "fallback", priority: 1}
	r := New([]providers.Provider{primary, fallback}, Options{})

	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if !out.IsFound() || out.Candidate.Ref != "hash" {
		t.Fatalf("expected hash candidate, got %+v", out)
	}
	if out.Step != "opensubtitles-hash" || out.Score < 0.9 {
		t.Fatalf("unexpected step/score: %s %v", out.Step, out.Score)
	}
	if primary.nameCalls.Load() != 0 || fallback.nameCalls.Load() != 0 {
		t.Fatal("name steps must not run after an accepted hash match")
	}
}

func TestFallbackAfterErrorAndEmpty(t *testing.T) {
	primary := &fakeHashProvider{
		fakeProvider: fakeProvider{id: "opensubtitles"},
		hashErr:      providers.NewProviderError("opensubtitles", "search by hash", providers.ReasonUnavailable, errors.New("503")),
	}
	fallback := &fakeProvider{id: "fallback", priority: 1, byName: []providers.Candidate{
		{Provider: "fallback", Source: "subdl", Ref: "fb", Language: "en", Confidence: 0.4, Priority: 1, Title: "Something Else"},
	}}
	r := New([]providers.Provider{primary, fallback}, Options{})

	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if !out.IsFound() || out.Candidate.Ref != "fb" {
		t.Fatalf("expected fallback candidate, got %+v", out)
	}
	if out.Score < 0.3 {
		t.Fatalf("expected acceptance of at least 0.3, got %v", out.Score)
	}
	if primary.hashCalls.Load() != 1 || primary.nameCalls.Load() != 1 || fallback.nameCalls.Load() != 1 {
		t.Fatal("expected each step to run once")
	}
	if len(out.Errors) != 1 || out.Errors[0].Reason != providers.ReasonUnavailable {
		t.Fatalf("expected the hash failure to be recorded, got %+v", out.Errors)
	}
}

func TestPriorityIsAuthoritative(t *testing.T) {
	primary := &fakeProvider{id: "opensubtitles", byName: []providers.Candidate{
		{Ref: "p", Language: "en", Confidence: 0.35, Title: "Movie"},
	}}
	fallback := &fakeProvider{id: "fallback", priority: 1, byName: []providers.Candidate{
		{Ref: "f", Language: "en", Confidence: 1, Title: "Movie"},
	}}
	r := New([]providers.Provider{primary, fallback}, Options{})

	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if out.Candidate.Ref != "p" {
		t.Fatalf("expected first acceptable provider to win, got %s", out.Candidate.Ref)
	}
	if fallback.nameCalls.Load() != 0 {
		t.Fatal("later providers must not be consulted once a step succeeds")
	}
}

func TestBelowThresholdContinues(t *testing.T) {
	primary := &fakeProvider{id: "opensubtitles", byName: []providers.Candidate{
		{Ref: "weak", Language: "en", Confidence: 0.1, Title: "Unrelated Words"},
	}}
	r := New([]providers.Provider{primary}, Options{})
	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if out.Status != providers.StatusNotFound {
		t.Fatalf("expected NotFound, got %+v", out)
	}
}

func TestPopularUnrelatedNameResultRejected(t *testing.T) {
	primary := &fakeProvider{id: "opensubtitles", byName: []providers.Candidate{{
		Ref:        "doc",
		Language:   "en",
		Title:      "Completely Unrelated Documentary",
		Release:    "Other.Doc.1999.DVDRip.XviD",
		Confidence: 0.37,
		Downloads:  500,
	}}}
	r := New([]providers.Provider{primary}, Options{})
	out := r.Resolve(context.Background(), identity.Extract("Movie.2023.720p.BluRay.mp4"), "en")
	if out.Status != providers.StatusNotFound {
		t.Fatalf("expected NotFound, got %s with score %v", out.Status, out.Score)
	}
}

func TestAllStepsFailingIsNotFoundWithErrors(t *testing.T) {
	primary := &fakeHashProvider{
		fakeProvider: fakeProvider{id: "opensubtitles", nameErr: errors.New("boom")},
		hashErr:      errors.New("bang"),
	}
	r := New([]providers.Provider{primary}, Options{})
	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if out.Status != providers.StatusNotFound {
		t.Fatalf("expected NotFound, got %s", out.Status)
	}
	if len(out.Errors) != 2 || out.LastError() == nil || out.LastError().Op != "opensubtitles-name" {
		t.Fatalf("expected both failures recorded, got %+v", out.Errors)
	}
}

func TestStepTimeout(t *testing.T) {
	slow := &fakeProvider{id: "opensubtitles", block: true}
	r := New([]providers.Provider{slow}, Options{Timeouts: map[string]time.Duration{"opensubtitles": 20 * time.Millisecond}})
	out := r.Resolve(context.Background(), movieIdentity(), "en")
	if out.LastError() == nil || out.LastError().Reason != providers.ReasonTimeout {
		t.Fatalf("expected timeout error, got %+v", out.Errors)
	}
	if !errors.Is(out.LastError(), services.ErrTimeout) {
		t.Fatalf("expected timeout marker on %v", out.LastError())
	}
}

func TestStepsOrderAndHashAvailability(t *testing.T) {
	primary := &fakeHashProvider{fakeProvider: fakeProvider{id: "opensubtitles"}}
	fallback := &fakeProvider{id: "fallback", priority: 1}
	r := New([]providers.Provider{primary, fallback}, Options{})

	withHash := Names(r.Steps(movieIdentity()))
	if !slices.Equal(withHash, []string{"opensubtitles-hash", "opensubtitles-name", "fallback-name"}) {
		t.Fatalf("unexpected chain %v", withHash)
	}
	noHash := Names(r.Steps(identity.Extract("Movie.2023.mp4")))
	if !slices.Equal(noHash, []string{"opensubtitles-name", "fallback-name"}) {
		t.Fatalf("unexpected chain without hash %v", noHash)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	cands := []providers.Candidate{
		{Ref: "a", Language: "en", Confidence: 0.5, Title: "Movie", Downloads: 3},
		{Ref: "b", Language: "en", Confidence: 0.5, Title: "Movie", Downloads: 3},
		{Ref: "c", Language: "en", Confidence: 0.5, Title: "Movie", Downloads: 3},
	}
	primary := &fakeProvider{id: "opensubtitles", byName: cands}
	r := New([]providers.Provider{primary}, Options{})

	first := r.Resolve(context.Background(), movieIdentity(), "en")
	for range 10 {
		again := r.Resolve(context.Background(), movieIdentity(), "en")
		if again.Candidate.Key() != first.Candidate.Key() || again.Score != first.Score {
			t.Fatalf("non-deterministic outcome: %s vs %s", again.Candidate.Key(), first.Candidate.Key())
		}
	}
}

func TestCandidatesMergesAllSteps(t *testing.T) {
	primary := &fakeProvider{id: "opensubtitles", byName: []providers.Candidate{{Ref: "p", Language: "en", Title: "Movie"}}}
	broken := &fakeProvider{id: "fallback", priority: 1, nameErr: errors.New("down")}
	r := New([]providers.Provider{primary, broken}, Options{})

	scored, errs := r.Candidates(context.Background(), movieIdentity(), "en")
	if len(scored) != 1 || scored[0].Candidate.Provider != "opensubtitles" {
		t.Fatalf("unexpected candidates %+v", scored)
	}
	if len(errs) != 1 || errs[0].Provider != "fallback" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestCancelledContextStops(t *testing.T) {
	primary := &fakeProvider{id: "opensubtitles"}
	r := New([]providers.Provider{primary}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := r.Resolve(ctx, movieIdentity(), "en")
	if out.IsFound() || primary.nameCalls.Load() != 0 {
		t.Fatal("expected no provider calls after cancellation")
	}
}
