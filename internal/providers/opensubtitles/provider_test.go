package opensubtitles

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"subseek/internal/identity"
	"subseek/internal/providers"
	"subseek/internal/services"
)

func subtitleEntry(fileID int64, lang, release string, downloads int, hashMatch bool) map[string]any {
	return map[string]any{
		"id": "x",
		"attributes": map[string]any{
			"language":        lang,
			"release":         release,
			"download_count":  downloads,
			"moviehash_match": hashMatch,
			"feature_details": map[string]any{"feature_type": "Movie", "title": "Movie", "year": 2023},
			"files":           []map[string]any{{"file_id": fileID}},
		},
	}
}

func serveSearch(t *testing.T, entries ...map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": entries, "meta": map[string]any{"total_count": len(entries)}})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProviderHashSearchConfidence(t *testing.T) {
	server := serveSearch(t,
		subtitleEntry(1, "es", "Movie.2023.720p.BluRay", 10, true),
		subtitleEntry(2, "es", "Movie.2023.1080p.WEB-DL", 500, false),
		subtitleEntry(3, "en", "Movie.2023.720p.BluRay", 10, true),
	)
	p := NewProvider(newTestClient(t, server.URL), nil, nil)

	cands, err := p.SearchByHash(context.Background(), "8e245d9679d31e12", "es")
	if err != nil {
		t.Fatalf("SearchByHash returned error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected other languages to be dropped, got %d", len(cands))
	}
	if cands[0].Confidence != HashMatchConfidence || cands[1].Confidence != HashUnflaggedConfidence {
		t.Fatalf("unexpected confidences: %v %v", cands[0].Confidence, cands[1].Confidence)
	}
	for _, c := range cands {
		if c.Match != providers.MatchHash || c.Priority != providers.PriorityPrimary || c.Provider != ProviderID {
			t.Fatalf("unexpected candidate metadata: %+v", c)
		}
	}
	if _, ok := cands[0].Tags["bluray"]; !ok {
		t.Fatalf("expected release tags, got %v", cands[0].TagList())
	}
}

func TestProviderNameSearchPopularityBounds(t *testing.T) {
	server := serveSearch(t,
		subtitleEntry(1, "en", "a", 0, false),
		subtitleEntry(2, "en", "b", 10_000_000, false),
	)
	p := NewProvider(newTestClient(t, server.URL), nil, nil)

	cands, err := p.SearchByName(context.Background(), identity.Extract("Movie.2023.mkv"), "en")
	if err != nil {
		t.Fatalf("SearchByName returned error: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Confidence != minNameConfidence || cands[1].Confidence != maxNameConfidence {
		t.Fatalf("unexpected confidences: %v %v", cands[0].Confidence, cands[1].Confidence)
	}
}

func TestProviderAuthErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()
	p := NewProvider(newTestClient(t, server.URL), nil, nil)

	_, err := p.SearchByName(context.Background(), identity.Extract("Movie.2023.mkv"), "en")
	var perr *providers.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if perr.Reason != providers.ReasonAuth || !errors.Is(err, services.ErrProvider) {
		t.Fatalf("unexpected provider error: %+v", perr)
	}
}

func TestProviderFetchUsesCache(t *testing.T) {
	var downloads atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			downloads.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"link": server.URL + "/file"})
		case "/file":
			_, _ = io.WriteString(w, "payload")
		}
	}))
	defer server.Close()

	cache, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProvider(newTestClient(t, server.URL), cache, nil)
	cand := providers.Candidate{Provider: ProviderID, Ref: "555", Language: "en"}

	for range 2 {
		data, err := p.Fetch(context.Background(), cand)
		if err != nil {
			t.Fatalf("Fetch returned error: %v", err)
		}
		if string(data) != "payload" {
			t.Fatalf("unexpected payload %q", data)
		}
	}
	if downloads.Load() != 1 {
		t.Fatalf("expected one download negotiation, got %d", downloads.Load())
	}
}

func TestProviderFetchRejectsBadRef(t *testing.T) {
	p := NewProvider(newTestClient(t, "http://127.0.0.1:1"), nil, nil)
	if _, err := p.Fetch(context.Background(), providers.Candidate{Ref: "abc"}); err == nil {
		t.Fatal("expected error for non-numeric ref")
	}
}
