package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const testSRT = "1\n00:00:01,000 --> 00:00:02,500\nHola mundo\n\n2\n00:00:03,000 --> 00:00:04,000\nAdios\n"

type cliTestEnv struct {
	configPath string
	mediaDir   string
	baseDir    string
	server     *httptest.Server
	downloads  atomic.Int32
}

// setupCLITestEnv writes a config pointing the primary provider at a fake
// OpenSubtitles API that knows one release, and disables the fallback.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	mediaDir := filepath.Join(base, "media")
	for _, dir := range []string{homeDir, mediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENSUBTITLES_API_KEY", "")
	t.Setenv("OPENSUBTITLES_USER_TOKEN", "")
	t.Setenv("SUBSEEK_LANGUAGE", "")
	t.Setenv("NO_COLOR", "1")

	env := &cliTestEnv{baseDir: base, mediaDir: mediaDir}
	env.server = httptest.NewServer(http.HandlerFunc(env.serveAPI))
	t.Cleanup(env.server.Close)

	env.configPath = filepath.Join(base, "config.toml")
	writeTestConfig(t, env.configPath, base, env.server.URL)
	return env
}

func (e *cliTestEnv) serveAPI(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Api-Key") != "test-key" && r.URL.Path != "/file" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/subtitles":
		query := strings.ToLower(r.URL.Query().Get("query"))
		var data []map[string]any
		if r.URL.Query().Get("languages") == "es" && strings.Contains(query, "movie") {
			data = append(data, map[string]any{
				"id": "1",
				"attributes": map[string]any{
					"language":        "es",
					"release":         "Movie.2023.1080p.BluRay.x264-GRP",
					"download_count":  1000,
					"moviehash_match": false,
					"feature_details": map[string]any{"feature_type": "Movie", "title": "Movie", "year": 2023},
					"files":           []map[string]any{{"file_id": 42}},
				},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "meta": map[string]any{"total_count": len(data)}})
	case "/download":
		e.downloads.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"link": e.server.URL + "/file", "file_name": "movie.srt"})
	case "/file":
		_, _ = io.WriteString(w, testSRT)
	case "/infos/formats":
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (e *cliTestEnv) touchVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func writeTestConfig(t *testing.T, path, base, apiURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
log_dir = %q
cache_dir = %q
ledger_path = %q

[logging]
level = "error"

[subtitles]
languages = ["es", "en"]
default_language = "es"

[opensubtitles]
api_key = "test-key"
base_url = %q
timeout_seconds = 5

[fallback]
enabled = false

[batch]
workers = 2
record_history = true
`,
		filepath.Join(base, "logs"),
		filepath.Join(base, "cache"),
		filepath.Join(base, "data", "history.db"),
		apiURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
