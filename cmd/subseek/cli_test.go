package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subseek/internal/batch"
	"subseek/internal/fileutil"
	"subseek/internal/identity"
	"subseek/internal/materialize"
	"subseek/internal/providers"
	"subseek/internal/services"
)

func TestFetchWritesSubtitleAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	video := env.touchVideo(t, "Movie.2023.1080p.BluRay.x264-GRP.mkv")

	out, _, err := runCLI(t, []string{"fetch", video}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v\n%s", err, out)
	}
	requireContains(t, out, "downloaded")
	requireContains(t, out, "Movie.2023.1080p.BluRay.x264-GRP.es.srt")

	written, err := os.ReadFile(filepath.Join(env.mediaDir, "Movie.2023.1080p.BluRay.x264-GRP.es.srt"))
	if err != nil {
		t.Fatalf("expected subtitle on disk: %v", err)
	}
	if !strings.Contains(string(written), "Hola mundo") {
		t.Fatalf("unexpected subtitle content:\n%s", written)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []struct {
		ID     string `json:"id"`
		Counts struct {
			Downloaded int `json:"downloaded"`
		} `json:"counts"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Counts.Downloaded != 1 {
		t.Fatalf("unexpected history: %s", out)
	}

	out, _, err = runCLI(t, []string{"history", runs[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, "opensubtitles-name")

	out, _, err = runCLI(t, []string{"history", "--video", video}, env.configPath)
	if err != nil {
		t.Fatalf("history --video: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "Movie.2023.1080p.BluRay.x264-GRP.mkv")

	out, _, err = runCLI(t, []string{"history", "--recent", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --recent: %v", err)
	}
	var recent []struct {
		RunID string `json:"run_id"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(out), &recent); err != nil {
		t.Fatalf("decode recent: %v\n%s", err, out)
	}
	if len(recent) != 1 || recent[0].RunID != runs[0].ID || recent[0].Kind != services.KindDownloaded {
		t.Fatalf("unexpected recent outcomes: %s", out)
	}
}

func TestFetchSkipsExistingSubtitleUnlessForced(t *testing.T) {
	env := setupCLITestEnv(t)
	video := env.touchVideo(t, "Movie.2023.1080p.BluRay.x264-GRP.mkv")
	existing := filepath.Join(env.mediaDir, "Movie.2023.1080p.BluRay.x264-GRP.es.srt")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"fetch", video}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "skipped")
	if env.downloads.Load() != 0 {
		t.Fatal("expected no download for a video that already has a subtitle")
	}

	if _, _, err := runCLI(t, []string{"fetch", "--force", video}, env.configPath); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	data, _ := os.ReadFile(existing)
	if string(data) == "old" {
		t.Fatal("expected --force to replace the subtitle")
	}
}

func TestFetchRejectsUnsupportedLanguage(t *testing.T) {
	env := setupCLITestEnv(t)
	video := env.touchVideo(t, "Movie.2023.mkv")

	_, _, err := runCLI(t, []string{"fetch", "--lang", "fr", video}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchReportsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	video := env.touchVideo(t, "Unknown.Show.S01E01.mkv")

	out, _, err := runCLI(t, []string{"fetch", "--json", video}, env.configPath)
	if err != nil {
		t.Fatalf("not found must not fail the command: %v", err)
	}
	var result struct {
		Counts struct {
			NotFound int `json:"not_found"`
		} `json:"counts"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.Counts.NotFound != 1 {
		t.Fatalf("expected one not found entry: %s", out)
	}
}

func TestBatchProcessesFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touchVideo(t, "Movie.2023.1080p.BluRay.x264-GRP.mkv")
	env.touchVideo(t, "Other.Show.S02E03.mkv")

	out, _, err := runCLI(t, []string{"batch", env.mediaDir}, env.configPath)
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}
	requireContains(t, out, "1 downloaded")
	requireContains(t, out, "1 not found")
}

func TestSearchListsAndSelects(t *testing.T) {
	env := setupCLITestEnv(t)
	video := env.touchVideo(t, "Movie.2023.1080p.BluRay.x264-GRP.mkv")

	out, _, err := runCLI(t, []string{"search", video}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Movie.2023.1080p.BluRay.x264-GRP")
	requireContains(t, out, "[Spanish]")
	requireContains(t, out, "Chain: ")
	requireContains(t, out, "opensubtitles-name")
	requireContains(t, out, "--select")
	if env.downloads.Load() != 0 {
		t.Fatal("listing must not download")
	}

	out, _, err = runCLI(t, []string{"search", "--select", "1", "--json", video}, env.configPath)
	if err != nil {
		t.Fatalf("search --select: %v", err)
	}
	var payload struct {
		Candidates []struct {
			Provider string `json:"provider"`
		} `json:"candidates"`
		Selected string `json:"selected"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(payload.Candidates) != 1 || payload.Selected == "" {
		t.Fatalf("unexpected search payload: %s", out)
	}
	if _, err := os.Stat(payload.Selected); err != nil {
		t.Fatalf("selected subtitle missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"search", "--select", "5", video}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestDoctorPassesAgainstFakeAPI(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor", "--folder", env.mediaDir}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "OpenSubtitles")
	requireContains(t, out, "[OK]")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if err := os.WriteFile(target, []byte("# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--overwrite", "--path", target}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	if data, err := os.ReadFile(target); err != nil || strings.HasPrefix(string(data), "# edited") {
		t.Fatalf("expected sample to replace the edited file: %q %v", data, err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "te****ey")
	if strings.Contains(out, "test-key") {
		t.Fatal("api key must be masked")
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{"": "", "abc": "****", "abcdefgh": "ab****gh"}
	for in, want := range cases {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEntryDetailClassifiesFailures(t *testing.T) {
	video := identity.NewVideoFile("/media/Movie.2023.mkv", false)
	timeout := providers.NewProviderError("opensubtitles", "opensubtitles-name", providers.ReasonTimeout, context.DeadlineExceeded)
	notFound := providers.NotFound()
	notFound.Errors = []*providers.ProviderError{timeout}

	cases := []struct {
		name  string
		entry batch.Entry
		want  string
	}{
		{
			name:  "exists",
			entry: batch.Entry{Video: video, Err: &materialize.DownloadError{Op: "check target", Err: materialize.ErrSubtitleExists}},
			want:  "subtitle exists (use --force)",
		},
		{
			name:  "not a file",
			entry: batch.Entry{Video: video, Err: &materialize.DownloadError{Op: "write", Err: &fileutil.PathTypeConflictError{Path: "/media/Movie.2023.es.srt", Got: "directory"}}},
			want:  "target is not a regular file",
		},
		{
			name:  "decode",
			entry: batch.Entry{Video: video, Err: &materialize.DownloadError{Op: "decode", Err: errors.New("payload is empty")}},
			want:  "decode: payload is empty",
		},
		{
			name: "timeout",
			entry: batch.Entry{Video: video, Outcome: notFound,
				Err: services.Wrap(services.ErrNotFound, "batch", "resolve", video.Name, timeout)},
			want: "provider timed out",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := entryDetail(tc.entry); got != tc.want {
				t.Fatalf("entryDetail = %q, want %q", got, tc.want)
			}
		})
	}
}
