package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subseek/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("OPENSUBTITLES_API_KEY", "")
	t.Setenv("OPENSUBTITLES_USER_TOKEN", "")
	t.Setenv("SUBSEEK_LANGUAGE", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultConfigUsesEnvAPIKeyAndExpandsPaths(t *testing.T) {
	home := isolate(t)
	t.Setenv("OPENSUBTITLES_API_KEY", "test-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(home, ".local", "share", "subseek", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.CacheDir != filepath.Join(home, ".cache", "subseek") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.OpenSubtitles.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.OpenSubtitles.APIKey)
	}
	if got := strings.Join(cfg.Subtitles.Languages, ","); got != "es,en" {
		t.Fatalf("unexpected languages: %q", got)
	}
	if cfg.Subtitles.DefaultLanguage != "es" {
		t.Fatalf("unexpected default language: %q", cfg.Subtitles.DefaultLanguage)
	}
	if got := strings.Join(cfg.Providers.Order, ","); got != "opensubtitles,fallback" {
		t.Fatalf("unexpected provider order: %q", got)
	}
	if cfg.Matching.HashThreshold != 0.5 || cfg.Matching.NameThreshold != 0.3 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Matching)
	}
	if cfg.Batch.Workers != 3 {
		t.Fatalf("unexpected worker count: %d", cfg.Batch.Workers)
	}
	if cfg.OpenSubtitlesTimeout().Seconds() != 10 {
		t.Fatalf("unexpected provider timeout: %s", cfg.OpenSubtitlesTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.CacheDir, filepath.Dir(cfg.Paths.LedgerPath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadRequiresAPIKeyWhenPrimaryEnabled(t *testing.T) {
	isolate(t)

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected missing api key error")
	}
	if !strings.Contains(err.Error(), "opensubtitles.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolate(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subseek.toml")

	type payload struct {
		OpenSubtitles struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"opensubtitles"`
		Subtitles struct {
			Languages       []string `toml:"languages"`
			DefaultLanguage string   `toml:"default_language"`
		} `toml:"subtitles"`
		Providers struct {
			Order []string `toml:"order"`
		} `toml:"providers"`
		Batch struct {
			Workers int `toml:"workers"`
		} `toml:"batch"`
	}
	custom := payload{}
	custom.OpenSubtitles.APIKey = "abc123"
	custom.OpenSubtitles.BaseURL = "https://example.com/api/v1/"
	custom.Subtitles.Languages = []string{"English", "spa", "en"}
	custom.Subtitles.DefaultLanguage = "eng"
	custom.Providers.Order = []string{"Fallback", "opensubtitles"}
	custom.Batch.Workers = 5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.OpenSubtitles.APIKey != "abc123" {
		t.Fatalf("expected API key from file, got %q", cfg.OpenSubtitles.APIKey)
	}
	if cfg.OpenSubtitles.BaseURL != "https://example.com/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.OpenSubtitles.BaseURL)
	}
	if got := strings.Join(cfg.Subtitles.Languages, ","); got != "en,es" {
		t.Fatalf("expected normalized languages, got %q", got)
	}
	if cfg.Subtitles.DefaultLanguage != "en" {
		t.Fatalf("expected default language en, got %q", cfg.Subtitles.DefaultLanguage)
	}
	if got := strings.Join(cfg.Providers.Order, ","); got != "fallback,opensubtitles" {
		t.Fatalf("expected overridden provider order, got %q", got)
	}
	if cfg.Batch.Workers != 5 {
		t.Fatalf("expected 5 workers, got %d", cfg.Batch.Workers)
	}
}

func TestEnvVarOverridesConfigFileForSecrets(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "subseek.toml")
	content := "[opensubtitles]\napi_key = \"file-key\"\nuser_token = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENSUBTITLES_API_KEY", "env-key")
	t.Setenv("OPENSUBTITLES_USER_TOKEN", "env-token")
	t.Setenv("SUBSEEK_LANGUAGE", "english")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenSubtitles.APIKey != "env-key" {
		t.Errorf("expected API key from env, got %q", cfg.OpenSubtitles.APIKey)
	}
	if cfg.OpenSubtitles.UserToken != "env-token" {
		t.Errorf("expected user token from env, got %q", cfg.OpenSubtitles.UserToken)
	}
	if cfg.Subtitles.DefaultLanguage != "en" {
		t.Errorf("expected default language from env, got %q", cfg.Subtitles.DefaultLanguage)
	}
}

func TestDotEnvNextToConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "subseek.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENSUBTITLES_API_KEY=dotenv-key\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// An empty process variable does not mask the .env entry.
	t.Setenv("OPENSUBTITLES_API_KEY", "")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenSubtitles.APIKey != "dotenv-key" {
		t.Fatalf("expected API key from .env, got %q", cfg.OpenSubtitles.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unsupported language", func(c *config.Config) { c.Subtitles.Languages = []string{"fr"} }, "subtitles.languages"},
		{"default outside set", func(c *config.Config) { c.Subtitles.Languages = []string{"en"}; c.Subtitles.DefaultLanguage = "es" }, "default_language"},
		{"unknown provider", func(c *config.Config) { c.Providers.Order = []string{"subscene"} }, "providers.order"},
		{"unknown source", func(c *config.Config) { c.Fallback.Sources = []string{"argenteam"} }, "fallback.sources"},
		{"threshold range", func(c *config.Config) { c.Matching.NameThreshold = 1.5 }, "matching.name_threshold"},
		{"workers", func(c *config.Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"no providers", func(c *config.Config) { c.OpenSubtitles.Enabled = false; c.Fallback.Enabled = false }, "at least one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OpenSubtitles.APIKey = "key"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwriting")
	}
	t.Setenv("OPENSUBTITLES_API_KEY", "sample-key")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Matching.TagWeight != 0.5 {
		t.Fatalf("unexpected tag weight from sample: %v", cfg.Matching.TagWeight)
	}
}
