package testsupport

import (
	"path/filepath"
	"testing"

	"subseek/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The primary provider gets a dummy API key so validation passes.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "data", "history.db")
	cfgVal.OpenSubtitles.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithOpenSubtitles points the primary provider at baseURL using apiKey.
func WithOpenSubtitles(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenSubtitles.BaseURL = baseURL
		b.cfg.OpenSubtitles.APIKey = apiKey
	}
}

// WithoutFallback disables the scraped fallback provider.
func WithoutFallback() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fallback.Enabled = false
	}
}

// WithoutHistory disables ledger recording.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.RecordHistory = false
	}
}
