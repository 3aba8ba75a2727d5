package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	LogDir     string `toml:"log_dir"`
	CacheDir   string `toml:"cache_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Subtitles contains the language set and output policy.
type Subtitles struct {
	Languages       []string `toml:"languages"`
	DefaultLanguage string   `toml:"default_language"`
	Overwrite       bool     `toml:"overwrite"`
	VideoExtensions []string `toml:"video_extensions"`
}

// OpenSubtitles configures the primary, hash-indexed provider.
type OpenSubtitles struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	UserAgent      string `toml:"user_agent"`
	UserToken      string `toml:"user_token"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Fallback configures the multi-source secondary provider.
type Fallback struct {
	Enabled        bool     `toml:"enabled"`
	Sources        []string `toml:"sources"`
	SubdlBaseURL   string   `toml:"subdl_base_url"`
	YIFYBaseURL    string   `toml:"yify_base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Providers controls the order in which providers are consulted.
type Providers struct {
	Order []string `toml:"order"`
}

// Matching holds acceptance thresholds and ranking weights.
type Matching struct {
	HashThreshold float64 `toml:"hash_threshold"`
	NameThreshold float64 `toml:"name_threshold"`
	TagWeight     float64 `toml:"tag_weight"`
	EpisodeWeight float64 `toml:"episode_weight"`
	TitleWeight   float64 `toml:"title_weight"`
}

// Batch controls folder-wide runs.
type Batch struct {
	Workers       int  `toml:"workers"`
	RecordHistory bool `toml:"record_history"`
}

// Config encapsulates all configuration values for subseek.
//
// Configuration sections by subsystem:
//   - Paths: log, cache, and history locations
//   - Logging: log format and level
//   - Subtitles: language set and overwrite policy
//   - OpenSubtitles: primary provider credentials and endpoint
//   - Fallback: secondary sources and their endpoints
//   - Providers: provider consultation order
//   - Matching: acceptance thresholds and ranking weights
//   - Batch: worker count and history recording
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Subtitles     Subtitles     `toml:"subtitles"`
	OpenSubtitles OpenSubtitles `toml:"opensubtitles"`
	Fallback      Fallback      `toml:"fallback"`
	Providers     Providers     `toml:"providers"`
	Matching      Matching      `toml:"matching"`
	Batch         Batch         `toml:"batch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	env, err := loadEnv(dotEnvCandidates(resolvedPath))
	if err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(env); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subseek.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories plus the parent of
// the history database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.CacheDir}
	if strings.TrimSpace(c.Paths.LedgerPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LedgerPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OpenSubtitlesCacheDir returns the payload cache directory for the primary provider.
func (c *Config) OpenSubtitlesCacheDir() string {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "opensubtitles")
}

// OpenSubtitlesTimeout returns the per-request timeout for the primary provider.
func (c *Config) OpenSubtitlesTimeout() time.Duration {
	return time.Duration(c.OpenSubtitles.TimeoutSeconds) * time.Second
}

// FallbackTimeout returns the per-request timeout for fallback sources.
func (c *Config) FallbackTimeout() time.Duration {
	return time.Duration(c.Fallback.TimeoutSeconds) * time.Second
}

// LanguageEnabled reports whether lang is part of the configured language set.
func (c *Config) LanguageEnabled(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, candidate := range c.Subtitles.Languages {
		if candidate == lang {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subseek")
	}
	return "~/.cache/subseek"
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is never overwritten.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s", path)
		}
		return fmt.Errorf("create sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close sample config: %w", err)
	}
	return nil
}
