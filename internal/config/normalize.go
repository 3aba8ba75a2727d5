package config

import (
	"fmt"
	"strings"

	"subseek/internal/language"
)

func (c *Config) normalize(env envLookup) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenSubtitles(env)
	c.normalizeFallback()
	c.normalizeSubtitles(env)
	c.normalizeProviders()
	c.normalizeLogging()
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultBatchWorkers
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LedgerPath, err = expandPath(strings.TrimSpace(c.Paths.LedgerPath)); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenSubtitles(env envLookup) {
	c.OpenSubtitles.APIKey = strings.TrimSpace(c.OpenSubtitles.APIKey)
	if value, ok := env.lookup("OPENSUBTITLES_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.OpenSubtitles.APIKey = strings.TrimSpace(value)
	}
	c.OpenSubtitles.UserToken = strings.TrimSpace(c.OpenSubtitles.UserToken)
	if value, ok := env.lookup("OPENSUBTITLES_USER_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.OpenSubtitles.UserToken = strings.TrimSpace(value)
	}
	c.OpenSubtitles.UserAgent = strings.TrimSpace(c.OpenSubtitles.UserAgent)
	if c.OpenSubtitles.UserAgent == "" {
		c.OpenSubtitles.UserAgent = defaultOpenSubtitlesUserAgent
	}
	c.OpenSubtitles.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenSubtitles.BaseURL), "/")
	if c.OpenSubtitles.BaseURL == "" {
		c.OpenSubtitles.BaseURL = defaultOpenSubtitlesBaseURL
	}
	if c.OpenSubtitles.TimeoutSeconds <= 0 {
		c.OpenSubtitles.TimeoutSeconds = defaultProviderTimeoutSeconds
	}
}

func (c *Config) normalizeFallback() {
	c.Fallback.Sources = normalizeList(c.Fallback.Sources, strings.ToLower)
	c.Fallback.SubdlBaseURL = strings.TrimRight(strings.TrimSpace(c.Fallback.SubdlBaseURL), "/")
	if c.Fallback.SubdlBaseURL == "" {
		c.Fallback.SubdlBaseURL = defaultSubdlBaseURL
	}
	c.Fallback.YIFYBaseURL = strings.TrimRight(strings.TrimSpace(c.Fallback.YIFYBaseURL), "/")
	if c.Fallback.YIFYBaseURL == "" {
		c.Fallback.YIFYBaseURL = defaultYIFYBaseURL
	}
	if c.Fallback.TimeoutSeconds <= 0 {
		c.Fallback.TimeoutSeconds = defaultProviderTimeoutSeconds
	}
}

func (c *Config) normalizeSubtitles(env envLookup) {
	c.Subtitles.Languages = normalizeList(c.Subtitles.Languages, language.ToISO2)
	if len(c.Subtitles.Languages) == 0 {
		c.Subtitles.Languages = append([]string(nil), defaultLanguages...)
	}
	if value, ok := env.lookup("SUBSEEK_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Subtitles.DefaultLanguage = value
	}
	c.Subtitles.DefaultLanguage = language.ToISO2(c.Subtitles.DefaultLanguage)
	if c.Subtitles.DefaultLanguage == "" {
		c.Subtitles.DefaultLanguage = c.Subtitles.Languages[0]
	}
	c.Subtitles.VideoExtensions = normalizeList(c.Subtitles.VideoExtensions, func(ext string) string {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext
	})
	if len(c.Subtitles.VideoExtensions) == 0 {
		c.Subtitles.VideoExtensions = append([]string(nil), defaultVideoExtensions...)
	}
}

func (c *Config) normalizeProviders() {
	c.Providers.Order = normalizeList(c.Providers.Order, strings.ToLower)
	if len(c.Providers.Order) == 0 {
		c.Providers.Order = append([]string(nil), defaultProviderOrder...)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeList trims, transforms, and de-duplicates values while keeping order.
func normalizeList(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		normalized = transform(normalized)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
