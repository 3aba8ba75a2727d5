package config

import (
	"errors"
	"fmt"
	"strings"

	"subseek/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateOpenSubtitles(); err != nil {
		return err
	}
	if err := c.validateFallback(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if c.Batch.Workers <= 0 {
		return errors.New("batch.workers must be positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if len(c.Subtitles.Languages) == 0 {
		return errors.New("subtitles.languages must include at least one language")
	}
	for _, lang := range c.Subtitles.Languages {
		if !language.Supported(lang) {
			return fmt.Errorf("subtitles.languages: unsupported language %q (supported: %s)", lang, strings.Join(language.SupportedCodes(), ", "))
		}
	}
	if !c.LanguageEnabled(c.Subtitles.DefaultLanguage) {
		return fmt.Errorf("subtitles.default_language %q must be one of subtitles.languages", c.Subtitles.DefaultLanguage)
	}
	return nil
}

func (c *Config) validateOpenSubtitles() error {
	if !c.OpenSubtitles.Enabled {
		return nil
	}
	if c.OpenSubtitles.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("opensubtitles.api_key is required. Set OPENSUBTITLES_API_KEY (environment or .env) or edit %s (create with 'subseek config init')", defaultPath)
	}
	if c.OpenSubtitles.UserAgent == "" {
		return errors.New("opensubtitles.user_agent must be set when opensubtitles.enabled is true")
	}
	return nil
}

func (c *Config) validateFallback() error {
	if !c.Fallback.Enabled {
		return nil
	}
	if len(c.Fallback.Sources) == 0 {
		return errors.New("fallback.sources must include at least one source when fallback.enabled is true")
	}
	for _, source := range c.Fallback.Sources {
		switch source {
		case SourceSubdl, SourceYIFY:
		default:
			return fmt.Errorf("fallback.sources: unknown source %q", source)
		}
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, id := range c.Providers.Order {
		switch id {
		case ProviderOpenSubtitles, ProviderFallback:
		default:
			return fmt.Errorf("providers.order: unknown provider %q", id)
		}
	}
	if !c.OpenSubtitles.Enabled && !c.Fallback.Enabled {
		return errors.New("at least one of opensubtitles.enabled or fallback.enabled must be true")
	}
	return nil
}

func (c *Config) validateMatching() error {
	for key, value := range map[string]float64{
		"matching.hash_threshold": c.Matching.HashThreshold,
		"matching.name_threshold": c.Matching.NameThreshold,
		"matching.tag_weight":     c.Matching.TagWeight,
		"matching.episode_weight": c.Matching.EpisodeWeight,
		"matching.title_weight":   c.Matching.TitleWeight,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	if sum := c.Matching.TagWeight + c.Matching.EpisodeWeight + c.Matching.TitleWeight; sum <= 0 {
		return errors.New("matching weights must not all be zero")
	}
	return nil
}
