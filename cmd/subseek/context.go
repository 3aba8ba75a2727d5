package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"subseek/internal/batch"
	"subseek/internal/config"
	"subseek/internal/language"
	"subseek/internal/ledger"
	"subseek/internal/logging"
	"subseek/internal/materialize"
	"subseek/internal/providers"
	"subseek/internal/providers/opensubtitles"
	"subseek/internal/providers/scrape"
	"subseek/internal/ranking"
	"subseek/internal/resolver"
	"subseek/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	ledger *ledger.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// language returns the normalized requested language, defaulting to the
// configured default, and rejects languages outside the configured set.
func (c *commandContext) language(flag string) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	raw := strings.TrimSpace(flag)
	if raw == "" {
		raw = cfg.Subtitles.DefaultLanguage
	}
	lang := language.ToISO2(raw)
	if lang == "" || !cfg.LanguageEnabled(lang) {
		return "", services.Wrap(services.ErrValidation, "cli", "language",
			fmt.Sprintf("%q is not one of %s", raw, strings.Join(cfg.Subtitles.Languages, ", ")), nil)
	}
	return lang, nil
}

// openLedger opens the history database once per invocation.
func (c *commandContext) openLedger() (*ledger.Store, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return nil, err
	}
	c.ledger = store
	return store, nil
}

func (c *commandContext) close() error {
	if c.ledger == nil {
		return nil
	}
	err := c.ledger.Close()
	c.ledger = nil
	return err
}

// engine is the wired resolution pipeline for one invocation.
type engine struct {
	registry     providers.Registry
	resolver     *resolver.Resolver
	materializer *materialize.Orchestrator
	logger       *slog.Logger
}

func (c *commandContext) buildEngine(overwrite bool) (*engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()

	list, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}
	registry, err := providers.NewRegistry(list...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "providers", "register providers", err)
	}
	ordered := registry.Ordered(cfg.Providers.Order)
	if len(ordered) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "providers",
			"no enabled provider in providers.order", nil)
	}

	res := resolver.New(ordered, resolver.Options{
		Thresholds: resolver.Thresholds{
			Hash: cfg.Matching.HashThreshold,
			Name: cfg.Matching.NameThreshold,
		},
		Weights: ranking.Weights{
			Tags:    cfg.Matching.TagWeight,
			Episode: cfg.Matching.EpisodeWeight,
			Title:   cfg.Matching.TitleWeight,
		},
		Timeouts: map[string]time.Duration{
			providers.FallbackID:     cfg.FallbackTimeout(),
			opensubtitles.ProviderID: cfg.OpenSubtitlesTimeout(),
		},
		Logger: logger,
	})
	mat := materialize.New(registry, materialize.Options{
		Overwrite: overwrite || cfg.Subtitles.Overwrite,
		Logger:    logger,
	})
	return &engine{registry: registry, resolver: res, materializer: mat, logger: logger}, nil
}

func buildProviders(cfg *config.Config, logger *slog.Logger) ([]providers.Provider, error) {
	var list []providers.Provider
	if cfg.OpenSubtitles.Enabled {
		client, err := opensubtitles.New(opensubtitles.Config{
			APIKey:     cfg.OpenSubtitles.APIKey,
			UserAgent:  cfg.OpenSubtitles.UserAgent,
			UserToken:  cfg.OpenSubtitles.UserToken,
			BaseURL:    cfg.OpenSubtitles.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.OpenSubtitlesTimeout()},
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "cli", "opensubtitles", "create client", err)
		}
		var cache *opensubtitles.Cache
		if dir := cfg.OpenSubtitlesCacheDir(); dir != "" {
			cache, err = opensubtitles.NewCache(dir, logger)
			if err != nil {
				logging.WarnWithContext(logger, "opensubtitles cache disabled", "cache_unavailable",
					logging.Error(err),
					logging.String(logging.FieldImpact, "downloads consume quota on every fetch"),
				)
				cache = nil
			}
		}
		list = append(list, opensubtitles.NewProvider(client, cache, logger))
	}
	if cfg.Fallback.Enabled {
		httpClient := scrape.NewHTTPClient(cfg.FallbackTimeout())
		var sources []providers.Source
		for _, id := range cfg.Fallback.Sources {
			switch id {
			case config.SourceSubdl:
				sources = append(sources, scrape.Subdl{BaseURL: cfg.Fallback.SubdlBaseURL, Client: httpClient})
			case config.SourceYIFY:
				sources = append(sources, scrape.YIFY{BaseURL: cfg.Fallback.YIFYBaseURL, Client: httpClient})
			default:
				return nil, services.Wrap(services.ErrConfiguration, "cli", "fallback", fmt.Sprintf("unknown source %q", id), nil)
			}
		}
		list = append(list, providers.NewFallback(logger, sources...))
	}
	if len(list) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "providers", "every provider is disabled", nil)
	}
	return list, nil
}

func (c *commandContext) newCoordinator(eng *engine, force bool) *batch.Coordinator {
	cfg, _ := c.ensureConfig()
	opts := batch.Options{
		Workers:         cfg.Batch.Workers,
		Force:           force,
		LockDir:         cfg.Paths.CacheDir,
		VideoExtensions: cfg.Subtitles.VideoExtensions,
		Logger:          eng.logger,
	}
	if cfg.Batch.RecordHistory {
		store, err := c.openLedger()
		if err != nil {
			logging.WarnWithContext(eng.logger, "history unavailable", "ledger_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the history database or disable batch.record_history"),
			)
		} else {
			opts.Recorder = store
		}
	}
	return batch.New(eng.resolver, eng.materializer, opts)
}

var errNoVideos = errors.New("no video files given")
