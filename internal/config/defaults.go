package config

const (
	defaultConfigPath             = "~/.config/subseek/config.toml"
	defaultLogDir                 = "~/.local/share/subseek/logs"
	defaultLedgerPath             = "~/.local/share/subseek/history.db"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLanguage               = "es"
	defaultOpenSubtitlesBaseURL   = "https://api.opensubtitles.com/api/v1"
	defaultOpenSubtitlesUserAgent = "subseek v1.0"
	defaultProviderTimeoutSeconds = 10
	defaultSubdlBaseURL           = "https://subdl.com"
	defaultYIFYBaseURL            = "https://yifysubtitles.ch"
	defaultHashThreshold          = 0.5
	defaultNameThreshold          = 0.3
	defaultTagWeight              = 0.5
	defaultEpisodeWeight          = 0.3
	defaultTitleWeight            = 0.2
	defaultBatchWorkers           = 3

	// ProviderOpenSubtitles identifies the primary provider in providers.order.
	ProviderOpenSubtitles = "opensubtitles"
	// ProviderFallback identifies the multi-source fallback provider in providers.order.
	ProviderFallback = "fallback"
	// SourceSubdl and SourceYIFY identify fallback sub-sources.
	SourceSubdl = "subdl"
	SourceYIFY  = "yify"
)

var (
	defaultLanguages       = []string{"es", "en"}
	defaultVideoExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v", ".flv", ".webm"}
	defaultProviderOrder   = []string{ProviderOpenSubtitles, ProviderFallback}
	defaultFallbackSources = []string{SourceSubdl, SourceYIFY}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:     defaultLogDir,
			CacheDir:   defaultCacheDir(),
			LedgerPath: defaultLedgerPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Subtitles: Subtitles{
			Languages:       append([]string(nil), defaultLanguages...),
			DefaultLanguage: defaultLanguage,
			VideoExtensions: append([]string(nil), defaultVideoExtensions...),
		},
		OpenSubtitles: OpenSubtitles{
			Enabled:        true,
			BaseURL:        defaultOpenSubtitlesBaseURL,
			UserAgent:      defaultOpenSubtitlesUserAgent,
			TimeoutSeconds: defaultProviderTimeoutSeconds,
		},
		Fallback: Fallback{
			Enabled:        true,
			Sources:        append([]string(nil), defaultFallbackSources...),
			SubdlBaseURL:   defaultSubdlBaseURL,
			YIFYBaseURL:    defaultYIFYBaseURL,
			TimeoutSeconds: defaultProviderTimeoutSeconds,
		},
		Providers: Providers{
			Order: append([]string(nil), defaultProviderOrder...),
		},
		Matching: Matching{
			HashThreshold: defaultHashThreshold,
			NameThreshold: defaultNameThreshold,
			TagWeight:     defaultTagWeight,
			EpisodeWeight: defaultEpisodeWeight,
			TitleWeight:   defaultTitleWeight,
		},
		Batch: Batch{
			Workers:       defaultBatchWorkers,
			RecordHistory: true,
		},
	}
}
