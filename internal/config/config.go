package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider" mapstructure:"provider"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// Supported generative providers.
const (
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderAnthropic  = "anthropic"
)

// ProviderConfig selects the generative provider.
type ProviderConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// GoogleConfig holds Gemini API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	SiteFilter    string `yaml:"site_filter" mapstructure:"site_filter"`
}

// FirecrawlConfig holds Firecrawl API settings (fetch fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures the manifest scrape layer.
type ScrapeConfig struct {
	// EndpointURL, when set, makes the detail service call a remote
	// /scrape endpoint instead of aggregating sources in-process.
	EndpointURL       string   `yaml:"endpoint_url" mapstructure:"endpoint_url"`
	Sources           []string `yaml:"sources" mapstructure:"sources"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string   `yaml:"user_agent" mapstructure:"user_agent"`
	BreakerThreshold  int      `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs  int      `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	PortExaminerURL   string   `yaml:"port_examiner_url" mapstructure:"port_examiner_url"`
	ImportYetiURL     string   `yaml:"import_yeti_url" mapstructure:"import_yeti_url"`
	AlibabaURL        string   `yaml:"alibaba_url" mapstructure:"alibaba_url"`
	IndiaCustomsURL   string   `yaml:"india_customs_url" mapstructure:"india_customs_url"`
	PortOfLAURL       string   `yaml:"port_of_la_url" mapstructure:"port_of_la_url"`
}

// RetryConfig configures the detailed-profile retry policy.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the detailed-profile cache.
type CacheConfig struct {
	ProfileTTLHours int `yaml:"profile_ttl_hours" mapstructure:"profile_ttl_hours"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IMPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider.name", ProviderGemini)
	v.SetDefault("google.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("google.model", "gemini-3-flash-preview")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.site_filter", "portexaminer.com")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("scrape.sources", []string{"portexaminer", "importyeti", "jina", "usitc", "census"})
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.requests_per_second", 1.0)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; importer-intel/1.0)")
	v.SetDefault("scrape.breaker_threshold", 3)
	v.SetDefault("scrape.breaker_reset_secs", 60)
	// Empty source URLs select the scrape package defaults.
	v.SetDefault("scrape.port_examiner_url", "")
	v.SetDefault("scrape.import_yeti_url", "")
	v.SetDefault("scrape.alibaba_url", "")
	v.SetDefault("scrape.india_customs_url", "")
	v.SetDefault("scrape.port_of_la_url", "")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 2000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "importer-intel.db")
	v.SetDefault("cache.profile_ttl_hours", 24)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: "search"
// (provider + store), "serve" (search + server port), "scrape" (no
// provider), "alerts" (store only). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	needProvider, needStore := false, false
	switch mode {
	case "search":
		needProvider, needStore = true, true
	case "serve":
		needProvider, needStore = true, true
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "scrape":
	case "alerts":
		needStore = true
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needProvider {
		switch c.Provider.Name {
		case ProviderGemini:
			if c.Google.Key == "" {
				errs = append(errs, "google.key is required for the gemini provider")
			}
		case ProviderPerplexity:
			if c.Perplexity.Key == "" {
				errs = append(errs, "perplexity.key is required for the perplexity provider")
			}
		case ProviderAnthropic:
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required for the anthropic provider")
			}
		default:
			errs = append(errs, "provider.name must be one of gemini, perplexity, anthropic")
		}
		if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
			errs = append(errs, "retry.max_attempts must be between 1 and 10")
		}
	}

	if needStore {
		if !slices.Contains([]string{"sqlite", "postgres"}, c.Store.Driver) {
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
