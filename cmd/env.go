package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/config"
	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/provider"
	"github.com/sells-group/importer-intel/internal/resilience"
	"github.com/sells-group/importer-intel/internal/scrape"
	"github.com/sells-group/importer-intel/internal/session"
	"github.com/sells-group/importer-intel/internal/store"
	anthropicpkg "github.com/sells-group/importer-intel/pkg/anthropic"
	"github.com/sells-group/importer-intel/pkg/firecrawl"
	"github.com/sells-group/importer-intel/pkg/google"
	"github.com/sells-group/importer-intel/pkg/jina"
	"github.com/sells-group/importer-intel/pkg/perplexity"
)

// appEnv holds the initialized services shared by the search, details,
// alerts and serve commands.
type appEnv struct {
	Store      store.Store
	Search     *intel.SearchService
	Details    *intel.DetailService
	Aggregator *scrape.Aggregator
	Controller *session.Controller
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates cfg for mode and wires the store, provider, scrape
// layer and session controller. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	p, err := newProvider(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	agg, err := newAggregator(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var leads intel.LeadFetcher = agg
	if cfg.Scrape.EndpointURL != "" {
		leads = scrape.NewEndpointClient(cfg.Scrape.EndpointURL, nil)
		zap.L().Info("detail hints from remote scrape endpoint", zap.String("url", cfg.Scrape.EndpointURL))
	}

	search := intel.NewSearchService(p)
	details := intel.NewDetailService(p, leads, intel.WithRetryConfig(detailRetryConfig(cfg.Retry)))

	ctrl, err := session.NewController(ctx, search, details, st,
		session.WithProfileTTL(time.Duration(cfg.Cache.ProfileTTLHours)*time.Hour),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("environment ready",
		zap.String("provider", cfg.Provider.Name),
		zap.String("store", cfg.Store.Driver),
		zap.Strings("scrape_sources", agg.Sources()),
	)

	return &appEnv{
		Store:      st,
		Search:     search,
		Details:    details,
		Aggregator: agg,
		Controller: ctrl,
	}, nil
}

// newProvider builds the configured generative provider.
func newProvider(c *config.Config) (provider.Provider, error) {
	switch c.Provider.Name {
	case config.ProviderGemini:
		client := google.NewClient(c.Google.Key,
			google.WithBaseURL(c.Google.BaseURL),
			google.WithModel(c.Google.Model),
		)
		return provider.NewGemini(client, c.Google.Model), nil
	case config.ProviderPerplexity:
		client := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)
		return provider.NewPerplexity(client, c.Perplexity.Model), nil
	case config.ProviderAnthropic:
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		return provider.NewAnthropic(client, c.Anthropic.Model, c.Anthropic.MaxTokens), nil
	default:
		return nil, eris.Errorf("unsupported provider: %s", c.Provider.Name)
	}
}

// newAggregator builds the scrape sources named in c.Scrape.Sources. Pages
// are fetched directly, falling back to the Jina reader and then Firecrawl
// when their keys are set.
func newAggregator(c *config.Config) (*scrape.Aggregator, error) {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second

	fetchers := []scrape.Fetcher{
		scrape.NewHTTPFetcher(timeout,
			scrape.WithUserAgent(c.Scrape.UserAgent),
			scrape.WithRateLimit(c.Scrape.RequestsPerSecond),
		),
	}

	var jinaClient jina.Client
	if c.Jina.Key != "" {
		jinaClient = jina.NewClient(c.Jina.Key,
			jina.WithBaseURL(c.Jina.BaseURL),
			jina.WithSearchBaseURL(c.Jina.SearchBaseURL),
		)
		fetchers = append(fetchers, scrape.NewJinaFetcher(jinaClient))
	}
	if c.Firecrawl.Key != "" {
		fc := firecrawl.NewClient(c.Firecrawl.Key,
			firecrawl.WithBaseURL(c.Firecrawl.BaseURL),
			firecrawl.WithHTTPClient(&http.Client{Timeout: timeout + 30*time.Second}),
		)
		fetchers = append(fetchers, scrape.NewFirecrawlFetcher(fc))
	}

	sources, err := scrape.NewSources(c.Scrape.Sources, scrape.Deps{
		Fetcher:  scrape.NewFallbackFetcher(fetchers...),
		Jina:     jinaClient,
		JinaSite: c.Jina.SiteFilter,
		URLs: map[string]string{
			scrape.SourcePortExaminer: c.Scrape.PortExaminerURL,
			scrape.SourceImportYeti:   c.Scrape.ImportYetiURL,
			scrape.SourceAlibaba:      c.Scrape.AlibabaURL,
			scrape.SourceIndiaCustoms: c.Scrape.IndiaCustomsURL,
			scrape.SourcePortOfLA:     c.Scrape.PortOfLAURL,
		},
	})
	if err != nil {
		return nil, err
	}

	return scrape.NewAggregator(sources,
		scrape.WithBreakerPolicy(c.Scrape.BreakerThreshold, time.Duration(c.Scrape.BreakerResetSecs)*time.Second),
		scrape.WithSourceTimeout(timeout),
	), nil
}

// newPortExaminer builds the single source behind the /scrape endpoint.
func newPortExaminer(c *config.Config) *scrape.PortExaminer {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second
	f := scrape.NewHTTPFetcher(timeout,
		scrape.WithUserAgent(c.Scrape.UserAgent),
		scrape.WithRateLimit(c.Scrape.RequestsPerSecond),
	)
	return scrape.NewPortExaminer(f, c.Scrape.PortExaminerURL)
}

// detailRetryConfig maps retry settings onto the backoff policy.
func detailRetryConfig(rc config.RetryConfig) resilience.RetryConfig {
	return resilience.FromRetryConfig(rc.MaxAttempts, time.Duration(rc.InitialBackoffMs)*time.Millisecond)
}
