package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FallbackFetcher tries fetchers in order, returning the first success.
type FallbackFetcher struct {
	fetchers []Fetcher
}

// NewFallbackFetcher creates a FallbackFetcher. Nil fetchers are skipped.
func NewFallbackFetcher(fetchers ...Fetcher) *FallbackFetcher {
	fb := &FallbackFetcher{}
	for _, f := range fetchers {
		if f != nil {
			fb.fetchers = append(fb.fetchers, f)
		}
	}
	return fb
}

// Name implements Fetcher.
func (c *FallbackFetcher) Name() string { return "fallback" }

// Fetch implements Fetcher.
func (c *FallbackFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	var lastErr error
	for _, f := range c.fetchers {
		page, err := f.Fetch(ctx, targetURL)
		if err == nil && page != nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape: fetch cancelled")
		}
		if err != nil {
			zap.L().Debug("scrape: fetcher failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all fetchers failed")
	}
	return nil, eris.Errorf("scrape: no fetcher configured for url: %s", targetURL)
}
