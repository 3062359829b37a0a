package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/pkg/firecrawl"
)

// FirecrawlFetcher fetches pages through Firecrawl, which renders JS and
// gets past most anti-bot walls. It is the paid fallback behind HTTPFetcher.
type FirecrawlFetcher struct {
	client firecrawl.Client
}

// NewFirecrawlFetcher creates a FirecrawlFetcher from a Firecrawl client.
func NewFirecrawlFetcher(client firecrawl.Client) *FirecrawlFetcher {
	return &FirecrawlFetcher{client: client}
}

// Name implements Fetcher.
func (f *FirecrawlFetcher) Name() string { return "firecrawl" }

// Fetch requests the raw HTML so the same selectors apply as for HTTPFetcher.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{firecrawl.FormatRawHTML},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}

	html := resp.Data.RawHTML
	if html == "" {
		html = resp.Data.HTML
	}
	if html == "" {
		return nil, eris.Errorf("firecrawl: empty page for %s", targetURL)
	}

	return &Page{
		URL:        targetURL,
		StatusCode: resp.Data.Metadata.StatusCode,
		Body:       []byte(html),
		Fetcher:    f.Name(),
	}, nil
}
