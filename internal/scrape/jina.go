package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/pkg/jina"
)

// JinaSearch finds manifest pages for a query through Jina web search,
// restricted to one manifest site.
type JinaSearch struct {
	client     jina.Client
	siteFilter string
}

// NewJinaSearch creates a JinaSearch source. An empty siteFilter searches
// the open web.
func NewJinaSearch(client jina.Client, siteFilter string) *JinaSearch {
	return &JinaSearch{client: client, siteFilter: siteFilter}
}

// Name implements Source.
func (j *JinaSearch) Name() string { return SourceJina }

// Search implements Source. Each search hit becomes a lead named after the
// page title.
func (j *JinaSearch) Search(ctx context.Context, query string) ([]model.RawLead, error) {
	var opts []jina.SearchOption
	if j.siteFilter != "" {
		opts = append(opts, jina.WithSiteFilter(j.siteFilter))
	}

	resp, err := j.client.Search(ctx, query+" importer shipments", opts...)
	if err != nil {
		return nil, unavailable(j.Name(), err)
	}

	leads := make([]model.RawLead, 0, len(resp.Data))
	for _, r := range resp.Data {
		title := strings.TrimSpace(r.Title)
		if title == "" || r.URL == "" {
			continue
		}
		leads = append(leads, model.RawLead{
			Importer:  title,
			Commodity: firstLine(r.Description),
			Source:    "Jina Search",
			URL:       r.URL,
		})
	}
	return leads, nil
}

// firstLine returns the first line of s, cut to 200 runes.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200])
	}
	return strings.TrimSpace(s)
}

// JinaFetcher fetches pages through the Jina reader, which renders JS-heavy
// manifest pages that HTTPFetcher only sees as a shell.
type JinaFetcher struct {
	client jina.Client
}

// NewJinaFetcher creates a JinaFetcher from a Jina client.
func NewJinaFetcher(client jina.Client) *JinaFetcher {
	return &JinaFetcher{client: client}
}

// Name implements Fetcher.
func (j *JinaFetcher) Name() string { return "jina" }

// Fetch asks the reader for HTML so the same selectors apply as for
// HTTPFetcher. Challenge pages rendered by the reader are rejected.
func (j *JinaFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := j.client.Read(ctx, targetURL, jina.WithReturnFormat(jina.FormatHTML))
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return nil, eris.Errorf("jina: reader returned code %d for %s", resp.Code, targetURL)
	}

	body := resp.Data.HTML
	if body == "" {
		body = resp.Data.Content
	}
	if strings.TrimSpace(body) == "" {
		return nil, eris.Errorf("jina: empty page for %s", targetURL)
	}
	if containsAny(strings.ToLower(body), challengeMarkers) || containsAny(strings.ToLower(body), captchaMarkers) {
		return nil, eris.Errorf("jina: challenge page for %s", targetURL)
	}

	return &Page{
		URL:        targetURL,
		StatusCode: 200,
		Body:       []byte(body),
		Fetcher:    j.Name(),
	}, nil
}
