package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/resilience"
)

// EndpointClient reads leads from a remote /scrape endpoint (see Handler).
type EndpointClient struct {
	baseURL string
	http    *http.Client
}

// NewEndpointClient creates an EndpointClient for the service at baseURL.
func NewEndpointClient(baseURL string, hc *http.Client) *EndpointClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &EndpointClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// ScrapeResponse is the /scrape response body.
type ScrapeResponse struct {
	Results []model.ManifestRecord `json:"results"`
	Error   string                 `json:"error,omitempty"`
}

// Leads fetches manifest rows for query and tags them as PortExaminer leads.
func (c *EndpointClient) Leads(ctx context.Context, query string) ([]model.RawLead, error) {
	reqURL := c.baseURL + "/scrape?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape endpoint: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, unavailable("endpoint", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable("endpoint", eris.Wrap(err, "read body"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("endpoint", resilience.StatusError("scrape endpoint", resp.StatusCode, string(body)))
	}

	var out ScrapeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, unavailable("endpoint", eris.Wrap(err, "decode response"))
	}

	leads := make([]model.RawLead, 0, len(out.Results))
	for _, r := range out.Results {
		leads = append(leads, r.Lead("PortExaminer"))
	}
	return leads, nil
}
