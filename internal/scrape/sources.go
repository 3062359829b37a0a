package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
)

// Source keys, as listed in scrape.sources.
const (
	SourcePortExaminer = "portexaminer"
	SourceImportYeti   = "importyeti"
	SourceAlibaba      = "alibaba"
	SourceIndiaCustoms = "indiacustoms"
	SourcePortOfLA     = "portofla"
	SourceJina         = "jina"
	SourceUSITC        = "usitc"
	SourceCensus       = "census"
)

// Default upstream URLs.
const (
	DefaultPortExaminerURL = "https://portexaminer.com/search.php"
	DefaultImportYetiURL   = "https://www.importyeti.com/search"
	DefaultAlibabaURL      = "https://www.alibaba.com/trade/search"
	DefaultIndiaCustomsURL = "https://api.cbic-gov.in/public/hs"
	DefaultPortOfLAURL     = "https://www.portoflosangeles.org/api/vessel_schedule"
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// fetchDocument fetches pageURL and parses it as HTML.
func fetchDocument(ctx context.Context, f Fetcher, pageURL string) (*goquery.Document, error) {
	page, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, eris.Wrap(err, "parse document")
	}
	return doc, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// PortExaminer scrapes the consignee search on portexaminer.com.
type PortExaminer struct {
	fetcher Fetcher
	baseURL string
}

// NewPortExaminer creates a PortExaminer source. An empty baseURL uses
// DefaultPortExaminerURL.
func NewPortExaminer(f Fetcher, baseURL string) *PortExaminer {
	return &PortExaminer{fetcher: f, baseURL: orDefault(baseURL, DefaultPortExaminerURL)}
}

// Name implements Source.
func (p *PortExaminer) Name() string { return SourcePortExaminer }

// URL returns the consignee search URL for query.
func (p *PortExaminer) URL(query string) string {
	v := url.Values{}
	v.Set("search-field-1", "consignee")
	v.Set("search-term-1", query)
	return p.baseURL + "?" + v.Encode()
}

// Search implements Source. Rows of the results table are date, consignee,
// shipper and commodity; the header row and short rows are skipped.
func (p *PortExaminer) Search(ctx context.Context, query string) ([]model.RawLead, error) {
	pageURL := p.URL(query)
	doc, err := fetchDocument(ctx, p.fetcher, pageURL)
	if err != nil {
		return nil, unavailable(p.Name(), err)
	}

	leads := make([]model.RawLead, 0)
	doc.Find(".search-results-table tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 4 {
			return
		}
		rec := model.ManifestRecord{
			Date:      text(cols.Eq(0)),
			Consignee: text(cols.Eq(1)),
			Shipper:   text(cols.Eq(2)),
			Commodity: text(cols.Eq(3)),
		}
		lead := rec.Lead("PortExaminer")
		lead.URL = pageURL
		leads = append(leads, lead)
	})
	return leads, nil
}

// ImportYeti scrapes company search results on importyeti.com.
type ImportYeti struct {
	fetcher Fetcher
	baseURL string
}

// NewImportYeti creates an ImportYeti source.
func NewImportYeti(f Fetcher, baseURL string) *ImportYeti {
	return &ImportYeti{fetcher: f, baseURL: orDefault(baseURL, DefaultImportYetiURL)}
}

// Name implements Source.
func (y *ImportYeti) Name() string { return SourceImportYeti }

// Search implements Source.
func (y *ImportYeti) Search(ctx context.Context, query string) ([]model.RawLead, error) {
	pageURL := y.baseURL + "?q=" + url.QueryEscape(query)
	doc, err := fetchDocument(ctx, y.fetcher, pageURL)
	if err != nil {
		return nil, unavailable(y.Name(), err)
	}

	leads := make([]model.RawLead, 0)
	doc.Find(".company-result").Each(func(_ int, el *goquery.Selection) {
		name := text(el.Find(".company-name"))
		if name == "" {
			return
		}
		leads = append(leads, model.RawLead{
			Importer:  name,
			Commodity: text(el.Find(".product-list")),
			Source:    "ImportYeti",
			URL:       pageURL,
		})
	})
	return leads, nil
}

// AlibabaBuyers scrapes the Alibaba trade directory for a keyword.
type AlibabaBuyers struct {
	fetcher Fetcher
	baseURL string
}

// NewAlibabaBuyers creates an AlibabaBuyers source. The page is JS-heavy;
// pair it with a FirecrawlFetcher fallback.
func NewAlibabaBuyers(f Fetcher, baseURL string) *AlibabaBuyers {
	return &AlibabaBuyers{fetcher: f, baseURL: orDefault(baseURL, DefaultAlibabaURL)}
}

// Name implements Source.
func (a *AlibabaBuyers) Name() string { return SourceAlibaba }

// Search implements Source. The keyword doubles as the lead commodity.
func (a *AlibabaBuyers) Search(ctx context.Context, keyword string) ([]model.RawLead, error) {
	pageURL := a.baseURL + "?keywords=" + url.QueryEscape(keyword)
	doc, err := fetchDocument(ctx, a.fetcher, pageURL)
	if err != nil {
		return nil, unavailable(a.Name(), err)
	}

	leads := make([]model.RawLead, 0)
	doc.Find(".supplier-card").Each(func(_ int, el *goquery.Selection) {
		name := text(el.Find(".supplier-name"))
		if name == "" {
			return
		}
		leads = append(leads, model.RawLead{
			Importer:  name,
			Commodity: keyword,
			Source:    "Alibaba Buyers",
			URL:       pageURL,
		})
	})
	return leads, nil
}

// IndiaCustoms queries the CBIC public HS-code API. The query is an HS code.
type IndiaCustoms struct {
	fetcher Fetcher
	baseURL string
}

// NewIndiaCustoms creates an IndiaCustoms source.
func NewIndiaCustoms(f Fetcher, baseURL string) *IndiaCustoms {
	return &IndiaCustoms{fetcher: f, baseURL: orDefault(baseURL, DefaultIndiaCustomsURL)}
}

// Name implements Source.
func (c *IndiaCustoms) Name() string { return SourceIndiaCustoms }

type indiaCustomsResponse struct {
	Records []struct {
		Importer string `json:"importer"`
		Country  string `json:"country"`
		Date     string `json:"date"`
	} `json:"records"`
}

// Search implements Source.
func (c *IndiaCustoms) Search(ctx context.Context, hs string) ([]model.RawLead, error) {
	page, err := c.fetcher.Fetch(ctx, c.baseURL+"?code="+url.QueryEscape(hs))
	if err != nil {
		return nil, unavailable(c.Name(), err)
	}
	var body indiaCustomsResponse
	if err := json.Unmarshal(page.Body, &body); err != nil {
		return nil, unavailable(c.Name(), eris.Wrap(err, "decode records"))
	}

	leads := make([]model.RawLead, 0, len(body.Records))
	for _, r := range body.Records {
		leads = append(leads, model.RawLead{
			Importer:         r.Importer,
			HSCode:           hs,
			Origin:           r.Country,
			LastShipmentDate: r.Date,
			Source:           "India Customs API",
		})
	}
	return leads, nil
}

// PortOfLA reads the Port of Los Angeles vessel schedule. The schedule is
// not query-specific; every arrival becomes a lead.
type PortOfLA struct {
	fetcher Fetcher
	baseURL string
}

// NewPortOfLA creates a PortOfLA source.
func NewPortOfLA(f Fetcher, baseURL string) *PortOfLA {
	return &PortOfLA{fetcher: f, baseURL: orDefault(baseURL, DefaultPortOfLAURL)}
}

// Name implements Source.
func (p *PortOfLA) Name() string { return SourcePortOfLA }

type vesselCall struct {
	LastPort string `json:"lastPort"`
	Arrival  string `json:"arrival"`
}

// Search implements Source.
func (p *PortOfLA) Search(ctx context.Context, _ string) ([]model.RawLead, error) {
	page, err := p.fetcher.Fetch(ctx, p.baseURL)
	if err != nil {
		return nil, unavailable(p.Name(), err)
	}
	var calls []vesselCall
	if err := json.Unmarshal(page.Body, &calls); err != nil {
		return nil, unavailable(p.Name(), eris.Wrap(err, "decode vessel schedule"))
	}

	leads := make([]model.RawLead, 0, len(calls))
	for _, v := range calls {
		leads = append(leads, model.RawLead{
			Origin:           v.LastPort,
			Destination:      "Los Angeles",
			LastShipmentDate: v.Arrival,
			Source:           "Port of LA",
		})
	}
	return leads, nil
}

// Placeholder is a declared source with no scraping behind it. USITC
// DataWeb and US Census trade data are reached through provider grounding
// instead.
type Placeholder struct {
	name string
}

// NewUSITC returns the USITC DataWeb placeholder source.
func NewUSITC() *Placeholder { return &Placeholder{name: SourceUSITC} }

// NewCensus returns the US Census placeholder source.
func NewCensus() *Placeholder { return &Placeholder{name: SourceCensus} }

// Name implements Source.
func (p *Placeholder) Name() string { return p.name }

// Search implements Source and always returns no leads.
func (p *Placeholder) Search(context.Context, string) ([]model.RawLead, error) {
	return []model.RawLead{}, nil
}
