package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/importer-intel/internal/model"
)

const portExaminerHTML = `<html><body>
<table class="search-results-table">
  <tr><th>Date</th><th>Consignee</th><th>Shipper</th><th>Commodity</th></tr>
  <tr><td>2024-03-02</td><td> ACME IMPORTS LLC </td><td>SHENZHEN WIDGET CO</td><td>STEEL FASTENERS</td></tr>
  <tr><td>2024-02-11</td><td>ACME IMPORTS LLC</td><td>NINGBO TOOLS</td></tr>
  <tr><td>2024-01-20</td><td>ACME   IMPORTS LLC</td><td>TAIZHOU BOLT</td><td>HEX BOLTS</td></tr>
</table></body></html>`

const importYetiHTML = `<div class="company-result"><span class="company-name">Acme Imports</span><span class="product-list">bolts, nuts</span></div>
<div class="company-result"><span class="company-name"></span></div>
<div class="company-result"><span class="company-name">Acme Trading</span></div>`

const alibabaHTML = `<div class="supplier-card"><h2 class="supplier-name">Steel Buyer Inc</h2></div>`

func TestPortExaminer_Search(t *testing.T) {
	src := NewPortExaminer(nil, "https://pe.test/search.php")
	pageURL := src.URL("Acme Imports")
	assert.Equal(t, "https://pe.test/search.php?search-field-1=consignee&search-term-1=Acme+Imports", pageURL)

	src.fetcher = &stubFetcher{name: "http", pages: map[string]string{pageURL: portExaminerHTML}}
	leads, err := src.Search(context.Background(), "Acme Imports")
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, model.RawLead{
		Importer:         "ACME IMPORTS LLC",
		CNEE:             "ACME IMPORTS LLC",
		Shipper:          "SHENZHEN WIDGET CO",
		Commodity:        "STEEL FASTENERS",
		LastShipmentDate: "2024-03-02",
		Source:           "PortExaminer",
		URL:              pageURL,
	}, leads[0])
	assert.Equal(t, "HEX BOLTS", leads[1].Commodity)
	assert.Equal(t, "ACME IMPORTS LLC", leads[1].Importer)
}

func TestPortExaminer_NoTable(t *testing.T) {
	src := NewPortExaminer(nil, "")
	src.fetcher = &stubFetcher{name: "http", pages: map[string]string{src.URL("x"): "<html></html>"}}

	leads, err := src.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestImportYeti_Search(t *testing.T) {
	pageURL := "https://iy.test/search?q=acme"
	src := NewImportYeti(&stubFetcher{pages: map[string]string{pageURL: importYetiHTML}}, "https://iy.test/search")

	leads, err := src.Search(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Acme Imports", leads[0].Importer)
	assert.Equal(t, "bolts, nuts", leads[0].Commodity)
	assert.Equal(t, "ImportYeti", leads[0].Source)
	assert.Equal(t, pageURL, leads[0].URL)
	assert.Empty(t, leads[1].Commodity)
}

func TestAlibabaBuyers_Search(t *testing.T) {
	pageURL := "https://ali.test/trade/search?keywords=steel+pipe"
	src := NewAlibabaBuyers(&stubFetcher{pages: map[string]string{pageURL: alibabaHTML}}, "https://ali.test/trade/search")

	leads, err := src.Search(context.Background(), "steel pipe")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Steel Buyer Inc", leads[0].Importer)
	assert.Equal(t, "steel pipe", leads[0].Commodity)
	assert.Equal(t, "Alibaba Buyers", leads[0].Source)
}

func TestIndiaCustoms_Search(t *testing.T) {
	pageURL := "https://cbic.test/hs?code=7318"
	body := `{"records":[{"importer":"Acme India Pvt","country":"CN","date":"2024-04-01"},{"country":"VN"}]}`
	src := NewIndiaCustoms(&stubFetcher{pages: map[string]string{pageURL: body}}, "https://cbic.test/hs")

	leads, err := src.Search(context.Background(), "7318")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, model.RawLead{
		Importer:         "Acme India Pvt",
		HSCode:           "7318",
		Origin:           "CN",
		LastShipmentDate: "2024-04-01",
		Source:           "India Customs API",
	}, leads[0])
	assert.Equal(t, "7318", leads[1].HSCode)
}

func TestIndiaCustoms_MalformedBody(t *testing.T) {
	pageURL := "https://cbic.test/hs?code=7318"
	src := NewIndiaCustoms(&stubFetcher{pages: map[string]string{pageURL: "<html>"}}, "https://cbic.test/hs")

	_, err := src.Search(context.Background(), "7318")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestPortOfLA_Search(t *testing.T) {
	body := `[{"lastPort":"Shanghai","arrival":"2024-05-01"},{"lastPort":"Busan","arrival":"2024-05-03"}]`
	src := NewPortOfLA(&stubFetcher{pages: map[string]string{"https://pola.test/schedule": body}}, "https://pola.test/schedule")

	leads, err := src.Search(context.Background(), "ignored")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Shanghai", leads[0].Origin)
	assert.Equal(t, "Los Angeles", leads[0].Destination)
	assert.Equal(t, "2024-05-01", leads[0].LastShipmentDate)
	assert.Equal(t, "Port of LA", leads[0].Source)
	assert.Empty(t, leads[0].Importer)
}

func TestPlaceholders(t *testing.T) {
	for _, src := range []Source{NewUSITC(), NewCensus()} {
		leads, err := src.Search(context.Background(), "anything")
		require.NoError(t, err)
		assert.NotNil(t, leads)
		assert.Empty(t, leads)
	}
	assert.Equal(t, SourceUSITC, NewUSITC().Name())
	assert.Equal(t, SourceCensus, NewCensus().Name())
}

func TestSources_FetchErrorIsUnavailable(t *testing.T) {
	boom := errors.New("http: blocked (captcha)")
	f := &stubFetcher{err: boom}
	for _, src := range []Source{
		NewPortExaminer(f, ""),
		NewImportYeti(f, ""),
		NewAlibabaBuyers(f, ""),
		NewIndiaCustoms(f, ""),
		NewPortOfLA(f, ""),
	} {
		_, err := src.Search(context.Background(), "acme")
		require.Error(t, err, src.Name())
		assert.ErrorIs(t, err, ErrSourceUnavailable, src.Name())
		assert.ErrorIs(t, err, boom, src.Name())
	}
}
