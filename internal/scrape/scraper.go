// Package scrape collects raw manifest leads from public trade-data sites
// and search APIs. Leads are best effort: a failing source yields no leads
// and never fails the caller.
package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
)

// ErrSourceUnavailable marks a source that could not be reached or parsed.
// The Aggregator logs it and carries on.
var ErrSourceUnavailable = eris.New("scrape source unavailable")

// Source produces leads for a query from one upstream.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]model.RawLead, error)
}

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	// Fetcher names the fetcher that produced the page, e.g. "http", "firecrawl".
	Fetcher string
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Name() string
}

// unavailable wraps err as ErrSourceUnavailable for the named source.
func unavailable(source string, err error) error {
	return eris.Wrapf(&sourceError{source: source, err: err}, "scrape: %s", source)
}

type sourceError struct {
	source string
	err    error
}

func (e *sourceError) Error() string { return e.err.Error() }

func (e *sourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.err} }
