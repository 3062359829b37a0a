package intel

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/provider"
	"github.com/sells-group/importer-intel/internal/resilience"
)

const defaultMaxHints = 10

// LeadFetcher supplies manifest hints for an importer name.
type LeadFetcher interface {
	Leads(ctx context.Context, query string) ([]model.RawLead, error)
}

// DetailService resolves detailed importer profiles. It holds no state
// between calls.
type DetailService struct {
	provider provider.Provider
	leads    LeadFetcher
	retry    resilience.RetryConfig
	maxHints int
}

// DetailOption configures a DetailService.
type DetailOption func(*DetailService)

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) DetailOption {
	return func(d *DetailService) { d.retry = cfg }
}

// WithMaxHints caps the number of scrape hints embedded in the prompt.
func WithMaxHints(n int) DetailOption {
	return func(d *DetailService) {
		if n > 0 {
			d.maxHints = n
		}
	}
}

// NewDetailService creates a DetailService. leads may be nil, in which case
// prompts carry no manifest hints.
func NewDetailService(p provider.Provider, leads LeadFetcher, opts ...DetailOption) *DetailService {
	d := &DetailService{
		provider: p,
		leads:    leads,
		retry:    resilience.BackoffRetryConfig(),
		maxHints: defaultMaxHints,
	}
	for _, o := range opts {
		o(d)
	}
	if d.retry.OnRetry == nil {
		d.retry.OnRetry = resilience.RetryLogger("provider", "fetch_details")
	}
	return d
}

// FetchDetails resolves the full profile of importerName. summary, when
// known, adds location and commodity context to the prompt. The whole
// scrape-prompt-parse sequence is retried under the configured policy.
func (d *DetailService) FetchDetails(ctx context.Context, importerName string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error) {
	name := strings.TrimSpace(importerName)
	if name == "" {
		return nil, withKind(ErrValidation, eris.New("intel: importer name is required"))
	}

	start := time.Now()
	parsed, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) (model.ParsedImporterData, error) {
		return d.attempt(ctx, name, summary)
	})
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrOperationCancelled) {
			err = withKind(ErrOperationCancelled, err)
		}
		return nil, eris.Wrapf(err, "intel: fetch details for %q", name)
	}

	zap.L().Info("importer profile resolved",
		zap.String("importer", name),
		zap.Int("shipments", len(parsed.ShipmentHistory)),
		zap.Int("sources", len(parsed.Sources)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &model.DetailedImporterResult{ParsedData: parsed}, nil
}

// Refresh re-runs the profile analysis without prior summary context.
func (d *DetailService) Refresh(ctx context.Context, importerName string) (*model.DetailedImporterResult, error) {
	return d.FetchDetails(ctx, importerName, nil)
}

func (d *DetailService) attempt(ctx context.Context, name string, summary *model.ImporterSummary) (model.ParsedImporterData, error) {
	hints := d.hints(ctx, name)

	resp, err := d.provider.Generate(ctx, provider.Request{
		Prompt:   detailPrompt(name, summary, hints, d.maxHints),
		Grounded: true,
	})
	if err != nil {
		return model.ParsedImporterData{}, classifyCall(ctx, err)
	}

	tree, err := decodeTree(CleanJSON(resp.Text))
	if err != nil {
		return model.ParsedImporterData{}, err
	}
	parsed, err := model.ParseImporterData(tree, name)
	if err != nil {
		return model.ParsedImporterData{}, withKind(ErrProviderResponseMalformed, err)
	}

	parsed.ShipmentVolumeHistory = parsed.SortedVolumes()
	parsed.Sources = model.ConcatSources(parsed.Sources, ExtractSources(resp.Raw))
	parsed.ScrapedData = model.ScrapedFromLeads(hints)
	return parsed, nil
}

// hints fetches scrape leads. Any failure yields no hints.
func (d *DetailService) hints(ctx context.Context, name string) []model.RawLead {
	if d.leads == nil {
		return nil
	}
	leads, err := d.leads.Leads(ctx, name)
	if err != nil {
		zap.L().Warn("manifest hints unavailable", zap.String("importer", name), zap.Error(err))
		return nil
	}
	return leads
}
