package intel

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/provider"
)

// SearchService finds importers matching search filters. A search is a
// single provider call; failures degrade to an empty result.
type SearchService struct {
	provider provider.Provider
}

// NewSearchService creates a SearchService backed by p.
func NewSearchService(p provider.Provider) *SearchService {
	return &SearchService{provider: p}
}

// Search returns importers matching f, or an empty list on any failure.
func (s *SearchService) Search(ctx context.Context, f model.SearchFilters) []model.ImporterSummary {
	out, err := s.SearchDetailed(ctx, f)
	if err != nil {
		zap.L().Warn("importer search failed", zap.String("query", f.Query), zap.Error(err))
		return []model.ImporterSummary{}
	}
	return out
}

// SearchDetailed is Search with the failure reported, so callers can tell
// an empty answer from a failed one.
func (s *SearchService) SearchDetailed(ctx context.Context, f model.SearchFilters) ([]model.ImporterSummary, error) {
	if f.IsBlank() {
		return []model.ImporterSummary{}, withKind(ErrValidation, eris.New("intel: at least one search field is required"))
	}
	return s.run(ctx, "search", searchPrompt(f))
}

// SearchSimilar returns competitors and peers of seed, or an empty list on
// any failure.
func (s *SearchService) SearchSimilar(ctx context.Context, seed string) []model.ImporterSummary {
	out, err := s.SearchSimilarDetailed(ctx, seed)
	if err != nil {
		zap.L().Warn("similar importer search failed", zap.String("seed", seed), zap.Error(err))
		return []model.ImporterSummary{}
	}
	return out
}

// SearchSimilarDetailed is SearchSimilar with the failure reported.
func (s *SearchService) SearchSimilarDetailed(ctx context.Context, seed string) ([]model.ImporterSummary, error) {
	if seed == "" {
		return []model.ImporterSummary{}, withKind(ErrValidation, eris.New("intel: similar search needs a seed"))
	}
	return s.run(ctx, "similar", similarPrompt(seed))
}

func (s *SearchService) run(ctx context.Context, op, prompt string) ([]model.ImporterSummary, error) {
	start := time.Now()

	resp, err := s.provider.Generate(ctx, provider.Request{Prompt: prompt, Grounded: true})
	if err != nil {
		return []model.ImporterSummary{}, classifyCall(ctx, err)
	}

	tree, err := decodeTree(CleanJSON(resp.Text))
	if err != nil {
		return []model.ImporterSummary{}, err
	}
	summaries, err := model.ParseSummaries(tree)
	if err != nil {
		return []model.ImporterSummary{}, withKind(ErrProviderResponseMalformed, err)
	}

	sources := ExtractSources(resp.Raw)
	if len(sources) > 0 {
		for i := range summaries {
			summaries[i].Sources = model.ConcatSources(sources)
		}
	}

	zap.L().Debug("importer search complete",
		zap.String("op", op),
		zap.Int("results", len(summaries)),
		zap.Int("sources", len(sources)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summaries, nil
}
