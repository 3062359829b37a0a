package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/pkg/perplexity"
)

const perplexitySystemPrompt = "You are a trade-data research assistant. Answer with a single JSON object and nothing else."

// Perplexity generates with Perplexity's online Sonar models, which search
// the web on every request. Search results become grounding chunks.
type Perplexity struct {
	client perplexity.Client
	model  string
}

// NewPerplexity wraps a Perplexity client.
func NewPerplexity(client perplexity.Client, model string) *Perplexity {
	return &Perplexity{client: client, model: model}
}

// Generate implements Provider.
func (p *Perplexity) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: p.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: perplexity chat completion")
	}

	var cites []Citation
	if req.Grounded {
		cites = perplexityCitations(resp)
	}
	raw, err := GroundingEnvelope(cites)
	if err != nil {
		return nil, err
	}
	return &Response{Text: resp.Text(), Raw: raw}, nil
}

// perplexityCitations prefers titled search results and falls back to the
// bare citation URLs.
func perplexityCitations(resp *perplexity.ChatCompletionResponse) []Citation {
	if len(resp.SearchResults) > 0 {
		out := make([]Citation, 0, len(resp.SearchResults))
		for _, r := range resp.SearchResults {
			out = append(out, Citation{URI: r.URL, Title: r.Title})
		}
		return out
	}
	out := make([]Citation, 0, len(resp.Citations))
	for _, u := range resp.Citations {
		out = append(out, Citation{URI: u})
	}
	return out
}
