package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/pkg/google"
)

// Gemini generates with the Gemini API. Its native response already has the
// canonical grounding shape, so Raw is passed through untouched.
type Gemini struct {
	client google.Client
	model  string
}

// NewGemini wraps a Gemini client. An empty model uses the client default.
func NewGemini(client google.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.client.GenerateContent(ctx, google.GenerateRequest{
		Model:        g.model,
		Prompt:       req.Prompt,
		GoogleSearch: req.Grounded,
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: gemini generate")
	}
	return &Response{Text: resp.Text(), Raw: resp.Raw}, nil
}
