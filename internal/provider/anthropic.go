package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/pkg/anthropic"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5-20250929"
	defaultAnthropicMaxTokens = 8192
	anthropicSystemPrompt     = "You are a trade-data research analyst. Answer with a single JSON object and nothing else."
)

// Anthropic generates with Claude. It has no live search here, so grounded
// requests are answered from model knowledge and carry no citations.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic wraps an Anthropic client.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    anthropicSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: anthropic create message")
	}
	resp.Usage.LogCost(a.model, "generate")

	raw, err := GroundingEnvelope(nil)
	if err != nil {
		return nil, err
	}
	return &Response{Text: resp.Text(), Raw: raw}, nil
}
