// Package provider adapts generative-AI vendors to a single grounded
// text-generation contract.
package provider

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Request is a single generation request.
type Request struct {
	Prompt string
	// Grounded asks the provider to back its answer with live web search.
	Grounded bool
}

// Response is a generation result. Raw always follows the shape
// {"candidates":[{"groundingMetadata":{"groundingChunks":[{"web":{"uri","title"}}]}}]}
// so citation extraction is vendor independent.
type Response struct {
	Text string
	Raw  []byte
}

// Provider generates text for a prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, req Request) (*Response, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Citation is a grounding reference used to synthesize Raw.
type Citation struct {
	URI   string
	Title string
}

type webChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type groundingChunk struct {
	Web webChunk `json:"web"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks"`
}

type candidate struct {
	GroundingMetadata groundingMetadata `json:"groundingMetadata"`
}

type envelope struct {
	Candidates []candidate `json:"candidates"`
}

// GroundingEnvelope renders citations in the canonical Raw shape. No
// citations yields {"candidates":[]}.
func GroundingEnvelope(citations []Citation) ([]byte, error) {
	env := envelope{Candidates: []candidate{}}
	if len(citations) > 0 {
		chunks := make([]groundingChunk, 0, len(citations))
		for _, c := range citations {
			chunks = append(chunks, groundingChunk{Web: webChunk{URI: c.URI, Title: c.Title}})
		}
		env.Candidates = append(env.Candidates, candidate{
			GroundingMetadata: groundingMetadata{GroundingChunks: chunks},
		})
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, eris.Wrap(err, "provider: marshal grounding envelope")
	}
	return b, nil
}
