package intel

import (
	"context"
	"sync"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/provider"
)

// stubProvider replays canned responses and records prompts.
type stubProvider struct {
	mu      sync.Mutex
	text    string
	raw     string
	err     error
	prompts []string
	// failFirst makes the first n calls return err before succeeding.
	failFirst int
}

func (s *stubProvider) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil && (s.failFirst == 0 || len(s.prompts) <= s.failFirst) {
		return nil, s.err
	}
	return &provider.Response{Text: s.text, Raw: []byte(s.raw)}, nil
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubProvider) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

type stubLeads struct {
	leads []model.RawLead
	err   error
}

func (s stubLeads) Leads(_ context.Context, _ string) ([]model.RawLead, error) {
	return s.leads, s.err
}
