package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/importer-intel/internal/resilience"
)

const groundedBody = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "{\"importers\":"}, {"text": "[]}"}]},
    "groundingMetadata": {
      "groundingChunks": [{"web": {"uri": "https://portexaminer.com/x", "title": "Port Examiner"}}]
    }
  }]
}`

func TestGenerateContent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "tools")
		contents := body["contents"].([]any)
		require.Len(t, contents, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(groundedBody)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithModel("gemini-test"))
	resp, err := client.GenerateContent(context.Background(), GenerateRequest{
		Prompt:       "Acme Imports",
		GoogleSearch: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"importers":[]}`, resp.Text())
	require.NotNil(t, resp.Candidates[0].GroundingMetadata)
	assert.Equal(t, "https://portexaminer.com/x", resp.Candidates[0].GroundingMetadata.GroundingChunks[0].Web.URI)
	assert.JSONEq(t, groundedBody, string(resp.Raw))
}

func TestGenerateContent_NoTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "tools")
		assert.Equal(t, "/models/"+defaultModel+":generateContent", r.URL.Path)
		_, _ = w.Write([]byte(`{"candidates":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	resp, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}

func TestGenerateContent_APIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"forbidden", http.StatusForbidden, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"unavailable", http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": "nope"}`)) //nolint:errcheck
			}))
			defer srv.Close()

			client := NewClient("bad-key", WithBaseURL(srv.URL))
			resp, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "q"})

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestGenerateContent_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.GenerateContent(context.Background(), GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestGenerateContent_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.GenerateContent(ctx, GenerateRequest{Prompt: "q"})
	assert.Error(t, err)
}
