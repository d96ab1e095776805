package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight-ai/docsight/internal/ai"
	"github.com/docsight-ai/docsight/internal/ai/ollama"
	"github.com/docsight-ai/docsight/internal/config"
	"github.com/docsight-ai/docsight/pkg/models"
)

func newServerProvider(t *testing.T, handler http.HandlerFunc) *ollama.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ollama.NewProvider(config.OllamaConfig{BaseURL: srv.URL, Model: "llama3"})
}

func TestAnalyze_Success(t *testing.T) {
	var gotBody map[string]any
	p := newServerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "Revenue grew 12% year over year."},
		})
	})

	out, err := p.Analyze(context.Background(), models.AnalysisRequest{
		Query:        "Summarize the filing",
		DocumentText: "ACME Q3 results...",
		FileName:     "report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12% year over year.", out)

	assert.Equal(t, "llama3", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "Summarize the filing")
	assert.Contains(t, user["content"], "ACME Q3 results")
}

func TestAnalyze_ServerError(t *testing.T) {
	p := newServerProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Analyze(context.Background(), models.AnalysisRequest{Query: "q"})
	require.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

func TestAnalyze_EmptyContent(t *testing.T) {
	p := newServerProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": ""}})
	})

	_, err := p.Analyze(context.Background(), models.AnalysisRequest{Query: "q"})
	require.ErrorIs(t, err, ai.ErrInvalidResponse)
}

func TestAnalyze_Timeout(t *testing.T) {
	p := newServerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect and
		// cancels the request context; otherwise srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Analyze(ctx, models.AnalysisRequest{Query: "q"})
	require.ErrorIs(t, err, ai.ErrInferenceTimeout)
}

func TestAnalyze_Unreachable(t *testing.T) {
	p := ollama.NewProvider(config.OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "llama3"})

	_, err := p.Analyze(context.Background(), models.AnalysisRequest{Query: "q"})
	require.ErrorIs(t, err, ai.ErrProviderUnavailable)
}
