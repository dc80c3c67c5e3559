package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// newGeminiTestServer answers generateContent and batchEmbedContents and
// records the raw request body of the last call.
func newGeminiTestServer(t *testing.T, body *string) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			_, _ = w.Write([]byte(`{
				"candidates": [{"content": {"role": "model", "parts": [{"text": "grounded answer"}]}, "finishReason": "STOP"}],
				"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 3, "totalTokenCount": 15}
			}`))
		case strings.HasSuffix(r.URL.Path, ":batchEmbedContents"):
			_, _ = w.Write([]byte(`{"embeddings": [{"values": [0.6, 0.8]}, {"values": [1, 0]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	p, err := newGeminiProvider(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	return p
}

func TestGemini_ChatMapsRolesAndGenerationConfig(t *testing.T) {
	var body string
	p := newGeminiTestServer(t, &body)

	temp := 0.2
	budget := 0
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []Message{
			{Role: RoleSystem, Content: "answer from context only"},
			{Role: RoleUser, Content: "earlier question"},
			{Role: RoleAssistant, Content: "earlier answer"},
			{Role: RoleUser, Content: "CONTEXT:\npage\n\nUSER QUESTION:\nq"},
		},
		Temperature:    &temp,
		MaxTokens:      256,
		ThinkingBudget: &budget,
	})
	require.NoError(t, err)

	assert.Equal(t, "grounded answer", resp.Content)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 3, resp.OutputTokens)
	assert.Equal(t, 15, resp.TotalTokens)

	assert.Contains(t, body, `"systemInstruction"`)
	assert.Contains(t, body, "answer from context only")
	assert.Contains(t, body, `"role":"model"`)
	assert.Contains(t, body, `"thinkingBudget":0`)
	assert.Contains(t, body, `"maxOutputTokens":256`)
	assert.Contains(t, body, `"temperature":0.2`)
	assert.Equal(t, 1, strings.Count(body, "answer from context only"), "system text must not be sent as a turn")
}

func TestGemini_EmbeddingSendsTaskTypeAndDimensions(t *testing.T) {
	var body string
	p := newGeminiTestServer(t, &body)

	resp, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{
		Input:      []string{"first", "second"},
		TaskType:   "RETRIEVAL_QUERY",
		Dimensions: 768,
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-embedding-001", resp.Model)
	require.Len(t, resp.Embeddings, 2)
	assert.Equal(t, []float32{0.6, 0.8}, resp.Embeddings[0])
	assert.Equal(t, []float32{1, 0}, resp.Embeddings[1])

	assert.Contains(t, body, `"taskType":"RETRIEVAL_QUERY"`)
	assert.Contains(t, body, `"outputDimensionality":768`)
}
