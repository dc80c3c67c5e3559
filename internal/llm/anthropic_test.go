package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type anthropicRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func TestAnthropic_ChatMapsSystemAndRoles(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "from "}, {"type": "text", "text": "the pdf"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	temp := 0.2
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model: "claude-3-5-haiku-latest",
		Messages: []Message{
			{Role: RoleSystem, Content: "answer from context only"},
			{Role: RoleUser, Content: "q1"},
			{Role: RoleAssistant, Content: "a1"},
			{Role: RoleUser, Content: "q2"},
		},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "from the pdf", resp.Content)
	assert.Equal(t, 15, resp.TotalTokens)

	assert.Equal(t, "claude-3-5-haiku-latest", got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.Len(t, got.System, 1)
	assert.Equal(t, "answer from context only", got.System[0].Text)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "q2", got.Messages[2].Content[0].Text)
}

func TestAnthropic_EmbeddingUnsupported(t *testing.T) {
	p := NewAnthropicProvider("test-key")
	_, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Input: []string{"x"}})
	assert.Error(t, err)
}
