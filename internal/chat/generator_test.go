package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/pdfchat/internal/llm"
)

type recordingGateway struct {
	llm.Gateway
	req llm.ChatRequest
}

func (g *recordingGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.req = req
	return &llm.ChatResponse{Content: "hi"}, nil
}

func TestLLMGenerator_MapsTurns(t *testing.T) {
	gw := &recordingGateway{}
	budget := 0
	g := NewLLMGenerator(gw)

	out, err := g.Generate(context.Background(), []Turn{
		{Role: RoleUser, Text: "q1"},
		{Role: RoleModel, Text: "a1"},
		{Role: RoleUser, Text: "q2"},
	}, "be helpful", GenerateOptions{Provider: "gemini", Model: "m", Temperature: 0.2, ThinkingBudget: &budget})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "be helpful"},
		{Role: llm.RoleUser, Content: "q1"},
		{Role: llm.RoleAssistant, Content: "a1"},
		{Role: llm.RoleUser, Content: "q2"},
	}, gw.req.Messages)
	assert.Equal(t, "gemini", gw.req.Provider)
	require.NotNil(t, gw.req.Temperature)
	assert.InDelta(t, 0.2, *gw.req.Temperature, 1e-9)
	require.NotNil(t, gw.req.ThinkingBudget)
	assert.Zero(t, *gw.req.ThinkingBudget)
}
