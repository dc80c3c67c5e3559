package chat

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/pdfchat/internal/llm"
)

type GenerateOptions struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	// ThinkingBudget is passed through when non-nil.
	ThinkingBudget *int
}

type Generator interface {
	Generate(ctx context.Context, turns []Turn, systemInstruction string, opts GenerateOptions) (string, error)
}

// LLMGenerator sends turns through the provider gateway.
type LLMGenerator struct {
	gateway llm.Gateway
}

func NewLLMGenerator(gw llm.Gateway) *LLMGenerator {
	return &LLMGenerator{gateway: gw}
}

func (g *LLMGenerator) Generate(ctx context.Context, turns []Turn, systemInstruction string, opts GenerateOptions) (string, error) {
	msgs := make([]llm.Message, 0, len(turns)+1)
	if systemInstruction != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemInstruction})
	}
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == RoleModel {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}

	temp := opts.Temperature
	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Provider:       opts.Provider,
		Model:          opts.Model,
		Messages:       msgs,
		Temperature:    &temp,
		MaxTokens:      opts.MaxTokens,
		ThinkingBudget: opts.ThinkingBudget,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return resp.Content, nil
}
