package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/pdfchat/internal/config"
)

var ErrNoProvider = errors.New("provider not configured")

// Routing picks providers for requests that do not name one. FallbackModel
// replaces the request model on the fallback attempt. When it is empty the
// fallback provider's default chat model is used.
type Routing struct {
	Default       string
	Fallback      string
	FallbackModel string
}

type gateway struct {
	providers map[string]Provider
	routing   Routing
	logger    *slog.Logger
}

// NewGateway registers every provider that has credentials in cfg.
func NewGateway(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Gateway, error) {
	var providers []Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, NewOllamaProvider(cfg.OllamaURL))
	}
	if cfg.GeminiKey != "" {
		p, err := NewGeminiProvider(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	routing := Routing{
		Default:       cfg.DefaultProvider,
		Fallback:      cfg.FallbackProvider,
		FallbackModel: cfg.FallbackModel,
	}
	return NewGatewayWithProviders(routing, logger, providers...), nil
}

func NewGatewayWithProviders(routing Routing, logger *slog.Logger, providers ...Provider) Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &gateway{
		providers: make(map[string]Provider, len(providers)),
		routing:   routing,
		logger:    logger,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, name)
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.routing.Default
	}

	fallback := g.routing.Fallback
	resp, err := g.chat(ctx, providerName, req)
	if err != nil && fallback != "" && fallback != providerName && ctx.Err() == nil {
		g.logger.Warn("primary provider failed, trying fallback",
			"primary", providerName,
			"fallback", fallback,
			"fallback_model", g.routing.FallbackModel,
			"error", err,
		)
		// Model names are provider specific.
		fbReq := req
		fbReq.Provider = fallback
		fbReq.Model = g.routing.FallbackModel
		return g.chat(ctx, fallback, fbReq)
	}
	return resp, err
}

func (g *gateway) chat(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.ChatCompletion(ctx, req)
}

func (g *gateway) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.routing.Default
	}

	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	return p.GenerateEmbedding(ctx, req)
}
