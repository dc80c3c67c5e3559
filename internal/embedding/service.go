package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/pdfchat/internal/llm"
)

var (
	ErrCountMismatch = errors.New("embedding count does not match input count")
	ErrDimension     = errors.New("embedding shorter than target dimension")
	ErrZeroVector    = errors.New("embedding has zero norm")
)

// Intent tells the provider how the text will be used.
type Intent string

const (
	IntentDocument Intent = "document"
	IntentQuery    Intent = "query"
)

func (i Intent) TaskType() string {
	if i == IntentQuery {
		return llm.TaskRetrievalQuery
	}
	return llm.TaskRetrievalDocument
}

// Cache is satisfied by *cache.Cache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

const batchSize = 100

type Service struct {
	gateway    llm.Gateway
	provider   string
	model      string
	dimensions int
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

type Option func(*Service)

// WithCache caches single query embeddings for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(gw llm.Gateway, provider, model string, dimensions int, opts ...Option) *Service {
	if model == "" {
		model = "gemini-embedding-001"
	}
	s := &Service{
		gateway:    gw,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns one raw vector per text, in input order.
func (s *Service) Embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if len(texts) == 1 && intent == IntentQuery && s.cache != nil {
		return s.embedQueryCached(ctx, texts[0])
	}
	return s.embed(ctx, texts, intent)
}

func (s *Service) embed(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batch := texts[i:end]

		resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
			Provider:   s.provider,
			Model:      s.model,
			Input:      batch,
			TaskType:   intent.TaskType(),
			Dimensions: s.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i/batchSize, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embed batch %d: got %d for %d inputs: %w",
				i/batchSize, len(resp.Embeddings), len(batch), ErrCountMismatch)
		}

		all = append(all, resp.Embeddings...)
	}

	return all, nil
}

func (s *Service) embedQueryCached(ctx context.Context, text string) ([][]float32, error) {
	key := s.cacheKey(text)

	var vec []float32
	if err := s.cache.Get(ctx, key, &vec); err == nil && len(vec) > 0 {
		return [][]float32{vec}, nil
	}

	out, err := s.embed(ctx, []string{text}, IntentQuery)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out[0], s.cacheTTL); err != nil {
		s.logger.Warn("cache query embedding", "error", err)
	}
	return out, nil
}

func (s *Service) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%d:%s", s.model, s.dimensions, hex.EncodeToString(sum[:]))
}

// EmbedNormalized embeds texts and normalizes each vector to the service
// dimension.
func (s *Service) EmbedNormalized(ctx context.Context, texts []string, intent Intent) ([][]float32, error) {
	raw, err := s.Embed(ctx, texts, intent)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(raw))
	for i, v := range raw {
		n, err := Normalize(v, s.dimensions)
		if err != nil {
			return nil, fmt.Errorf("normalize embedding %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}
