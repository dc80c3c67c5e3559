// Package chat answers questions about an uploaded file from its retrieved
// pages and the recent conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/pdfchat/internal/embedding"
	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/store"
	"github.com/nikhilbhutani/pdfchat/internal/vectorstore"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("file not found")
)

// Embedder is satisfied by *embedding.Service.
type Embedder interface {
	EmbedNormalized(ctx context.Context, texts []string, intent embedding.Intent) ([][]float32, error)
}

type Config struct {
	TopK         int
	HistoryLimit int
	Generate     GenerateOptions
}

type AnswerResult struct {
	Answer string `json:"answer"`
}

type Pipeline struct {
	store     store.DocumentStore
	embedder  Embedder
	vectors   vectorstore.VectorStore
	generator Generator
	cfg       Config
	logger    *slog.Logger
}

func NewPipeline(
	st store.DocumentStore,
	embedder Embedder,
	vectors vectorstore.VectorStore,
	generator Generator,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     st,
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer persists the question, generates a grounded reply and persists it.
// On any failure after the question is stored no reply is written.
func (p *Pipeline) Answer(ctx context.Context, userID, fileID, question string) (*AnswerResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(fileID) == "" || strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: fileId and message are required", ErrValidation)
	}

	file, err := p.store.FindFile(ctx, fileID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find file: %w", err)
	}

	log := p.logger.With("file_id", file.ID)

	userMsg, err := p.store.CreateMessage(ctx, store.CreateMessageParams{
		Text:          question,
		IsUserMessage: true,
		OwnerID:       userID,
		FileID:        file.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}

	answer, err := p.generate(ctx, file.ID, userMsg, question)
	if err != nil {
		log.Error("answer failed", "error", err)
		return nil, err
	}

	if _, err := p.store.CreateMessage(ctx, store.CreateMessageParams{
		Text:          answer,
		IsUserMessage: false,
		OwnerID:       userID,
		FileID:        file.ID,
	}); err != nil {
		log.Error("save answer", "error", err)
		return nil, fmt.Errorf("save answer: %w", err)
	}

	return &AnswerResult{Answer: answer}, nil
}

func (p *Pipeline) generate(ctx context.Context, fileID string, userMsg *models.Message, question string) (string, error) {
	vecs, err := p.embedder.EmbedNormalized(ctx, []string{question}, embedding.IntentQuery)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) != 1 {
		return "", fmt.Errorf("embed question: %w", embedding.ErrCountMismatch)
	}

	matches, err := p.vectors.Query(ctx, fileID, vecs[0], p.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("query vectors: %w", err)
	}

	history, err := p.history(ctx, fileID, userMsg.ID)
	if err != nil {
		return "", err
	}

	turns := BuildTurns(history, BuildContext(matches), question)
	text, err := p.generator.Generate(ctx, turns, SystemInstruction, p.cfg.Generate)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		text = NoResponse
	}
	return text, nil
}

// history returns up to HistoryLimit messages before the current question,
// oldest first. The question itself is carried by the final turn.
func (p *Pipeline) history(ctx context.Context, fileID, currentID string) ([]models.Message, error) {
	if p.cfg.HistoryLimit == 0 {
		return nil, nil
	}

	history, err := p.store.ListRecentMessages(ctx, fileID, currentID, p.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}
