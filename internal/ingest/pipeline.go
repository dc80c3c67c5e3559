// Package ingest turns an uploaded PDF into page vectors and settles the
// file's upload status.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/pdfchat/internal/document"
	"github.com/nikhilbhutani/pdfchat/internal/embedding"
	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/store"
	"github.com/nikhilbhutani/pdfchat/internal/vectorstore"
)

var (
	ErrFetch   = errors.New("fetch source document")
	ErrNoPages = errors.New("document has no pages")
)

// Embedder is satisfied by *embedding.Service.
type Embedder interface {
	EmbedNormalized(ctx context.Context, texts []string, intent embedding.Intent) ([][]float32, error)
}

type Pipeline struct {
	store    store.DocumentStore
	fetcher  document.Fetcher
	splitter document.Splitter
	embedder Embedder
	vectors  vectorstore.VectorStore
	logger   *slog.Logger
}

func NewPipeline(
	st store.DocumentStore,
	fetcher document.Fetcher,
	splitter document.Splitter,
	embedder Embedder,
	vectors vectorstore.VectorStore,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    st,
		fetcher:  fetcher,
		splitter: splitter,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// Ingest runs once per file in PROCESSING and moves it to SUCCESS or FAILED.
// The returned error is the reason for FAILED, joined with any error from
// the status update itself.
func (p *Pipeline) Ingest(ctx context.Context, file *models.File) error {
	start := time.Now()
	log := p.logger.With("file_id", file.ID)
	log.Info("ingestion started")

	pages, runErr := p.run(ctx, file)

	status := models.UploadStatusSuccess
	if runErr != nil {
		status = models.UploadStatusFailed
	}

	// The status must settle even when ctx is already done.
	if err := p.store.UpdateFileStatus(context.WithoutCancel(ctx), file.ID, status); err != nil {
		log.Error("update upload status", "status", status, "error", err)
		return errors.Join(runErr, fmt.Errorf("update upload status: %w", err))
	}

	if runErr != nil {
		log.Error("ingestion failed", "error", runErr, "duration", time.Since(start))
		return runErr
	}
	log.Info("ingestion finished", "pages", pages, "duration", time.Since(start))
	return nil
}

func (p *Pipeline) run(ctx context.Context, file *models.File) (int, error) {
	data, err := p.fetcher.Fetch(ctx, file.URL)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	pages, err := p.splitter.Pages(data)
	if err != nil {
		return 0, fmt.Errorf("split pages: %w", err)
	}
	if len(pages) == 0 {
		return 0, ErrNoPages
	}

	vecs, err := p.embedder.EmbedNormalized(ctx, pages, embedding.IntentDocument)
	if err != nil {
		return 0, fmt.Errorf("embed pages: %w", err)
	}
	if len(vecs) != len(pages) {
		return 0, fmt.Errorf("embed pages: %w", embedding.ErrCountMismatch)
	}

	chunks := make([]vectorstore.Vector, len(pages))
	for i, text := range pages {
		page := i + 1
		chunks[i] = vectorstore.Vector{
			ID:     vectorstore.ChunkID(file.ID, page),
			Values: vecs[i],
			Metadata: vectorstore.Metadata{
				FileID: file.ID,
				Page:   page,
				Text:   text,
			},
		}
	}

	if err := p.vectors.Upsert(ctx, file.ID, chunks); err != nil {
		p.cleanup(ctx, file.ID)
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	return len(pages), nil
}

// cleanup drops whatever part of a failed batch reached the vector store.
func (p *Pipeline) cleanup(ctx context.Context, namespace string) {
	if err := p.vectors.DeleteNamespace(context.WithoutCancel(ctx), namespace); err != nil {
		p.logger.Warn("remove partial chunks", "file_id", namespace, "error", err)
	}
}
