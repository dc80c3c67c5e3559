package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdfchat/internal/ingest"
	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/queue"
	"github.com/nikhilbhutani/pdfchat/internal/store"
)

// FileStore is the part of store.DocumentStore the worker needs.
type FileStore interface {
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	UpdateFileStatus(ctx context.Context, fileID string, status models.UploadStatus) error
}

type IngestWorker struct {
	files    FileStore
	ingester ingest.Ingester
	logger   *slog.Logger
}

func NewIngestWorker(files FileStore, ingester ingest.Ingester, logger *slog.Logger) *IngestWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestWorker{files: files, ingester: ingester, logger: logger}
}

// ProcessTask runs ingestion for one file. Files no longer in PROCESSING
// are skipped so a duplicate delivery cannot overwrite a final status.
func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.FileIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.FileID == "" {
		return fmt.Errorf("empty file id: %w", asynq.SkipRetry)
	}

	log := w.logger.With("file_id", payload.FileID)

	file, err := w.files.GetFile(ctx, payload.FileID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("file for ingest task not found")
		return nil
	}
	if err != nil {
		// The task is never retried, so the file must not be left in PROCESSING.
		if uerr := w.files.UpdateFileStatus(context.WithoutCancel(ctx), payload.FileID, models.UploadStatusFailed); uerr != nil {
			log.Error("mark unreadable file failed", "error", uerr)
		}
		return fmt.Errorf("get file: %w: %w", err, asynq.SkipRetry)
	}
	if file.UploadStatus != models.UploadStatusProcessing {
		log.Info("skipping ingest, status already final", "status", file.UploadStatus)
		return nil
	}

	if err := w.ingester.Ingest(ctx, file); err != nil {
		return fmt.Errorf("ingest file: %w: %w", err, asynq.SkipRetry)
	}
	return nil
}
