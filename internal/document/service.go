// Package document accepts uploaded PDFs and loads them back for ingestion.
package document

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/storage"
	"github.com/nikhilbhutani/pdfchat/internal/store"
	"github.com/nikhilbhutani/pdfchat/pkg/textextract"
)

var ErrNotPDF = textextract.ErrNotPDF

// Trigger schedules ingestion of a freshly created file.
type Trigger interface {
	Trigger(ctx context.Context, file *models.File) error
}

type Service struct {
	store   store.DocumentStore
	storage storage.Storage
	trigger Trigger
	logger  *slog.Logger
}

func NewService(st store.DocumentStore, objects storage.Storage, trigger Trigger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		storage: objects,
		trigger: trigger,
		logger:  logger,
	}
}

type UploadRequest struct {
	OwnerID string
	Name    string
	Size    int64
	Data    io.Reader
}

// Upload stores the PDF, creates its File row in PROCESSING and schedules
// ingestion. When scheduling fails the file is marked FAILED and returned
// together with the error.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.File, error) {
	br := bufio.NewReader(req.Data)
	head, _ := br.Peek(5)
	if !textextract.LooksLikePDF(head) {
		return nil, ErrNotPDF
	}

	key := storage.NewKey(req.OwnerID)
	if err := s.storage.Upload(ctx, key, br, req.Size, "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	url, err := s.storage.URL(ctx, key)
	if err != nil {
		s.removeObject(ctx, key)
		return nil, fmt.Errorf("resolve object url: %w", err)
	}

	file, err := s.store.CreateFile(ctx, store.CreateFileParams{
		Key:     key,
		Name:    req.Name,
		OwnerID: req.OwnerID,
		URL:     url,
		Status:  models.UploadStatusProcessing,
	})
	if err != nil {
		s.removeObject(ctx, key)
		return nil, fmt.Errorf("create file: %w", err)
	}

	if err := s.trigger.Trigger(ctx, file); err != nil {
		if uerr := s.store.UpdateFileStatus(context.WithoutCancel(ctx), file.ID, models.UploadStatusFailed); uerr == nil {
			file.UploadStatus = models.UploadStatusFailed
		} else {
			s.logger.Error("mark unscheduled file failed", "file_id", file.ID, "error", uerr)
		}
		return file, fmt.Errorf("schedule ingestion: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", file.ID, "size", req.Size)
	return file, nil
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("remove orphaned object", "key", key, "error", err)
	}
}
