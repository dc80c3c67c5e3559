// Package store persists files and chat messages.
package store

import (
	"context"
	"errors"

	"github.com/nikhilbhutani/pdfchat/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrStatusFinal = errors.New("file upload status is final")
	ErrBadStatus   = errors.New("invalid target upload status")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type CreateFileParams struct {
	Key     string
	Name    string
	OwnerID string
	URL     string
	Status  models.UploadStatus
}

type CreateMessageParams struct {
	Text          string
	IsUserMessage bool
	OwnerID       string
	FileID        string
}

// MessagePage is one page of a file's conversation, newest first.
// NextCursor is empty on the last page.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

type DocumentStore interface {
	CreateFile(ctx context.Context, p CreateFileParams) (*models.File, error)
	// UpdateFileStatus moves a PROCESSING file to SUCCESS or FAILED. Any other
	// transition returns ErrStatusFinal or ErrBadStatus.
	UpdateFileStatus(ctx context.Context, fileID string, status models.UploadStatus) error
	// FindFile returns the file only if ownerID owns it, ErrNotFound otherwise.
	FindFile(ctx context.Context, fileID, ownerID string) (*models.File, error)
	GetFile(ctx context.Context, fileID string) (*models.File, error)
	ListFiles(ctx context.Context, ownerID string) ([]models.File, error)

	CreateMessage(ctx context.Context, p CreateMessageParams) (*models.Message, error)
	// ListRecentMessages returns at most limit of the newest messages of a
	// file created before beforeID, ordered oldest to newest. An empty
	// beforeID starts from the newest message. An unknown beforeID yields
	// no messages.
	ListRecentMessages(ctx context.Context, fileID, beforeID string, limit int) ([]models.Message, error)
	// ListMessages pages backwards through a file's messages. cursor is the id
	// of the last message of the previous page, or empty for the first page.
	ListMessages(ctx context.Context, fileID string, limit int, cursor string) (*MessagePage, error)
}

func clampPageSize(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func checkTargetStatus(status models.UploadStatus) error {
	if !status.Terminal() {
		return ErrBadStatus
	}
	return nil
}
