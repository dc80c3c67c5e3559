// Package storage keeps uploaded PDFs in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	// URL returns an address the ingestion fetcher can GET the object from.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh object key under the user's prefix.
func NewKey(userID string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("users/%s/%d/%02d/%s.pdf", userID, d.Year(), d.Month(), uuid.New())
}
