// Package vectorstore holds page embeddings partitioned by namespace.
// Every file's chunks live in a namespace equal to the file id.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

type Metadata struct {
	FileID string `json:"fileId"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// Query returns at most topK matches in descending similarity.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}

// ChunkID is the id of the chunk built from a 1-based page index.
func ChunkID(fileID string, page int) string {
	return fmt.Sprintf("%s-page-%d", fileID, page)
}

func checkDimensions(vectors []Vector, dim int) error {
	for _, v := range vectors {
		if len(v.Values) != dim {
			return fmt.Errorf("%w: %s has %d, want %d", ErrDimensionMismatch, v.ID, len(v.Values), dim)
		}
	}
	return nil
}
