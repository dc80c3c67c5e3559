package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// PgDB is the subset of *pgxpool.Pool the pgvector store uses.
type PgDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgVectorStore struct {
	db        PgDB
	dimension int
}

func NewPgVectorStore(db PgDB, dimension int) *PgVectorStore {
	return &PgVectorStore{db: db, dimension: dimension}
}

func (s *PgVectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if err := checkDimensions(vectors, s.dimension); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range vectors {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_vectors (id, namespace, page, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET namespace = EXCLUDED.namespace, page = EXCLUDED.page,
			     content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
			v.ID, namespace, v.Metadata.Page, v.Metadata.Text, pgvector.NewVector(v.Values),
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *PgVectorStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(vector), s.dimension)
	}
	if topK <= 0 {
		return []Match{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, page, content, 1 - (embedding <=> $1) AS score
		 FROM chunk_vectors
		 WHERE namespace = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vector), namespace, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		m := Match{Metadata: Metadata{FileID: namespace}}
		if err := rows.Scan(&m.ID, &m.Metadata.Page, &m.Metadata.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

func (s *PgVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM chunk_vectors WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	return nil
}
