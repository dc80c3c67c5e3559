package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/pdfchat/internal/models"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const fileColumns = `id, key, name, user_id, url, upload_status, created_at, updated_at`

const messageColumns = `id, text, is_user_message, user_id, file_id, created_at`

func (s *PostgresStore) CreateFile(ctx context.Context, p CreateFileParams) (*models.File, error) {
	status := p.Status
	if status == "" {
		status = models.UploadStatusProcessing
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO files (id, key, name, user_id, url, upload_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+fileColumns,
		uuid.NewString(), p.Key, p.Name, p.OwnerID, p.URL, string(status),
	)
	f, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) UpdateFileStatus(ctx context.Context, fileID string, status models.UploadStatus) error {
	if err := checkTargetStatus(status); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE files SET upload_status = $2, updated_at = now()
		 WHERE id = $1 AND upload_status = 'PROCESSING'`,
		fileID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM files WHERE id = $1)`, fileID).Scan(&exists); err != nil {
		return fmt.Errorf("check file: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusFinal
}

func (s *PostgresStore) FindFile(ctx context.Context, fileID, ownerID string) (*models.File, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND user_id = $2`,
		fileID, ownerID,
	)
	f, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	row := s.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, fileID)
	f, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListFiles(ctx context.Context, ownerID string) ([]models.File, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+fileColumns+` FROM files WHERE user_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

func (s *PostgresStore) CreateMessage(ctx context.Context, p CreateMessageParams) (*models.Message, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO messages (id, text, is_user_message, user_id, file_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+messageColumns,
		uuid.NewString(), p.Text, p.IsUserMessage, p.OwnerID, p.FileID,
	)
	var m models.Message
	if err := row.Scan(&m.ID, &m.Text, &m.IsUserMessage, &m.OwnerID, &m.FileID, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) ListRecentMessages(ctx context.Context, fileID, beforeID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+`, seq FROM messages
			WHERE file_id = $1
			  AND ($2 = '' OR (created_at, seq) < (SELECT created_at, seq FROM messages WHERE id = $2 AND file_id = $1))
			ORDER BY created_at DESC, seq DESC
			LIMIT $3
		 ) recent
		 ORDER BY created_at ASC, seq ASC`,
		fileID, beforeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	return collectMessages(rows)
}

func (s *PostgresStore) ListMessages(ctx context.Context, fileID string, limit int, cursor string) (*MessagePage, error) {
	limit = clampPageSize(limit)

	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE file_id = $1
		   AND ($2 = '' OR (created_at, seq) < (SELECT created_at, seq FROM messages WHERE id = $2 AND file_id = $1))
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $3`,
		fileID, cursor, limit+1,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Messages: msgs}
	if len(msgs) > limit {
		page.Messages = msgs[:limit]
		page.NextCursor = msgs[limit-1].ID
	}
	return page, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Text, &m.IsUserMessage, &m.OwnerID, &m.FileID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	var status string
	err := row.Scan(&f.ID, &f.Key, &f.Name, &f.OwnerID, &f.URL, &status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.UploadStatus = models.UploadStatus(status)
	return &f, nil
}
