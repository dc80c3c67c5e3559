package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/pdfchat/internal/models"
)

// MemoryStore keeps files and messages in process memory. Messages are held
// in insertion order and their timestamps never decrease.
type MemoryStore struct {
	mu       sync.RWMutex
	files    map[string]*models.File
	messages []models.Message
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]*models.File),
		now:   time.Now,
	}
}

func (s *MemoryStore) CreateFile(_ context.Context, p CreateFileParams) (*models.File, error) {
	status := p.Status
	if status == "" {
		status = models.UploadStatusProcessing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	f := &models.File{
		ID:           uuid.NewString(),
		Key:          p.Key,
		Name:         p.Name,
		OwnerID:      p.OwnerID,
		URL:          p.URL,
		UploadStatus: status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.files[f.ID] = f

	out := *f
	return &out, nil
}

func (s *MemoryStore) UpdateFileStatus(_ context.Context, fileID string, status models.UploadStatus) error {
	if err := checkTargetStatus(status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	if f.UploadStatus != models.UploadStatusProcessing {
		return ErrStatusFinal
	}
	f.UploadStatus = status
	f.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) FindFile(_ context.Context, fileID, ownerID string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok || f.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *MemoryStore) GetFile(_ context.Context, fileID string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *MemoryStore) ListFiles(_ context.Context, ownerID string) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := []models.File{}
	for _, f := range s.files {
		if f.OwnerID == ownerID {
			files = append(files, *f)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, p CreateMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if n := len(s.messages); n > 0 && ts.Before(s.messages[n-1].CreatedAt) {
		ts = s.messages[n-1].CreatedAt
	}

	m := models.Message{
		ID:            uuid.NewString(),
		Text:          p.Text,
		IsUserMessage: p.IsUserMessage,
		OwnerID:       p.OwnerID,
		FileID:        p.FileID,
		CreatedAt:     ts,
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *MemoryStore) ListRecentMessages(_ context.Context, fileID, beforeID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := []models.Message{}
	if limit <= 0 {
		return msgs, nil
	}
	start := s.indexBefore(fileID, beforeID)
	for i := start; i >= 0 && len(msgs) < limit; i-- {
		if s.messages[i].FileID == fileID {
			msgs = append(msgs, s.messages[i])
		}
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, fileID string, limit int, cursor string) (*MessagePage, error) {
	limit = clampPageSize(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := s.indexBefore(fileID, cursor)
	page := &MessagePage{Messages: []models.Message{}}
	for i := start; i >= 0; i-- {
		if s.messages[i].FileID != fileID {
			continue
		}
		if len(page.Messages) == limit {
			page.NextCursor = page.Messages[limit-1].ID
			break
		}
		page.Messages = append(page.Messages, s.messages[i])
	}
	return page, nil
}

// indexBefore returns the index of the message just before id within
// s.messages, len-1 for an empty id, or -1 when id is not a message of
// fileID. Callers hold s.mu.
func (s *MemoryStore) indexBefore(fileID, id string) int {
	if id == "" {
		return len(s.messages) - 1
	}
	for i := range s.messages {
		if s.messages[i].ID == id && s.messages[i].FileID == fileID {
			return i - 1
		}
	}
	return -1
}
