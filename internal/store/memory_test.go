package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/pdfchat/internal/models"
)

func newFile(t *testing.T, s *MemoryStore, owner string) *models.File {
	t.Helper()
	f, err := s.CreateFile(context.Background(), CreateFileParams{
		Key: "k", Name: "doc.pdf", OwnerID: owner, URL: "http://files/doc.pdf",
	})
	require.NoError(t, err)
	return f
}

func addMessages(t *testing.T, s *MemoryStore, fileID string, texts ...string) []*models.Message {
	t.Helper()
	var out []*models.Message
	for i, text := range texts {
		m, err := s.CreateMessage(context.Background(), CreateMessageParams{
			Text: text, IsUserMessage: i%2 == 0, OwnerID: "u1", FileID: fileID,
		})
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestMemoryStore_FileLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	f := newFile(t, s, "u1")
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, models.UploadStatusProcessing, f.UploadStatus)

	_, err := s.FindFile(ctx, f.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.FindFile(ctx, f.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	require.NoError(t, s.UpdateFileStatus(ctx, f.ID, models.UploadStatusSuccess))
	assert.ErrorIs(t, s.UpdateFileStatus(ctx, f.ID, models.UploadStatusFailed), ErrStatusFinal)

	got, err = s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusSuccess, got.UploadStatus)
}

func TestMemoryStore_UpdateFileStatusRejects(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")

	assert.ErrorIs(t, s.UpdateFileStatus(ctx, f.ID, models.UploadStatusProcessing), ErrBadStatus)
	assert.ErrorIs(t, s.UpdateFileStatus(ctx, "missing", models.UploadStatusFailed), ErrNotFound)
}

func TestMemoryStore_ReturnedFileIsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")

	f.UploadStatus = models.UploadStatusFailed
	got, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusProcessing, got.UploadStatus)
}

func TestMemoryStore_ListFilesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first := newFile(t, s, "u1")
	second := newFile(t, s, "u1")
	newFile(t, s, "u2")

	files, err := s.ListFiles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.ID, files[0].ID)
	assert.Equal(t, first.ID, files[1].ID)
}

func TestMemoryStore_ListRecentMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")
	other := newFile(t, s, "u1")

	addMessages(t, s, f.ID, "m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8")
	addMessages(t, s, other.ID, "x1")

	msgs, err := s.ListRecentMessages(ctx, f.ID, "", 6)
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	var texts []string
	for i, m := range msgs {
		texts = append(texts, m.Text)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
	assert.Equal(t, []string{"m3", "m4", "m5", "m6", "m7", "m8"}, texts)

	msgs, err = s.ListRecentMessages(ctx, f.ID, "", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStore_TimestampsNeverDecrease(t *testing.T) {
	s := NewMemoryStore()
	f := newFile(t, s, "u1")

	times := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC),
	}
	s.now = func() time.Time {
		next := times[0]
		times = times[1:]
		return next
	}

	msgs := addMessages(t, s, f.ID, "a", "b")
	assert.Equal(t, msgs[0].CreatedAt, msgs[1].CreatedAt)
}

func TestMemoryStore_ListMessagesPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")
	addMessages(t, s, f.ID, "m1", "m2", "m3", "m4", "m5")

	page, err := s.ListMessages(ctx, f.ID, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m5", page.Messages[0].Text)
	assert.Equal(t, "m4", page.Messages[1].Text)
	require.NotEmpty(t, page.NextCursor)

	page, err = s.ListMessages(ctx, f.ID, 2, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "m3", page.Messages[0].Text)
	assert.Equal(t, "m2", page.Messages[1].Text)

	page, err = s.ListMessages(ctx, f.ID, 2, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "m1", page.Messages[0].Text)
	assert.Empty(t, page.NextCursor)
}

func TestMemoryStore_ListMessagesExactPage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")
	addMessages(t, s, f.ID, "m1", "m2")

	page, err := s.ListMessages(ctx, f.ID, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Messages, 2)
	assert.Empty(t, page.NextCursor)

	page, err = s.ListMessages(ctx, f.ID, 2, "unknown")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, clampPageSize(0))
	assert.Equal(t, DefaultPageSize, clampPageSize(-3))
	assert.Equal(t, MaxPageSize, clampPageSize(500))
	assert.Equal(t, 7, clampPageSize(7))
}

func TestMemoryStore_ListRecentMessagesBefore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	f := newFile(t, s, "u1")
	other := newFile(t, s, "u1")

	msgs := addMessages(t, s, f.ID, "m1", "m2", "m3", "m4", "m5")
	foreign := addMessages(t, s, other.ID, "x1")

	got, err := s.ListRecentMessages(ctx, f.ID, msgs[4].ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m3", got[0].Text)
	assert.Equal(t, "m4", got[1].Text)

	got, err = s.ListRecentMessages(ctx, f.ID, msgs[0].ID, 6)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ListRecentMessages(ctx, f.ID, foreign[0].ID, 6)
	require.NoError(t, err)
	assert.Empty(t, got, "a message of another file is not a valid anchor")
}
