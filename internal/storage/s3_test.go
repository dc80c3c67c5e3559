package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestS3(t *testing.T, publicBase string) (*S3Storage, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
	})
	return NewS3StorageFromClient(client, "pdfs", publicBase, time.Hour), &reqs
}

func TestS3Storage_UploadAndDelete(t *testing.T) {
	s, reqs := newTestS3(t, "")
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "users/u1/doc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf"))
	require.NoError(t, s.Delete(ctx, "users/u1/doc.pdf"))

	require.Len(t, *reqs, 2)
	assert.Equal(t, http.MethodPut, (*reqs)[0].method)
	assert.Equal(t, "/pdfs/users/u1/doc.pdf", (*reqs)[0].path)
	assert.Contains(t, (*reqs)[0].body, "%PDF-1.4")
	assert.Equal(t, http.MethodDelete, (*reqs)[1].method)
}

func TestS3Storage_PresignedURL(t *testing.T) {
	s, reqs := newTestS3(t, "")

	u, err := s.URL(context.Background(), "users/u1/doc.pdf")
	require.NoError(t, err)
	assert.Contains(t, u, "/pdfs/users/u1/doc.pdf")
	assert.Contains(t, u, "X-Amz-Expires=3600")
	assert.Empty(t, *reqs, "presigning must not call the server")
}

func TestS3Storage_PublicURL(t *testing.T) {
	s, _ := newTestS3(t, "https://cdn.example.com/")

	u, err := s.URL(context.Background(), "users/u1/my doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/users/u1/my%20doc.pdf", u)
}

func TestNewKey(t *testing.T) {
	k1 := NewKey("u1")
	k2 := NewKey("u1")
	assert.True(t, strings.HasPrefix(k1, "users/u1/"))
	assert.True(t, strings.HasSuffix(k1, ".pdf"))
	assert.NotEqual(t, k1, k2)
}
