package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQdrant struct {
	QdrantClient
	collections []string
	created     *qdrant.CreateCollection
	indexed     *qdrant.CreateFieldIndexCollection
	upserted    *qdrant.UpsertPoints
	queried     *qdrant.QueryPoints
	deleted     *qdrant.DeletePoints
	results     []*qdrant.ScoredPoint
}

func (f *fakeQdrant) ListCollections(context.Context) ([]string, error) {
	return f.collections, nil
}

func (f *fakeQdrant) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return nil
}

func (f *fakeQdrant) CreateFieldIndex(_ context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error) {
	f.indexed = req
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserted = req
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queried = req
	return f.results, nil
}

func (f *fakeQdrant) Delete(_ context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deleted = req
	return &qdrant.UpdateResult{}, nil
}

func TestQdrantStore_EnsureCollection(t *testing.T) {
	fake := &fakeQdrant{collections: []string{"other"}}
	s := NewQdrantStore(fake, "pdf_chunks", 768)

	require.NoError(t, s.EnsureCollection(context.Background()))
	require.NotNil(t, fake.created)
	assert.Equal(t, "pdf_chunks", fake.created.CollectionName)
	require.NotNil(t, fake.indexed)
	assert.Equal(t, "namespace", fake.indexed.FieldName)

	existing := &fakeQdrant{collections: []string{"pdf_chunks"}}
	require.NoError(t, NewQdrantStore(existing, "pdf_chunks", 768).EnsureCollection(context.Background()))
	assert.Nil(t, existing.created)
}

func TestQdrantStore_UpsertMapsIDsAndPayload(t *testing.T) {
	fake := &fakeQdrant{}
	s := NewQdrantStore(fake, "pdf_chunks", 2)

	require.NoError(t, s.Upsert(context.Background(), "f1", []Vector{vec("f1-page-1", 1, 1, 0)}))
	require.NotNil(t, fake.upserted)
	require.Len(t, fake.upserted.Points, 1)

	p := fake.upserted.Points[0]
	assert.Equal(t, pointID("f1-page-1"), p.GetId().GetUuid())
	assert.Equal(t, "f1", p.Payload["namespace"].GetStringValue())
	assert.Equal(t, "f1-page-1", p.Payload["chunk_id"].GetStringValue())
	assert.Equal(t, int64(1), p.Payload["page"].GetIntegerValue())
}

func TestQdrantStore_PointIDIsStable(t *testing.T) {
	assert.Equal(t, pointID("f1-page-1"), pointID("f1-page-1"))
	assert.NotEqual(t, pointID("f1-page-1"), pointID("f1-page-2"))
}

func TestQdrantStore_QueryFiltersNamespace(t *testing.T) {
	fake := &fakeQdrant{results: []*qdrant.ScoredPoint{{
		Score: 0.87,
		Payload: qdrant.NewValueMap(map[string]any{
			"chunk_id": "f1-page-3",
			"file_id":  "f1",
			"page":     int64(3),
			"text":     "X is Y",
		}),
	}}}
	s := NewQdrantStore(fake, "pdf_chunks", 2)

	matches, err := s.Query(context.Background(), "f1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "f1-page-3", matches[0].ID)
	assert.Equal(t, 3, matches[0].Metadata.Page)
	assert.InDelta(t, 0.87, matches[0].Score, 1e-6)

	require.NotNil(t, fake.queried)
	assert.Equal(t, uint64(5), fake.queried.GetLimit())
	require.Len(t, fake.queried.Filter.Must, 1)
	assert.Equal(t, "namespace", fake.queried.Filter.Must[0].GetField().GetKey())
}

func TestQdrantStore_DeleteNamespace(t *testing.T) {
	fake := &fakeQdrant{}
	require.NoError(t, NewQdrantStore(fake, "pdf_chunks", 2).DeleteNamespace(context.Background(), "f1"))
	require.NotNil(t, fake.deleted)
	assert.NotNil(t, fake.deleted.GetPoints().GetFilter())
}
