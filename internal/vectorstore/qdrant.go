package vectorstore

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantClient is the subset of *qdrant.Client the store calls.
type QdrantClient interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, req *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
}

const (
	payloadNamespace = "namespace"
	payloadChunkID   = "chunk_id"
	payloadFileID    = "file_id"
	payloadPage      = "page"
	payloadText      = "text"
)

// QdrantStore keeps all namespaces in one collection and filters on the
// namespace payload field.
type QdrantStore struct {
	client     QdrantClient
	collection string
	dimension  int
}

// NewQdrantClient dials addr ("host:port" of the gRPC endpoint).
func NewQdrantClient(addr, apiKey string) (*qdrant.Client, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant port: %w", err)
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: apiKey != "",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return client, nil
}

func NewQdrantStore(client QdrantClient, collection string, dimension int) *QdrantStore {
	return &QdrantStore{client: client, collection: collection, dimension: dimension}
}

// EnsureCollection creates the collection and its namespace index when absent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if slices.Contains(collections, s.collection) {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      payloadNamespace,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create namespace index: %w", err)
	}
	return nil
}

// pointID maps a chunk id onto the UUID space Qdrant accepts.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(payloadNamespace, namespace)},
	}
}

func (s *QdrantStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if err := checkDimensions(vectors, s.dimension); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(v.ID)),
			Vectors: qdrant.NewVectors(v.Values...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadNamespace: namespace,
				payloadChunkID:   v.ID,
				payloadFileID:    v.Metadata.FileID,
				payloadPage:      int64(v.Metadata.Page),
				payloadText:      v.Metadata.Text,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(vector), s.dimension)
	}
	if topK <= 0 {
		return []Match{}, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         namespaceFilter(namespace),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		m := Match{Score: float64(p.GetScore())}
		if v, ok := p.Payload[payloadChunkID]; ok {
			m.ID = v.GetStringValue()
		}
		if v, ok := p.Payload[payloadFileID]; ok {
			m.Metadata.FileID = v.GetStringValue()
		}
		if v, ok := p.Payload[payloadPage]; ok {
			m.Metadata.Page = int(v.GetIntegerValue())
		}
		if v, ok := p.Payload[payloadText]; ok {
			m.Metadata.Text = v.GetStringValue()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *QdrantStore) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(namespaceFilter(namespace)),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete namespace: %w", err)
	}
	return nil
}
