package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a brute-force in-process store. Stored vectors are assumed
// L2-normalized, so the dot product is the cosine similarity.
type MemoryStore struct {
	mu         sync.RWMutex
	dimension  int
	namespaces map[string]map[string]Vector
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension:  dimension,
		namespaces: make(map[string]map[string]Vector),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, namespace string, vectors []Vector) error {
	if err := checkDimensions(vectors, s.dimension); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]Vector, len(vectors))
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		v.Values = append([]float32(nil), v.Values...)
		ns[v.ID] = v
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.namespaces[namespace]))
	for _, v := range s.namespaces[namespace] {
		matches = append(matches, Match{ID: v.ID, Score: dot(v.Values, vector), Metadata: v.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if topK < 0 {
		topK = 0
	}
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

// Count reports how many vectors a namespace holds.
func (s *MemoryStore) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
