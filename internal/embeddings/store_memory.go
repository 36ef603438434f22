package embeddings

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryChunkStore is an in-memory ChunkStore with brute-force cosine
// search. Used in tests and when no database is configured.
type MemoryChunkStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

// NewMemoryChunkStore constructs a MemoryChunkStore.
func NewMemoryChunkStore() *MemoryChunkStore {
	return &MemoryChunkStore{}
}

// Insert appends a chunk.
func (s *MemoryChunkStore) Insert(ctx context.Context, chunk Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
	return nil
}

// SearchSimilar scans all chunks for a tenant and ranks by cosine
// similarity.
func (s *MemoryChunkStore) SearchSimilar(ctx context.Context, companyID string, vector []float32, floor float64, limit int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SearchResult
	for _, chunk := range s.chunks {
		if chunk.CompanyID != companyID {
			continue
		}
		sim := cosineSimilarity(vector, chunk.Embedding)
		if sim < floor {
			continue
		}
		out = append(out, SearchResult{Chunk: chunk, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteByDocument removes all chunks for a document within a tenant.
func (s *MemoryChunkStore) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.CompanyID == companyID && chunk.DocumentID == documentID {
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ ChunkStore = (*MemoryChunkStore)(nil)
