package embeddings

import (
	"context"
	"time"
)

// Chunk is a persisted slice of a document together with its vector.
type Chunk struct {
	ID         string
	DocumentID string
	CompanyID  string
	Content    string
	Embedding  []float32
	ChunkIndex int
	Metadata   map[string]any
	CreatedAt  time.Time
}

// SearchResult pairs a chunk with its similarity to a query vector.
// Similarity is cosine similarity in [-1, 1]; higher is closer.
type SearchResult struct {
	Chunk      Chunk
	Similarity float64
}

// ChunkStore persists and searches embedded chunks. Every operation is
// scoped to a tenant; implementations must enforce the scope in the query
// itself rather than filtering results afterwards.
type ChunkStore interface {
	Insert(ctx context.Context, chunk Chunk) error
	// SearchSimilar returns chunks whose similarity to the query vector is
	// at least floor, ordered most similar first, capped at limit.
	SearchSimilar(ctx context.Context, companyID string, vector []float32, floor float64, limit int) ([]SearchResult, error)
	DeleteByDocument(ctx context.Context, companyID, documentID string) error
}
