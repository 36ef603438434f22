package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"werkly-backend/internal/embeddings"
)

type fixedGateway struct {
	vector []float32
	err    error
}

func (g *fixedGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.vector, nil
}

// cannedStore returns preset results ordered most similar first, after
// applying the floor the caller passed.
type cannedStore struct {
	results []embeddings.SearchResult
}

func (s *cannedStore) Insert(ctx context.Context, chunk embeddings.Chunk) error { return nil }

func (s *cannedStore) SearchSimilar(ctx context.Context, companyID string, vector []float32, floor float64, limit int) ([]embeddings.SearchResult, error) {
	var out []embeddings.SearchResult
	for _, r := range s.results {
		if r.Similarity >= floor {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *cannedStore) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	return nil
}

func canned(similarities ...float64) *cannedStore {
	store := &cannedStore{}
	for i, sim := range similarities {
		store.results = append(store.results, embeddings.SearchResult{
			Chunk: embeddings.Chunk{
				Content:  "content",
				Metadata: map[string]any{"filename": "doc.pdf"},
			},
			Similarity: sim,
		})
		store.results[i].Chunk.ChunkIndex = i
	}
	return store
}

func newRanker(store embeddings.ChunkStore) *Ranker {
	return &Ranker{
		Gateway:        &fixedGateway{vector: []float32{1, 0}},
		Store:          store,
		CandidateFloor: 0.25,
		AcceptFloor:    0.35,
		TopK:           5,
		CandidateLimit: 10,
	}
}

func TestRetrieve_AcceptanceFloorFilters(t *testing.T) {
	ranker := newRanker(canned(0.9, 0.5, 0.36, 0.3))

	res, err := ranker.Retrieve(context.Background(), "tenant", "query")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	want := []float64{0.9, 0.5, 0.36}
	if len(res.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(res.Sources))
	}
	for i, src := range res.Sources {
		if src.Similarity != want[i] {
			t.Fatalf("source %d similarity = %v, want %v", i, src.Similarity, want[i])
		}
	}
}

func TestRetrieve_AllBelowFloorYieldsEmptyContext(t *testing.T) {
	ranker := newRanker(canned(0.34, 0.30, 0.26))

	res, err := ranker.Retrieve(context.Background(), "tenant", "query")
	if err != nil {
		t.Fatalf("retrieve must not fail on weak matches: %v", err)
	}
	if res.Context != "" || len(res.Sources) != 0 {
		t.Fatalf("expected empty context, got %q", res.Context)
	}
}

func TestRetrieve_TopKTruncation(t *testing.T) {
	ranker := newRanker(canned(0.9, 0.8, 0.7, 0.6, 0.55, 0.5, 0.45))

	res, err := ranker.Retrieve(context.Background(), "tenant", "query")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res.Sources) != 5 {
		t.Fatalf("expected top 5 sources, got %d", len(res.Sources))
	}
	if res.Sources[0].Similarity != 0.9 || res.Sources[4].Similarity != 0.55 {
		t.Fatalf("wrong truncation: first %v last %v", res.Sources[0].Similarity, res.Sources[4].Similarity)
	}
}

func TestRetrieve_ContextFormat(t *testing.T) {
	store := &cannedStore{results: []embeddings.SearchResult{
		{
			Chunk:      embeddings.Chunk{Content: "Remote work is allowed.", Metadata: map[string]any{"filename": "policy.pdf"}},
			Similarity: 0.8,
		},
		{
			Chunk:      embeddings.Chunk{Content: "Offices close at six.", Metadata: map[string]any{"filename": "hours.txt"}},
			Similarity: 0.6,
		},
	}}
	ranker := newRanker(store)

	res, err := ranker.Retrieve(context.Background(), "tenant", "query")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	want := "[Source 1: policy.pdf]\nRemote work is allowed.\n---\n\n[Source 2: hours.txt]\nOffices close at six.\n---"
	if res.Context != want {
		t.Fatalf("context mismatch:\n got: %q\nwant: %q", res.Context, want)
	}
}

func TestRetrieve_TenantIsolation(t *testing.T) {
	store := embeddings.NewMemoryChunkStore()
	ctx := context.Background()
	// Tenant B's chunk is a perfect match; tenant A must not see it.
	_ = store.Insert(ctx, embeddings.Chunk{ID: "b1", CompanyID: "tenant-b", Content: "secret", Embedding: []float32{1, 0}})
	_ = store.Insert(ctx, embeddings.Chunk{ID: "a1", CompanyID: "tenant-a", Content: "own doc", Embedding: []float32{0.8, 0.6}, Metadata: map[string]any{"filename": "a.txt"}})

	ranker := newRanker(store)
	res, err := ranker.Retrieve(ctx, "tenant-a", "query")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, src := range res.Sources {
		if strings.Contains(src.Content, "secret") {
			t.Fatal("retrieved chunk from another tenant")
		}
	}
	if len(res.Sources) != 1 || res.Sources[0].Filename != "a.txt" {
		t.Fatalf("expected only tenant A content, got %+v", res.Sources)
	}
}

func TestRetrieve_GatewayErrorPropagates(t *testing.T) {
	ranker := newRanker(canned(0.9))
	ranker.Gateway = &fixedGateway{err: embeddings.ErrGateway}

	_, err := ranker.Retrieve(context.Background(), "tenant", "query")
	if !errors.Is(err, embeddings.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
