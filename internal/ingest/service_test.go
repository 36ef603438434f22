package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"werkly-backend/internal/documents"
	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/shared/storage/object/local"
)

// stubGateway returns a fixed vector and fails on caller-selected calls.
type stubGateway struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
}

func (g *stubGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if g.failOn[n] {
		return nil, fmt.Errorf("%w: simulated upstream failure", embeddings.ErrGateway)
	}
	return []float32{1, 0, 0}, nil
}

func newTestService(t *testing.T, gateway embeddings.Gateway) (*Service, documents.Repo, *embeddings.MemoryChunkStore) {
	t.Helper()
	store := local.New(t.TempDir())
	docs := documents.NewMemoryRepo()
	chunks := embeddings.NewMemoryChunkStore()
	svc := &Service{
		Docs:         docs,
		Store:        store,
		Gateway:      gateway,
		Chunks:       chunks,
		MaxChunkSize: 1000,
		ChunkOverlap: 200,
		Concurrency:  4,
	}
	return svc, docs, chunks
}

func uploadTestDoc(t *testing.T, svc *Service, companyID, fileName, content string) documents.Document {
	t.Helper()
	ctx := context.Background()
	key, size, mimeType, err := svc.Store.Save(ctx, "user-1", fileName, strings.NewReader(content))
	if err != nil {
		t.Fatalf("save object: %v", err)
	}
	doc := documents.Document{
		ID:         "doc-" + fileName,
		CompanyID:  companyID,
		UploadedBy: "user-1",
		Filename:   fileName,
		FilePath:   key,
		FileType:   mimeType,
		FileSize:   size,
		Status:     documents.StatusPending,
	}
	if err := svc.Docs.Create(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestIngest_Success(t *testing.T) {
	svc, docs, chunks := newTestService(t, &stubGateway{})
	text := strings.Repeat("Every handbook section ends with a period. ", 60)
	doc := uploadTestDoc(t, svc, "company-1", "handbook.txt", text)

	res, err := svc.Ingest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ChunksFailed != 0 {
		t.Fatalf("expected no failed chunks, got %d", res.ChunksFailed)
	}
	if res.ChunksProcessed < 2 {
		t.Fatalf("expected multiple chunks, got %d", res.ChunksProcessed)
	}

	stored, err := docs.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if stored.Status != documents.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}

	results, err := chunks.SearchSimilar(context.Background(), "company-1", []float32{1, 0, 0}, 0, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != res.ChunksProcessed {
		t.Fatalf("persisted %d chunks, result says %d", len(results), res.ChunksProcessed)
	}
	seen := make(map[int]bool)
	for _, r := range results {
		if r.Chunk.CompanyID != "company-1" {
			t.Fatalf("chunk has wrong tenant: %s", r.Chunk.CompanyID)
		}
		if r.Chunk.Metadata["filename"] != "handbook.txt" {
			t.Fatalf("missing filename metadata: %+v", r.Chunk.Metadata)
		}
		seen[r.Chunk.ChunkIndex] = true
	}
	for i := 0; i < len(results); i++ {
		if !seen[i] {
			t.Fatalf("ordinal %d missing, ordinals must be contiguous from 0", i)
		}
	}
}

func TestIngest_EmptyDocumentFails(t *testing.T) {
	svc, docs, chunks := newTestService(t, &stubGateway{})
	doc := uploadTestDoc(t, svc, "company-1", "blank.txt", "   \n\t  \n ")

	_, err := svc.Ingest(context.Background(), doc.ID)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}

	stored, err := docs.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if stored.Status != documents.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("expected error message to be recorded")
	}

	results, err := chunks.SearchSimilar(context.Background(), "company-1", []float32{1, 0, 0}, 0, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected zero chunk rows, got %d", len(results))
	}
}

func TestIngest_PartialChunkFailureStillCompletes(t *testing.T) {
	gateway := &stubGateway{failOn: map[int]bool{3: true, 7: true}}
	svc, docs, chunks := newTestService(t, gateway)
	svc.MaxChunkSize = 60
	svc.ChunkOverlap = 0

	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "Paragraph %d carries a bit of filler text in each line. ", i)
	}
	doc := uploadTestDoc(t, svc, "company-1", "filler.txt", sb.String())

	res, err := svc.Ingest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ChunksFailed != 2 {
		t.Fatalf("expected 2 failed chunks, got %d", res.ChunksFailed)
	}
	if res.ChunksProcessed != gateway.calls-2 {
		t.Fatalf("processed %d with %d calls", res.ChunksProcessed, gateway.calls)
	}

	stored, err := docs.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if stored.Status != documents.StatusCompleted {
		t.Fatalf("partial failure must still complete, got %s", stored.Status)
	}

	results, err := chunks.SearchSimilar(context.Background(), "company-1", []float32{1, 0, 0}, 0, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != res.ChunksProcessed {
		t.Fatalf("expected %d persisted chunks, got %d", res.ChunksProcessed, len(results))
	}
}

func TestIngest_ReprocessReplacesChunks(t *testing.T) {
	svc, _, chunks := newTestService(t, &stubGateway{})
	text := strings.Repeat("Policies are reviewed every quarter without fail. ", 50)
	doc := uploadTestDoc(t, svc, "company-1", "policy.txt", text)

	first, err := svc.Ingest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := svc.Ingest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first.ChunksProcessed != second.ChunksProcessed {
		t.Fatalf("reprocessing changed chunk count: %d vs %d", first.ChunksProcessed, second.ChunksProcessed)
	}

	results, err := chunks.SearchSimilar(context.Background(), "company-1", []float32{1, 0, 0}, 0, 1000)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != second.ChunksProcessed {
		t.Fatalf("expected chunks replaced, not appended: %d rows for %d chunks", len(results), second.ChunksProcessed)
	}
}

func TestIngest_DocumentNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, &stubGateway{})
	_, err := svc.Ingest(context.Background(), "missing")
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
