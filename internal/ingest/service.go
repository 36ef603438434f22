package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"werkly-backend/internal/documents"
	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/extract"
	"werkly-backend/internal/shared/metrics"
	"werkly-backend/internal/shared/storage/object"
	"werkly-backend/internal/shared/telemetry"
)

// Result reports the outcome of one ingestion run.
type Result struct {
	ChunksProcessed int `json:"chunksProcessed"`
	ChunksFailed    int `json:"chunksFailed"`
}

// Service runs the ingestion pipeline: download, extract, chunk, embed
// each chunk, persist. Per-chunk failures are counted, not fatal.
type Service struct {
	Docs    documents.Repo
	Store   object.ObjectStore
	Gateway embeddings.Gateway
	Chunks  embeddings.ChunkStore

	MaxChunkSize int
	ChunkOverlap int
	Concurrency  int
}

// Ingest processes one document end to end. The document transitions
// pending -> processing -> completed or failed. A failure anywhere after
// the processing transition records the message on the document row.
func (s *Service) Ingest(ctx context.Context, documentID string) (Result, error) {
	started := time.Now()

	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return Result{}, err
	}

	if err := s.Docs.UpdateStatus(ctx, doc.ID, documents.StatusProcessing, ""); err != nil {
		return Result{}, err
	}

	res, err := s.process(ctx, doc)
	if err != nil {
		if statusErr := s.Docs.UpdateStatus(ctx, doc.ID, documents.StatusFailed, err.Error()); statusErr != nil {
			telemetry.Error("ingest.status_update_failed", map[string]any{
				"document_id": doc.ID,
				"error":       statusErr.Error(),
			})
		}
		metrics.IncDocumentsFailed()
		return res, err
	}

	if err := s.Docs.UpdateStatus(ctx, doc.ID, documents.StatusCompleted, ""); err != nil {
		return res, err
	}
	metrics.IncDocumentsIngested()
	metrics.ObserveIngestDurationMs(float64(time.Since(started).Milliseconds()))

	telemetry.Info("ingest.completed", map[string]any{
		"document_id":      doc.ID,
		"company_id":       doc.CompanyID,
		"chunks_processed": res.ChunksProcessed,
		"chunks_failed":    res.ChunksFailed,
	})
	return res, nil
}

func (s *Service) process(ctx context.Context, doc documents.Document) (Result, error) {
	rc, err := s.Store.Open(ctx, doc.FilePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open %s: %v", ErrStorage, doc.FilePath, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %v", ErrStorage, doc.FilePath, err)
	}

	text, err := extract.TextFromBytes(ctx, data, doc.FileType, doc.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyDocument
	}

	chunks := Chunk(text, s.maxChunkSize(), s.chunkOverlap())
	if len(chunks) == 0 {
		return Result{}, ErrEmptyDocument
	}

	// Re-ingestion replaces chunks instead of appending, keeping ordinals
	// contiguous from zero.
	if err := s.Chunks.DeleteByDocument(ctx, doc.CompanyID, doc.ID); err != nil {
		return Result{}, fmt.Errorf("%w: clear chunks: %v", ErrStorage, err)
	}

	failed := s.embedAll(ctx, doc, chunks)

	processed := len(chunks) - failed
	metrics.AddChunksPersisted(processed)
	metrics.AddChunksFailed(failed)

	return Result{ChunksProcessed: processed, ChunksFailed: failed}, nil
}

// embedAll fans out chunk embedding and persistence with bounded
// concurrency and returns how many chunks failed. Sibling chunks are
// never aborted by one chunk's failure.
func (s *Service) embedAll(ctx context.Context, doc documents.Document, chunks []string) int {
	sem := make(chan struct{}, s.concurrency())
	var wg sync.WaitGroup
	var failed atomic.Int64

	for ordinal, content := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(ordinal int, content string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.embedAndPersist(ctx, doc, ordinal, content); err != nil {
				failed.Add(1)
				telemetry.Error("ingest.chunk_failed", map[string]any{
					"document_id": doc.ID,
					"chunk_index": ordinal,
					"error":       err.Error(),
				})
			}
		}(ordinal, content)
	}
	wg.Wait()

	return int(failed.Load())
}

func (s *Service) embedAndPersist(ctx context.Context, doc documents.Document, ordinal int, content string) error {
	vector, err := s.Gateway.Embed(ctx, content)
	if err != nil {
		return err
	}
	return s.Chunks.Insert(ctx, embeddings.Chunk{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		CompanyID:  doc.CompanyID,
		Content:    content,
		Embedding:  vector,
		ChunkIndex: ordinal,
		Metadata: map[string]any{
			"filename":   doc.Filename,
			"file_type":  doc.FileType,
			"chunk_size": len(content),
		},
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Service) maxChunkSize() int {
	if s.MaxChunkSize > 0 {
		return s.MaxChunkSize
	}
	return 1000
}

func (s *Service) chunkOverlap() int {
	if s.ChunkOverlap >= 0 && s.ChunkOverlap < s.maxChunkSize() {
		return s.ChunkOverlap
	}
	return 200
}

func (s *Service) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return 4
}
