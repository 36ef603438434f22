package retrieval

import (
	"context"
	"fmt"
	"strings"

	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/shared/metrics"
	"werkly-backend/internal/shared/telemetry"
)

// Source is one accepted context chunk with its provenance.
type Source struct {
	Content    string  `json:"content"`
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity"`
}

// Result carries the accepted sources and the formatted context block.
type Result struct {
	Sources []Source
	Context string
}

// Ranker turns a query into ranked, formatted context for a tenant.
//
// It applies a two-tier threshold: candidates are fetched with a loose
// floor so near misses stay visible in logs, then filtered to a stricter
// acceptance floor before being used as context. Tuning the acceptance
// floor does not change what gets logged.
type Ranker struct {
	Gateway embeddings.Gateway
	Store   embeddings.ChunkStore

	CandidateFloor float64
	AcceptFloor    float64
	TopK           int
	CandidateLimit int
}

// Retrieve embeds the query, searches the tenant's chunks, and returns the
// accepted sources ordered by descending similarity. An empty Result with
// no error means the chat should proceed without injected context.
func (r *Ranker) Retrieve(ctx context.Context, companyID, query string) (Result, error) {
	metrics.IncRetrievalRequests()

	vector, err := r.Gateway.Embed(ctx, query)
	if err != nil {
		return Result{}, err
	}

	candidates, err := r.Store.SearchSimilar(ctx, companyID, vector, r.candidateFloor(), r.candidateLimit())
	if err != nil {
		return Result{}, err
	}

	accepted := make([]Source, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Similarity < r.acceptFloor() {
			telemetry.Info("retrieval.near_miss", map[string]any{
				"company_id": companyID,
				"similarity": cand.Similarity,
				"filename":   metadataFilename(cand.Chunk.Metadata),
			})
			continue
		}
		accepted = append(accepted, Source{
			Content:    cand.Chunk.Content,
			Filename:   metadataFilename(cand.Chunk.Metadata),
			Similarity: cand.Similarity,
		})
	}
	if len(accepted) > r.topK() {
		accepted = accepted[:r.topK()]
	}

	if len(accepted) == 0 {
		metrics.IncRetrievalNoContext()
		return Result{}, nil
	}
	metrics.AddContextChunksInjected(len(accepted))

	return Result{Sources: accepted, Context: formatContext(accepted)}, nil
}

// formatContext renders accepted sources as labeled blocks, most similar
// first.
func formatContext(sources []Source) string {
	blocks := make([]string, 0, len(sources))
	for i, src := range sources {
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s]\n%s\n---", i+1, src.Filename, src.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func metadataFilename(metadata map[string]any) string {
	if metadata == nil {
		return "unknown"
	}
	if name, ok := metadata["filename"].(string); ok && name != "" {
		return name
	}
	return "unknown"
}

func (r *Ranker) candidateFloor() float64 {
	if r.CandidateFloor > 0 {
		return r.CandidateFloor
	}
	return 0.25
}

func (r *Ranker) acceptFloor() float64 {
	if r.AcceptFloor > 0 {
		return r.AcceptFloor
	}
	return 0.35
}

func (r *Ranker) topK() int {
	if r.TopK > 0 {
		return r.TopK
	}
	return 5
}

func (r *Ranker) candidateLimit() int {
	if r.CandidateLimit > 0 {
		return r.CandidateLimit
	}
	return 10
}
