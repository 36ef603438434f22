package suggestions

import (
	"context"
	"sort"

	"werkly-backend/internal/chat"
	"werkly-backend/internal/documents"
	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/shared/telemetry"
)

const (
	labelRecentQuestions = "Based on your recent questions"
	labelGettingStarted  = "Recommended for getting started"
)

const (
	recentQueryCount = 5
	candidatePool    = 50
)

// Suggestion is one recommended document.
type Suggestion struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
}

// Result is a labeled list of recommended documents.
type Result struct {
	Label     string       `json:"label"`
	Documents []Suggestion `json:"documents"`
}

// Service recommends completed documents. When the user has query
// history, documents are ranked by similarity between the averaged query
// embedding and their chunks; otherwise the newest documents are offered
// as a starting point.
type Service struct {
	Docs    documents.Repo
	Chats   chat.Repo
	Gateway embeddings.Gateway
	Chunks  embeddings.ChunkStore

	MaxSuggestions int
}

// ForUser returns up to MaxSuggestions recommended documents for a user.
func (s *Service) ForUser(ctx context.Context, companyID, userID string) (Result, error) {
	docs, err := s.Docs.ListCompletedByCompany(ctx, companyID, candidatePool)
	if err != nil {
		return Result{}, err
	}

	queries, err := s.Chats.RecentUserQueries(ctx, companyID, userID, recentQueryCount)
	if err != nil {
		telemetry.Error("suggestions.history_failed", map[string]any{
			"company_id": companyID,
			"error":      err.Error(),
		})
		queries = nil
	}

	if len(queries) == 0 {
		return Result{
			Label:     labelGettingStarted,
			Documents: s.take(docs),
		}, nil
	}

	return Result{
		Label:     labelRecentQuestions,
		Documents: s.take(s.rankByQueries(ctx, companyID, queries, docs)),
	}, nil
}

// rankByQueries orders documents by the best similarity any of their
// chunks achieves against the averaged query embedding. Documents with no
// scored chunk keep their recency order after the scored ones. Embedding
// failures fall back to recency order.
func (s *Service) rankByQueries(ctx context.Context, companyID string, queries []string, docs []documents.Document) []documents.Document {
	avg := s.averageQueryEmbedding(ctx, queries)
	if avg == nil {
		return docs
	}

	results, err := s.Chunks.SearchSimilar(ctx, companyID, avg, 0, candidatePool)
	if err != nil {
		telemetry.Error("suggestions.search_failed", map[string]any{
			"company_id": companyID,
			"error":      err.Error(),
		})
		return docs
	}

	scores := make(map[string]float64)
	for _, res := range results {
		if res.Similarity > scores[res.Chunk.DocumentID] {
			scores[res.Chunk.DocumentID] = res.Similarity
		}
	}

	ranked := make([]documents.Document, len(docs))
	copy(ranked, docs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})
	return ranked
}

func (s *Service) averageQueryEmbedding(ctx context.Context, queries []string) []float32 {
	var sum []float32
	embedded := 0
	for _, query := range queries {
		vec, err := s.Gateway.Embed(ctx, query)
		if err != nil {
			telemetry.Error("suggestions.embed_failed", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		if sum == nil {
			sum = make([]float32, len(vec))
		}
		if len(vec) != len(sum) {
			continue
		}
		for i, v := range vec {
			sum[i] += v
		}
		embedded++
	}
	if embedded == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float32(embedded)
	}
	return sum
}

func (s *Service) take(docs []documents.Document) []Suggestion {
	max := s.MaxSuggestions
	if max <= 0 {
		max = 5
	}
	out := make([]Suggestion, 0, max)
	for _, doc := range docs {
		if len(out) == max {
			break
		}
		out = append(out, Suggestion{DocumentID: doc.ID, Filename: doc.Filename})
	}
	return out
}
