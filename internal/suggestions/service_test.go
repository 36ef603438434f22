package suggestions

import (
	"context"
	"testing"
	"time"

	"werkly-backend/internal/chat"
	"werkly-backend/internal/documents"
	"werkly-backend/internal/embeddings"
)

type mappedEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (g *mappedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.err != nil {
		return nil, g.err
	}
	if vec, ok := g.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 1}, nil
}

func seedDocs(t *testing.T, docs documents.Repo, companyID string, names ...string) []documents.Document {
	t.Helper()
	out := make([]documents.Document, 0, len(names))
	base := time.Now().UTC()
	for i, name := range names {
		doc := documents.Document{
			ID:        "doc-" + name,
			CompanyID: companyID,
			Filename:  name,
			Status:    documents.StatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := docs.Create(context.Background(), doc); err != nil {
			t.Fatalf("seed doc %s: %v", name, err)
		}
		out = append(out, doc)
	}
	return out
}

func seedQuery(t *testing.T, chats chat.Repo, companyID, userID, content string) {
	t.Helper()
	ctx := context.Background()
	conv := chat.Conversation{ID: "conv-" + content, CompanyID: companyID, UserID: userID, CreatedAt: time.Now().UTC()}
	conv.UpdatedAt = conv.CreatedAt
	if err := chats.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	err := chats.AppendMessage(ctx, chat.Message{
		ID: "msg-" + content, ConversationID: conv.ID, Role: chat.RoleUser, Content: content, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
}

func TestForUser_NoHistoryRecommendsNewest(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocs(t, docs, "company-1", "old.pdf", "mid.pdf", "new.pdf")

	svc := &Service{
		Docs:    docs,
		Chats:   chat.NewMemoryRepo(),
		Gateway: &mappedEmbedder{},
		Chunks:  embeddings.NewMemoryChunkStore(),
	}

	res, err := svc.ForUser(context.Background(), "company-1", "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if res.Label != "Recommended for getting started" {
		t.Fatalf("wrong label: %q", res.Label)
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(res.Documents))
	}
	if res.Documents[0].Filename != "new.pdf" {
		t.Fatalf("expected newest first, got %s", res.Documents[0].Filename)
	}
}

func TestForUser_HistoryRanksBySimilarity(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocs(t, docs, "company-1", "benefits.pdf", "security.pdf")

	chats := chat.NewMemoryRepo()
	seedQuery(t, chats, "company-1", "user-1", "how do I report a phishing email")

	chunks := embeddings.NewMemoryChunkStore()
	// security.pdf is older but matches the query embedding; it must
	// outrank the newer benefits doc.
	_ = chunks.Insert(context.Background(), embeddings.Chunk{
		ID: "c1", DocumentID: "doc-security.pdf", CompanyID: "company-1", Embedding: []float32{1, 0},
	})
	_ = chunks.Insert(context.Background(), embeddings.Chunk{
		ID: "c2", DocumentID: "doc-benefits.pdf", CompanyID: "company-1", Embedding: []float32{0, 1},
	})

	svc := &Service{
		Docs:  docs,
		Chats: chats,
		Gateway: &mappedEmbedder{vectors: map[string][]float32{
			"how do I report a phishing email": {1, 0},
		}},
		Chunks: chunks,
	}

	res, err := svc.ForUser(context.Background(), "company-1", "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if res.Label != "Based on your recent questions" {
		t.Fatalf("wrong label: %q", res.Label)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(res.Documents))
	}
	if res.Documents[0].Filename != "security.pdf" {
		t.Fatalf("expected similarity ranking to win, got %s first", res.Documents[0].Filename)
	}
}

func TestForUser_EmbedFailureFallsBackToRecency(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocs(t, docs, "company-1", "a.pdf", "b.pdf")

	chats := chat.NewMemoryRepo()
	seedQuery(t, chats, "company-1", "user-1", "anything")

	svc := &Service{
		Docs:    docs,
		Chats:   chats,
		Gateway: &mappedEmbedder{err: embeddings.ErrGateway},
		Chunks:  embeddings.NewMemoryChunkStore(),
	}

	res, err := svc.ForUser(context.Background(), "company-1", "user-1")
	if err != nil {
		t.Fatalf("embed failure must not fail suggestions: %v", err)
	}
	if res.Label != "Based on your recent questions" {
		t.Fatalf("wrong label: %q", res.Label)
	}
	if res.Documents[0].Filename != "b.pdf" {
		t.Fatalf("expected recency fallback, got %s first", res.Documents[0].Filename)
	}
}

func TestForUser_CapsAtMaxSuggestions(t *testing.T) {
	docs := documents.NewMemoryRepo()
	seedDocs(t, docs, "company-1", "1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf", "7.pdf")

	svc := &Service{
		Docs:    docs,
		Chats:   chat.NewMemoryRepo(),
		Gateway: &mappedEmbedder{},
		Chunks:  embeddings.NewMemoryChunkStore(),
	}

	res, err := svc.ForUser(context.Background(), "company-1", "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if len(res.Documents) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(res.Documents))
	}
}
