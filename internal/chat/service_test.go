package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"werkly-backend/internal/embeddings"
	"werkly-backend/internal/retrieval"
)

type stubGenerator struct {
	tokens       []string
	err          error
	systemPrompt string
	history      []Message
}

func (g *stubGenerator) Generate(ctx context.Context, systemPrompt string, history []Message, onToken func(string) error) error {
	g.systemPrompt = systemPrompt
	g.history = history
	for _, tok := range g.tokens {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return g.err
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (g *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.vector, nil
}

func newChatService(gen Generator, store embeddings.ChunkStore, embedErr error) *Service {
	return &Service{
		Repo: NewMemoryRepo(),
		Ranker: &retrieval.Ranker{
			Gateway:        &stubEmbedder{vector: []float32{1, 0}, err: embedErr},
			Store:          store,
			CandidateFloor: 0.25,
			AcceptFloor:    0.35,
			TopK:           5,
			CandidateLimit: 10,
		},
		Generator: gen,
	}
}

func TestStream_RelaysTokensAndPersistsTurn(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"Hel", "lo", "!"}}
	svc := newChatService(gen, embeddings.NewMemoryChunkStore(), nil)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "What is the PTO policy?")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}

	var streamed strings.Builder
	gotID, err := svc.Stream(ctx, StreamRequest{
		CompanyID:      "company-1",
		UserID:         "user-1",
		ConversationID: conv.ID,
		Query:          "What is the PTO policy?",
	}, func(token string) error {
		streamed.WriteString(token)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if gotID != conv.ID {
		t.Fatalf("conversation ID mismatch: %s vs %s", gotID, conv.ID)
	}
	if streamed.String() != "Hello!" {
		t.Fatalf("streamed %q", streamed.String())
	}

	msgs, err := svc.Messages(ctx, "company-1", conv.ID, 10)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("wrong roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "Hello!" {
		t.Fatalf("assistant content %q", msgs[1].Content)
	}
}

func TestStream_InjectsRetrievedContext(t *testing.T) {
	store := embeddings.NewMemoryChunkStore()
	_ = store.Insert(context.Background(), embeddings.Chunk{
		ID:        "c1",
		CompanyID: "company-1",
		Content:   "Employees get 25 days of PTO.",
		Embedding: []float32{1, 0},
		Metadata:  map[string]any{"filename": "pto.pdf"},
	})

	gen := &stubGenerator{tokens: []string{"ok"}}
	svc := newChatService(gen, store, nil)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "PTO?")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	if _, err := svc.Stream(ctx, StreamRequest{
		CompanyID: "company-1", UserID: "user-1", ConversationID: conv.ID, Query: "PTO?",
	}, func(string) error { return nil }); err != nil {
		t.Fatalf("stream: %v", err)
	}

	if !strings.Contains(gen.systemPrompt, "## Relevant Company Documentation") {
		t.Fatalf("system prompt missing documentation section: %q", gen.systemPrompt)
	}
	if !strings.Contains(gen.systemPrompt, "[Source 1: pto.pdf]") {
		t.Fatalf("system prompt missing source block: %q", gen.systemPrompt)
	}
}

func TestStream_RetrievalFailureDegradesGracefully(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"answer"}}
	svc := newChatService(gen, embeddings.NewMemoryChunkStore(), embeddings.ErrGateway)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "hello")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}

	var streamed strings.Builder
	if _, err := svc.Stream(ctx, StreamRequest{
		CompanyID: "company-1", UserID: "user-1", ConversationID: conv.ID, Query: "hello",
	}, func(tok string) error {
		streamed.WriteString(tok)
		return nil
	}); err != nil {
		t.Fatalf("retrieval failure must not fail the turn: %v", err)
	}
	if streamed.String() != "answer" {
		t.Fatalf("streamed %q", streamed.String())
	}
	if strings.Contains(gen.systemPrompt, "## Relevant Company Documentation") {
		t.Fatal("context must not be injected when retrieval fails")
	}
}

func TestStream_GeneratorFailureSkipsAssistantPersist(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"par", "tial"}, err: ErrGenerate}
	svc := newChatService(gen, embeddings.NewMemoryChunkStore(), nil)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "hello")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	_, err = svc.Stream(ctx, StreamRequest{
		CompanyID: "company-1", UserID: "user-1", ConversationID: conv.ID, Query: "hello",
	}, func(string) error { return nil })
	if !errors.Is(err, ErrGenerate) {
		t.Fatalf("expected ErrGenerate, got %v", err)
	}

	msgs, err := svc.Messages(ctx, "company-1", conv.ID, 10)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("only the user turn should persist on a failed stream, got %d messages", len(msgs))
	}
}

func TestStream_WrongTenantRejected(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"x"}}
	svc := newChatService(gen, embeddings.NewMemoryChunkStore(), nil)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "hello")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	_, err = svc.Stream(ctx, StreamRequest{
		CompanyID: "company-2", UserID: "user-1", ConversationID: conv.ID, Query: "hello",
	}, func(string) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant access, got %v", err)
	}
}

func TestStream_HistoryIncludesPriorTurns(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"second answer"}}
	svc := newChatService(gen, embeddings.NewMemoryChunkStore(), nil)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, "company-1", "user-1", "first question")
	if err != nil {
		t.Fatalf("start conversation: %v", err)
	}
	first := &stubGenerator{tokens: []string{"first answer"}}
	svc.Generator = first
	if _, err := svc.Stream(ctx, StreamRequest{
		CompanyID: "company-1", UserID: "user-1", ConversationID: conv.ID, Query: "first question",
	}, func(string) error { return nil }); err != nil {
		t.Fatalf("first stream: %v", err)
	}

	svc.Generator = gen
	if _, err := svc.Stream(ctx, StreamRequest{
		CompanyID: "company-1", UserID: "user-1", ConversationID: conv.ID, Query: "second question",
	}, func(string) error { return nil }); err != nil {
		t.Fatalf("second stream: %v", err)
	}

	if len(gen.history) != 3 {
		t.Fatalf("expected 3 history messages, got %d", len(gen.history))
	}
	if gen.history[0].Content != "first question" || gen.history[1].Content != "first answer" || gen.history[2].Content != "second question" {
		t.Fatalf("unexpected history order: %+v", gen.history)
	}
}
