package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"werkly-backend/internal/retrieval"
	"werkly-backend/internal/shared/telemetry"
)

const systemPromptBase = "You are a helpful assistant for company employees. " +
	"Answer questions using the company documentation when it is provided. " +
	"If the documentation does not cover the question, say so and answer from general knowledge."

const maxTitleLength = 80

// Service orchestrates chat turns: persist the question, retrieve context,
// stream the answer, persist the full answer once the stream completes.
type Service struct {
	Repo      Repo
	Ranker    *retrieval.Ranker
	Generator Generator

	HistoryLimit int
}

// StreamRequest identifies one chat turn within an existing conversation.
type StreamRequest struct {
	CompanyID      string
	UserID         string
	ConversationID string
	Query          string
}

// StartConversation creates a conversation titled from its first query.
// Callers start a conversation before the first Stream so the ID can be
// surfaced ahead of the response body.
func (s *Service) StartConversation(ctx context.Context, companyID, userID, query string) (Conversation, error) {
	if strings.TrimSpace(query) == "" || companyID == "" {
		return Conversation{}, ErrInvalidInput
	}
	conv := Conversation{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		UserID:    userID,
		Title:     truncateTitle(query),
		CreatedAt: time.Now().UTC(),
	}
	conv.UpdatedAt = conv.CreatedAt
	if err := s.Repo.CreateConversation(ctx, conv); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// Stream runs one chat turn, invoking onToken for every generated token.
// A retrieval failure degrades to answering without context instead of
// failing the turn.
func (s *Service) Stream(ctx context.Context, req StreamRequest, onToken func(string) error) (string, error) {
	if strings.TrimSpace(req.Query) == "" || req.CompanyID == "" || req.ConversationID == "" {
		return "", ErrInvalidInput
	}

	conv, err := s.Repo.GetConversation(ctx, req.CompanyID, req.ConversationID)
	if err != nil {
		return "", err
	}

	history, err := s.Repo.ListMessages(ctx, req.CompanyID, conv.ID, s.historyLimit())
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	userMsg := Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        req.Query,
		CreatedAt:      now,
	}
	if err := s.Repo.AppendMessage(ctx, userMsg); err != nil {
		return "", err
	}
	history = append(history, userMsg)

	systemPrompt := s.buildSystemPrompt(ctx, req.CompanyID, req.Query)

	var answer strings.Builder
	err = s.Generator.Generate(ctx, systemPrompt, history, func(token string) error {
		answer.WriteString(token)
		return onToken(token)
	})
	if err != nil {
		return conv.ID, err
	}

	// The assistant turn is persisted only after the stream completes.
	if answer.Len() > 0 {
		assistantMsg := Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           RoleAssistant,
			Content:        answer.String(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.Repo.AppendMessage(ctx, assistantMsg); err != nil {
			telemetry.Error("chat.persist_answer_failed", map[string]any{
				"conversation_id": conv.ID,
				"error":           err.Error(),
			})
		}
	}
	if err := s.Repo.TouchConversation(ctx, conv.ID); err != nil {
		telemetry.Error("chat.touch_failed", map[string]any{
			"conversation_id": conv.ID,
			"error":           err.Error(),
		})
	}

	return conv.ID, nil
}

// Search exposes the ranker directly for debugging retrieval quality.
func (s *Service) Search(ctx context.Context, companyID, query string) (retrieval.Result, error) {
	if strings.TrimSpace(query) == "" || companyID == "" {
		return retrieval.Result{}, ErrInvalidInput
	}
	return s.Ranker.Retrieve(ctx, companyID, query)
}

// Conversations lists a user's conversations.
func (s *Service) Conversations(ctx context.Context, companyID, userID string, limit, offset int) ([]Conversation, error) {
	return s.Repo.ListConversations(ctx, companyID, userID, limit, offset)
}

// Messages returns a conversation's transcript.
func (s *Service) Messages(ctx context.Context, companyID, conversationID string, limit int) ([]Message, error) {
	return s.Repo.ListMessages(ctx, companyID, conversationID, limit)
}

// DeleteConversation removes a conversation.
func (s *Service) DeleteConversation(ctx context.Context, companyID, conversationID string) error {
	return s.Repo.DeleteConversation(ctx, companyID, conversationID)
}

func (s *Service) buildSystemPrompt(ctx context.Context, companyID, query string) string {
	res, err := s.Ranker.Retrieve(ctx, companyID, query)
	if err != nil {
		telemetry.Error("chat.retrieval_failed", map[string]any{
			"company_id": companyID,
			"error":      err.Error(),
		})
		return systemPromptBase
	}
	if res.Context == "" {
		return systemPromptBase
	}
	return systemPromptBase + "\n\n## Relevant Company Documentation\n\n" + res.Context
}

func (s *Service) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return 20
}

func truncateTitle(query string) string {
	title := strings.TrimSpace(query)
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	return title
}
