package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message // conversationID -> ordered messages
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
	}
}

// CreateConversation stores a new conversation.
func (r *MemoryRepo) CreateConversation(ctx context.Context, conv Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = conv
	return nil
}

// GetConversation fetches a conversation scoped to a tenant.
func (r *MemoryRepo) GetConversation(ctx context.Context, companyID, conversationID string) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[conversationID]
	if !ok || conv.CompanyID != companyID {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

// ListConversations lists a user's conversations, most recently active
// first.
func (r *MemoryRepo) ListConversations(ctx context.Context, companyID, userID string, limit, offset int) ([]Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conversation
	for _, conv := range r.conversations {
		if conv.CompanyID == companyID && conv.UserID == userID {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if offset >= len(out) {
		return []Conversation{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// DeleteConversation removes a conversation and its messages.
func (r *MemoryRepo) DeleteConversation(ctx context.Context, companyID, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok || conv.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.conversations, conversationID)
	delete(r.messages, conversationID)
	return nil
}

// TouchConversation bumps updated_at.
func (r *MemoryRepo) TouchConversation(ctx context.Context, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.UpdatedAt = time.Now().UTC()
	r.conversations[conversationID] = conv
	return nil
}

// AppendMessage stores one message.
func (r *MemoryRepo) AppendMessage(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return nil
}

// ListMessages returns a conversation's messages oldest first.
func (r *MemoryRepo) ListMessages(ctx context.Context, companyID, conversationID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[conversationID]
	if !ok || conv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	msgs := r.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// RecentUserQueries returns the user's latest questions, newest first.
func (r *MemoryRepo) RecentUserQueries(ctx context.Context, companyID, userID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []Message
	for convID, msgs := range r.messages {
		conv, ok := r.conversations[convID]
		if !ok || conv.CompanyID != companyID || conv.UserID != userID {
			continue
		}
		for _, msg := range msgs {
			if msg.Role == RoleUser {
				all = append(all, msg)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]string, 0, len(all))
	for _, msg := range all {
		out = append(out, msg.Content)
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
