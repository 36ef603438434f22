package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateConversation inserts a new conversation.
func (r *PGRepo) CreateConversation(ctx context.Context, conv Conversation) error {
	const query = `
INSERT INTO conversations (id, company_id, user_id, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.DB.ExecContext(ctx, query, conv.ID, conv.CompanyID, conv.UserID, conv.Title, conv.CreatedAt)
	return err
}

// GetConversation fetches a conversation scoped to a tenant.
func (r *PGRepo) GetConversation(ctx context.Context, companyID, conversationID string) (Conversation, error) {
	const query = `
SELECT id, company_id, user_id, title, created_at, updated_at
FROM conversations
WHERE company_id = $1 AND id = $2`

	var conv Conversation
	err := r.DB.QueryRowContext(ctx, query, companyID, conversationID).Scan(
		&conv.ID, &conv.CompanyID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// ListConversations lists a user's conversations, most recently active
// first.
func (r *PGRepo) ListConversations(ctx context.Context, companyID, userID string, limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, company_id, user_id, title, created_at, updated_at
FROM conversations
WHERE company_id = $1 AND user_id = $2
ORDER BY updated_at DESC
LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctx, query, companyID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.CompanyID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

// DeleteConversation removes a conversation and cascades to messages.
func (r *PGRepo) DeleteConversation(ctx context.Context, companyID, conversationID string) error {
	const query = `
DELETE FROM conversations
WHERE company_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, companyID, conversationID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchConversation bumps updated_at.
func (r *PGRepo) TouchConversation(ctx context.Context, conversationID string) error {
	const query = `
UPDATE conversations SET updated_at = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, time.Now().UTC(), conversationID)
	return err
}

// AppendMessage inserts one message.
func (r *PGRepo) AppendMessage(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO messages (id, conversation_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// ListMessages returns a conversation's messages oldest first. The join
// enforces tenant scope.
func (r *PGRepo) ListMessages(ctx context.Context, companyID, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT m.id, m.conversation_id, m.role, m.content, m.created_at
FROM messages m
JOIN conversations c ON c.id = m.conversation_id
WHERE c.company_id = $1 AND m.conversation_id = $2
ORDER BY m.created_at ASC
LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, companyID, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// RecentUserQueries returns the user's latest questions across all
// conversations, newest first.
func (r *PGRepo) RecentUserQueries(ctx context.Context, companyID, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
SELECT m.content
FROM messages m
JOIN conversations c ON c.id = m.conversation_id
WHERE c.company_id = $1 AND c.user_id = $2 AND m.role = $3
ORDER BY m.created_at DESC
LIMIT $4`

	rows, err := r.DB.QueryContext(ctx, query, companyID, userID, RoleUser, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
