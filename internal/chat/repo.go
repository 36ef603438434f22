package chat

import "context"

// Repo defines persistence for conversations and messages. All reads are
// tenant-scoped.
type Repo interface {
	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, companyID, conversationID string) (Conversation, error)
	ListConversations(ctx context.Context, companyID, userID string, limit, offset int) ([]Conversation, error)
	DeleteConversation(ctx context.Context, companyID, conversationID string) error
	// TouchConversation bumps updated_at so listings sort by recency.
	TouchConversation(ctx context.Context, conversationID string) error

	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, companyID, conversationID string, limit int) ([]Message, error)
	// RecentUserQueries returns the user's latest user-role message
	// contents across all their conversations, newest first.
	RecentUserQueries(ctx context.Context, companyID, userID string, limit int) ([]string, error)
}
