package chat

import "time"

// Roles stored on messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a chat thread scoped to one tenant and one user.
type Conversation struct {
	ID        string
	CompanyID string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn in a conversation, append-only.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}
