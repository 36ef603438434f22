package companies

import "time"

// Company is the isolation boundary for documents, chunks, and conversations.
type Company struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile links an authenticated user to a company.
type Profile struct {
	UserID    string
	CompanyID string
	CreatedAt time.Time
	UpdatedAt time.Time
}
