package companies

import "context"

// Repo defines persistence operations for companies and profiles.
type Repo interface {
	// CreateWithProfile creates the company and links the user to it atomically.
	CreateWithProfile(ctx context.Context, company Company, userID string) error
	GetByID(ctx context.Context, companyID string) (Company, error)
	UpdateName(ctx context.Context, companyID, name string) error
	// CompanyIDForUser resolves the tenant for a user, ErrNoCompany if unset.
	CompanyIDForUser(ctx context.Context, userID string) (string, error)
}
