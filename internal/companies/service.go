package companies

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for companies.
type Service struct {
	Repo Repo
}

// CreateForUser creates a company and links the user to it, returning the created row.
// Creation is synchronous: callers can use the returned company immediately.
func (s *Service) CreateForUser(ctx context.Context, userID, name string) (Company, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return Company{}, ErrInvalidInput
	}

	company := Company{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	company.UpdatedAt = company.CreatedAt

	if err := s.Repo.CreateWithProfile(ctx, company, userID); err != nil {
		return Company{}, err
	}
	return company, nil
}

// ForUser returns the company the user belongs to.
func (s *Service) ForUser(ctx context.Context, userID string) (Company, error) {
	if userID == "" {
		return Company{}, ErrInvalidInput
	}
	companyID, err := s.Repo.CompanyIDForUser(ctx, userID)
	if err != nil {
		return Company{}, err
	}
	return s.Repo.GetByID(ctx, companyID)
}

// Rename updates the company name.
func (s *Service) Rename(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return ErrInvalidInput
	}
	companyID, err := s.Repo.CompanyIDForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.Repo.UpdateName(ctx, companyID, name)
}
