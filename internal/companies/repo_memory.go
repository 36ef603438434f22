package companies

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	companies map[string]Company
	profiles  map[string]string // userID -> companyID
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		companies: make(map[string]Company),
		profiles:  make(map[string]string),
	}
}

// CreateWithProfile stores the company and links the user to it.
func (r *MemoryRepo) CreateWithProfile(ctx context.Context, company Company, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.ID] = company
	r.profiles[userID] = company.ID
	return nil
}

// GetByID returns a company by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, companyID string) (Company, error) {
	if err := ctx.Err(); err != nil {
		return Company{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.companies[companyID]
	if !ok {
		return Company{}, ErrNotFound
	}
	return company, nil
}

// UpdateName renames a company.
func (r *MemoryRepo) UpdateName(ctx context.Context, companyID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[companyID]
	if !ok {
		return ErrNotFound
	}
	company.Name = name
	company.UpdatedAt = time.Now().UTC()
	r.companies[companyID] = company
	return nil
}

// CompanyIDForUser resolves the tenant for a user.
func (r *MemoryRepo) CompanyIDForUser(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	companyID, ok := r.profiles[userID]
	if !ok || companyID == "" {
		return "", ErrNoCompany
	}
	return companyID, nil
}

var _ Repo = (*MemoryRepo)(nil)
