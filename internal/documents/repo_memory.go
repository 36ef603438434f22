package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // documentID -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID without tenant scoping.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// GetForCompany returns a document scoped to a tenant.
func (r *MemoryRepo) GetForCompany(ctx context.Context, companyID, documentID string) (Document, error) {
	doc, err := r.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.CompanyID != companyID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByCompany returns documents for a tenant, newest first.
func (r *MemoryRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	docs := r.snapshot(func(doc Document) bool { return doc.CompanyID == companyID })
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// ListCompletedByCompany returns completed documents, newest first.
func (r *MemoryRepo) ListCompletedByCompany(ctx context.Context, companyID string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	docs := r.snapshot(func(doc Document) bool {
		return doc.CompanyID == companyID && doc.Status == StatusCompleted
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// UpdateStatus transitions a document's lifecycle status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID, status, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.ErrorMessage = errorMessage
	doc.UpdatedAt = time.Now().UTC()
	r.data[documentID] = doc
	return nil
}

// Delete removes a document scoped to a tenant.
func (r *MemoryRepo) Delete(ctx context.Context, companyID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok || doc.CompanyID != companyID {
		return ErrNotFound
	}
	delete(r.data, documentID)
	return nil
}

func (r *MemoryRepo) snapshot(keep func(Document) bool) []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []Document
	for _, doc := range r.data {
		if keep(doc) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

var _ Repo = (*MemoryRepo)(nil)
