package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	// GetByID fetches a document without tenant scoping; the ingestion
	// pipeline resolves the tenant from the row itself.
	GetByID(ctx context.Context, documentID string) (Document, error)
	// GetForCompany fetches a document scoped to a tenant.
	GetForCompany(ctx context.Context, companyID, documentID string) (Document, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]Document, error)
	// ListCompletedByCompany returns completed documents, newest first.
	ListCompletedByCompany(ctx context.Context, companyID string, limit int) ([]Document, error)
	UpdateStatus(ctx context.Context, documentID, status, errorMessage string) error
	Delete(ctx context.Context, companyID, documentID string) error
}
