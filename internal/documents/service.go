package documents

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"werkly-backend/internal/shared/storage/object"
)

// ChunkDeleter removes persisted chunks for a document. Satisfied by the
// embeddings chunk store; declared here so deletion does not pull in the
// embedding stack.
type ChunkDeleter interface {
	DeleteByDocument(ctx context.Context, companyID, documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store  object.ObjectStore
	Repo   Repo
	Chunks ChunkDeleter
}

// Upload saves the file to object storage and records a pending document.
func (s *Service) Upload(ctx context.Context, userID, companyID, fileName string, r io.Reader) (Document, error) {
	if fileName == "" || companyID == "" {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, companyID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		UploadedBy: userID,
		Filename:   fileName,
		FilePath:   storageKey,
		FileType:   mimeType,
		FileSize:   size,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	doc.UpdatedAt = doc.CreatedAt

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// Get returns a document scoped to a tenant.
func (s *Service) Get(ctx context.Context, companyID, documentID string) (Document, error) {
	if companyID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetForCompany(ctx, companyID, documentID)
}

// List returns a tenant's documents, newest first.
func (s *Service) List(ctx context.Context, companyID string, limit, offset int) ([]Document, error) {
	if companyID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByCompany(ctx, companyID, limit, offset)
}

// Delete removes a document and its persisted chunks.
func (s *Service) Delete(ctx context.Context, companyID, documentID string) error {
	if companyID == "" || documentID == "" {
		return ErrInvalidInput
	}
	if s.Chunks != nil {
		if err := s.Chunks.DeleteByDocument(ctx, companyID, documentID); err != nil {
			return err
		}
	}
	return s.Repo.Delete(ctx, companyID, documentID)
}
