package documents

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

const documentColumns = `id, company_id, uploaded_by, filename, file_path, file_type, file_size, status, error_message, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    company_id,
    uploaded_by,
    filename,
    file_path,
    file_type,
    file_size,
    status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	status := doc.Status
	if status == "" {
		status = StatusPending
	}

	var fileType sql.NullString
	if doc.FileType != "" {
		fileType = sql.NullString{String: doc.FileType, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.CompanyID,
		doc.UploadedBy,
		doc.Filename,
		doc.FilePath,
		fileType,
		doc.FileSize,
		status,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID without tenant scoping.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, documentID))
}

// GetForCompany fetches a document scoped to a tenant.
func (r *PGRepo) GetForCompany(ctx context.Context, companyID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE company_id = $1 AND id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, companyID, documentID))
}

// ListByCompany lists documents ordered newest-first.
func (r *PGRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE company_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListCompletedByCompany returns completed documents, newest first.
func (r *PGRepo) ListCompletedByCompany(ctx context.Context, companyID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE company_id = $1 AND status = $2
ORDER BY created_at DESC
LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, companyID, StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// UpdateStatus transitions a document's lifecycle status.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID, status, errorMessage string) error {
	const query = `
UPDATE documents
SET status = $1, error_message = $2, updated_at = $3
WHERE id = $4`

	var errMsg sql.NullString
	if errorMessage != "" {
		errMsg = sql.NullString{String: errorMessage, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document scoped to a tenant.
func (r *PGRepo) Delete(ctx context.Context, companyID, documentID string) error {
	const query = `
DELETE FROM documents
WHERE company_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, companyID, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Document, error) {
	var doc Document
	var fileType sql.NullString
	var fileSize sql.NullInt64
	var errMsg sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.UploadedBy,
		&doc.Filename,
		&doc.FilePath,
		&fileType,
		&fileSize,
		&doc.Status,
		&errMsg,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if fileType.Valid {
		doc.FileType = fileType.String
	}
	if fileSize.Valid {
		doc.FileSize = fileSize.Int64
	}
	if errMsg.Valid {
		doc.ErrorMessage = errMsg.String
	}
	return doc, nil
}

func (r *PGRepo) scanAll(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
