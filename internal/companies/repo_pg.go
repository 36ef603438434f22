package companies

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

// CreateWithProfile inserts the company row and the user's profile in one transaction.
func (r *PGRepo) CreateWithProfile(ctx context.Context, company Company, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertCompany = `
INSERT INTO companies (id, name, created_at, updated_at)
VALUES ($1, $2, $3, $3)`
	if _, err := tx.ExecContext(ctx, insertCompany, company.ID, company.Name, company.CreatedAt); err != nil {
		return err
	}

	const upsertProfile = `
INSERT INTO profiles (id, company_id, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (id) DO UPDATE SET company_id = EXCLUDED.company_id, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsertProfile, userID, company.ID, company.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID fetches a company by ID.
func (r *PGRepo) GetByID(ctx context.Context, companyID string) (Company, error) {
	const query = `
SELECT id, name, created_at, updated_at
FROM companies
WHERE id = $1`
	var company Company
	err := r.DB.QueryRowContext(ctx, query, companyID).Scan(
		&company.ID,
		&company.Name,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	return company, nil
}

// UpdateName renames a company.
func (r *PGRepo) UpdateName(ctx context.Context, companyID, name string) error {
	const query = `
UPDATE companies
SET name = $1, updated_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, name, time.Now().UTC(), companyID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompanyIDForUser resolves the tenant for a user via the profiles table.
func (r *PGRepo) CompanyIDForUser(ctx context.Context, userID string) (string, error) {
	const query = `
SELECT company_id
FROM profiles
WHERE id = $1`
	var companyID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoCompany
		}
		return "", err
	}
	if !companyID.Valid || companyID.String == "" {
		return "", ErrNoCompany
	}
	return companyID.String, nil
}

var _ Repo = (*PGRepo)(nil)
