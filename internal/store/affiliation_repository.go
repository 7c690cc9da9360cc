package store

import (
	"context"
	"errors"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const affiliationColumns = `id, employee_email, employee_name, hr_email, company_name, company_logo,
	affiliation_date, status`

func scanAffiliation(row rowScanner) (*domain.Affiliation, error) {
	var a domain.Affiliation
	if err := row.Scan(
		&a.ID,
		&a.EmployeeEmail,
		&a.EmployeeName,
		&a.HREmail,
		&a.CompanyName,
		&a.CompanyLogo,
		&a.AffiliationDate,
		&a.Status,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAffiliation inserts an affiliation. A second link between the same
// employee and organization returns ErrDuplicate.
func (r *Repository) CreateAffiliation(ctx context.Context, a *domain.Affiliation) (uuid.UUID, error) {
	query := `
		INSERT INTO affiliations (employee_email, employee_name, hr_email, company_name,
		                          company_logo, affiliation_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		a.EmployeeEmail,
		a.EmployeeName,
		a.HREmail,
		a.CompanyName,
		a.CompanyLogo,
		a.AffiliationDate,
		a.Status,
	).Scan(&a.ID)
	if err != nil {
		return uuid.Nil, translateWriteError(err)
	}
	return a.ID, nil
}

// FindAffiliation looks up the link between employeeEmail and hrEmail.
func (r *Repository) FindAffiliation(ctx context.Context, employeeEmail, hrEmail string) (*domain.Affiliation, error) {
	query := "SELECT " + affiliationColumns + " FROM affiliations WHERE employee_email = $1 AND hr_email = $2"
	a, err := scanAffiliation(r.db.QueryRow(ctx, query, employeeEmail, hrEmail))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListAffiliations returns every affiliation matching filter.
func (r *Repository) ListAffiliations(ctx context.Context, filter domain.AffiliationFilter) ([]domain.Affiliation, error) {
	where, args := whereClause(
		[]string{"hr_email", "company_name", "employee_email"},
		[]string{filter.HREmail, filter.CompanyName, filter.EmployeeEmail},
	)
	rows, err := r.db.Query(ctx, "SELECT "+affiliationColumns+" FROM affiliations"+where+" ORDER BY affiliation_date DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	affiliations := []domain.Affiliation{}
	for rows.Next() {
		a, err := scanAffiliation(rows)
		if err != nil {
			return nil, err
		}
		affiliations = append(affiliations, *a)
	}
	return affiliations, rows.Err()
}

// ActivateAffiliation marks one of employeeEmail's affiliations with companyName active.
func (r *Repository) ActivateAffiliation(ctx context.Context, employeeEmail, companyName string) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE affiliations
		SET status = 'active'
		WHERE id = (
			SELECT id FROM affiliations
			WHERE employee_email = $1 AND company_name = $2
			ORDER BY affiliation_date ASC
			LIMIT 1
		)
	`, employeeEmail, companyName)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}

// DeleteAffiliation removes the link between employeeEmail and hrEmail.
func (r *Repository) DeleteAffiliation(ctx context.Context, employeeEmail, hrEmail string) (domain.DeleteResult, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM affiliations WHERE employee_email = $1 AND hr_email = $2", employeeEmail, hrEmail)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}
