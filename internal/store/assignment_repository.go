package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assignmentColumns = `id, asset_id, asset_name, asset_image, asset_type, employee_email,
	employee_name, hr_email, company_name, assignment_date, return_date, status`

func scanAssignment(row rowScanner) (*domain.AssignedAsset, error) {
	var a domain.AssignedAsset
	if err := row.Scan(
		&a.ID,
		&a.AssetID,
		&a.AssetName,
		&a.AssetImage,
		&a.AssetType,
		&a.EmployeeEmail,
		&a.EmployeeName,
		&a.HREmail,
		&a.CompanyName,
		&a.AssignmentDate,
		&a.ReturnDate,
		&a.Status,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAssignment inserts an assignment. Assigning the same asset to the
// same employee twice returns ErrDuplicate.
func (r *Repository) CreateAssignment(ctx context.Context, a *domain.AssignedAsset) (uuid.UUID, error) {
	query := `
		INSERT INTO assigned_assets (asset_id, asset_name, asset_image, asset_type, employee_email,
		                             employee_name, hr_email, company_name, assignment_date, return_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		a.AssetID,
		a.AssetName,
		a.AssetImage,
		a.AssetType,
		a.EmployeeEmail,
		a.EmployeeName,
		a.HREmail,
		a.CompanyName,
		a.AssignmentDate,
		a.ReturnDate,
		a.Status,
	).Scan(&a.ID)
	if err != nil {
		return uuid.Nil, translateWriteError(err)
	}
	return a.ID, nil
}

// FindAssignment looks up the assignment of assetID to employeeEmail.
func (r *Repository) FindAssignment(ctx context.Context, employeeEmail, assetID string) (*domain.AssignedAsset, error) {
	query := "SELECT " + assignmentColumns + " FROM assigned_assets WHERE employee_email = $1 AND asset_id = $2"
	a, err := scanAssignment(r.db.QueryRow(ctx, query, employeeEmail, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListAssignments returns assignments whose asset name contains search,
// case-insensitively. An empty search returns everything.
func (r *Repository) ListAssignments(ctx context.Context, search string) ([]domain.AssignedAsset, error) {
	query := "SELECT " + assignmentColumns + " FROM assigned_assets"
	var args []any
	if search != "" {
		query += " WHERE asset_name ~* $1"
		args = append(args, regexp.QuoteMeta(search))
	}
	query += " ORDER BY assignment_date DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []domain.AssignedAsset{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// MarkAssignmentReturned records the return of an assigned asset.
func (r *Repository) MarkAssignmentReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE assigned_assets
		SET return_date = $2,
		    status = 'returned'
		WHERE id = $1
	`, id, returnDate)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}
