package store

import (
	"context"
	"errors"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `id, asset_id, asset_name, asset_type, requester_name, requester_email,
	hr_email, company_name, request_date, approval_date, request_status, note`

var requestFilterColumns = []string{"asset_id", "hr_email", "requester_email", "request_status"}

func requestFilterValues(f domain.RequestFilter) []string {
	return []string{f.AssetID, f.HREmail, f.RequesterEmail, f.RequestStatus}
}

func scanRequest(row rowScanner) (*domain.AssetRequest, error) {
	var req domain.AssetRequest
	if err := row.Scan(
		&req.ID,
		&req.AssetID,
		&req.AssetName,
		&req.AssetType,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.HREmail,
		&req.CompanyName,
		&req.RequestDate,
		&req.ApprovalDate,
		&req.RequestStatus,
		&req.Note,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateRequest inserts an asset request. A second pending request for the
// same asset and requester returns ErrDuplicate.
func (r *Repository) CreateRequest(ctx context.Context, req *domain.AssetRequest) (uuid.UUID, error) {
	query := `
		INSERT INTO requests (asset_id, asset_name, asset_type, requester_name, requester_email,
		                      hr_email, company_name, request_date, approval_date, request_status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		req.AssetID,
		req.AssetName,
		req.AssetType,
		req.RequesterName,
		req.RequesterEmail,
		req.HREmail,
		req.CompanyName,
		req.RequestDate,
		req.ApprovalDate,
		req.RequestStatus,
		req.Note,
	).Scan(&req.ID)
	if err != nil {
		return uuid.Nil, translateWriteError(err)
	}
	return req.ID, nil
}

// FindRequest returns the first request matching filter.
func (r *Repository) FindRequest(ctx context.Context, filter domain.RequestFilter) (*domain.AssetRequest, error) {
	where, args := whereClause(requestFilterColumns, requestFilterValues(filter))
	query := "SELECT " + requestColumns + " FROM requests" + where + " ORDER BY request_date LIMIT 1"
	req, err := scanRequest(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListRequests returns every request matching filter.
func (r *Repository) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.AssetRequest, error) {
	where, args := whereClause(requestFilterColumns, requestFilterValues(filter))
	rows, err := r.db.Query(ctx, "SELECT "+requestColumns+" FROM requests"+where+" ORDER BY request_date DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.AssetRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// UpdateRequestStatus sets the status of one request for assetID, preferring
// the oldest pending one. A nil approvalDate leaves the stored date as is.
func (r *Repository) UpdateRequestStatus(ctx context.Context, assetID, status string, approvalDate *time.Time) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE requests
		SET request_status = $2,
		    approval_date = COALESCE($3, approval_date)
		WHERE id = (
			SELECT id FROM requests
			WHERE asset_id = $1
			ORDER BY (request_status = 'pending') DESC, request_date ASC
			LIMIT 1
		)
	`, assetID, status, approvalDate)
	if err != nil {
		return domain.UpdateResult{}, translateWriteError(err)
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}

// MarkRequestReturned flags one of requesterEmail's requests for assetID as returned.
func (r *Repository) MarkRequestReturned(ctx context.Context, assetID, requesterEmail string) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE requests
		SET request_status = 'returned'
		WHERE id = (
			SELECT id FROM requests
			WHERE asset_id = $1 AND requester_email = $2
			ORDER BY (request_status = 'approved') DESC, request_date ASC
			LIMIT 1
		)
	`, assetID, requesterEmail)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}
