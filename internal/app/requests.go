package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
)

const requestExistsMessage = "request already exists"

func validRequestStatus(status string) bool {
	switch status {
	case domain.RequestPending, domain.RequestApproved, domain.RequestRejected, domain.RequestReturned:
		return true
	}
	return false
}

// CreateRequest files an asset request on behalf of an employee. A request
// with the same asset, requester and status is rejected with a conflict.
func (s Service) CreateRequest(ctx context.Context, req *domain.AssetRequest) (domain.InsertResult, error) {
	req.AssetID = strings.TrimSpace(req.AssetID)
	if req.AssetID == "" || req.RequesterEmail == "" {
		return domain.InsertResult{}, invalidRequest("assetId and requesterEmail are required")
	}
	if req.RequestStatus == "" {
		req.RequestStatus = domain.RequestPending
	}
	if !validRequestStatus(req.RequestStatus) {
		return domain.InsertResult{}, invalidRequest("unsupported requestStatus %q", req.RequestStatus)
	}

	_, err := s.repo.FindRequest(ctx, domain.RequestFilter{
		AssetID:        req.AssetID,
		RequesterEmail: req.RequesterEmail,
		RequestStatus:  req.RequestStatus,
	})
	switch {
	case err == nil:
		return domain.InsertResult{}, conflict(requestExistsMessage)
	case !errors.Is(err, store.ErrNotFound):
		return domain.InsertResult{}, storageFailure("find request", err)
	}

	if req.RequestDate.IsZero() {
		req.RequestDate = s.now()
	}

	id, err := s.repo.CreateRequest(ctx, req)
	if err != nil {
		return domain.InsertResult{}, insertFailure("create request", requestExistsMessage, err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// GetRequestForAsset returns the oldest request for assetID, or nil.
func (s Service) GetRequestForAsset(ctx context.Context, assetID string) (*domain.AssetRequest, error) {
	req, err := s.repo.FindRequest(ctx, domain.RequestFilter{AssetID: assetID})
	return optional(req, err, "find request")
}

// ListRequests returns the requests matching filter.
func (s Service) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.AssetRequest, error) {
	requests, err := s.repo.ListRequests(ctx, filter)
	if err != nil {
		return nil, storageFailure("list requests", err)
	}
	return requests, nil
}

// UpdateRequestStatus records an HR decision on a request for assetID.
func (s Service) UpdateRequestStatus(ctx context.Context, assetID, status string, approvalDate *time.Time) (domain.UpdateResult, error) {
	if strings.TrimSpace(assetID) == "" {
		return domain.UpdateResult{}, invalidRequest("asset id is required")
	}
	if !validRequestStatus(status) {
		return domain.UpdateResult{}, invalidRequest("unsupported requestStatus %q", status)
	}

	result, err := s.repo.UpdateRequestStatus(ctx, assetID, status, approvalDate)
	if err != nil {
		return domain.UpdateResult{}, insertFailure("update request", requestExistsMessage, err)
	}
	return result, nil
}

// ReturnRequest marks an employee's request for assetID as returned.
func (s Service) ReturnRequest(ctx context.Context, assetID, requesterEmail string) (domain.UpdateResult, error) {
	if strings.TrimSpace(assetID) == "" || strings.TrimSpace(requesterEmail) == "" {
		return domain.UpdateResult{}, invalidRequest("assetId and requesterEmail are required")
	}

	result, err := s.repo.MarkRequestReturned(ctx, assetID, requesterEmail)
	if err != nil {
		return domain.UpdateResult{}, storageFailure("return request", err)
	}
	return result, nil
}
