package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
	"github.com/google/uuid"
)

const assignmentExistsMessage = "assigned asset already exists"

// AssignAsset hands an asset to an employee. The same asset cannot be
// assigned to the same employee twice.
func (s Service) AssignAsset(ctx context.Context, a *domain.AssignedAsset) (domain.InsertResult, error) {
	a.AssetID = strings.TrimSpace(a.AssetID)
	if a.AssetID == "" || a.EmployeeEmail == "" {
		return domain.InsertResult{}, invalidRequest("assetId and employeeEmail are required")
	}

	_, err := s.repo.FindAssignment(ctx, a.EmployeeEmail, a.AssetID)
	switch {
	case err == nil:
		return domain.InsertResult{}, conflict(assignmentExistsMessage)
	case !errors.Is(err, store.ErrNotFound):
		return domain.InsertResult{}, storageFailure("find assignment", err)
	}

	if a.Status == "" {
		a.Status = domain.AssignmentAssigned
	}
	if a.AssignmentDate.IsZero() {
		a.AssignmentDate = s.now()
	}

	id, err := s.repo.CreateAssignment(ctx, a)
	if err != nil {
		return domain.InsertResult{}, insertFailure("create assignment", assignmentExistsMessage, err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// ListAssignments returns assignments whose asset name contains search.
func (s Service) ListAssignments(ctx context.Context, search string) ([]domain.AssignedAsset, error) {
	assignments, err := s.repo.ListAssignments(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storageFailure("list assignments", err)
	}
	return assignments, nil
}

// ReturnAssignment records that an assigned asset came back. A nil
// returnDate means now.
func (s Service) ReturnAssignment(ctx context.Context, id uuid.UUID, returnDate *time.Time) (domain.UpdateResult, error) {
	returnedAt := s.now()
	if returnDate != nil && !returnDate.IsZero() {
		returnedAt = returnDate.UTC()
	}

	result, err := s.repo.MarkAssignmentReturned(ctx, id, returnedAt)
	if err != nil {
		return domain.UpdateResult{}, storageFailure("return assignment", err)
	}
	return result, nil
}
