package app

import (
	"context"
	"errors"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
)

const affiliationExistsMessage = "affiliation already exists"

// CreateAffiliation links an employee to an organization.
func (s Service) CreateAffiliation(ctx context.Context, a *domain.Affiliation) (domain.InsertResult, error) {
	a.EmployeeEmail = strings.TrimSpace(a.EmployeeEmail)
	a.HREmail = strings.TrimSpace(a.HREmail)
	if a.EmployeeEmail == "" || a.HREmail == "" {
		return domain.InsertResult{}, invalidRequest("employeeEmail and hrEmail are required")
	}

	_, err := s.repo.FindAffiliation(ctx, a.EmployeeEmail, a.HREmail)
	switch {
	case err == nil:
		return domain.InsertResult{}, conflict(affiliationExistsMessage)
	case !errors.Is(err, store.ErrNotFound):
		return domain.InsertResult{}, storageFailure("find affiliation", err)
	}

	if a.Status == "" {
		a.Status = domain.AffiliationPending
	}
	if a.AffiliationDate.IsZero() {
		a.AffiliationDate = s.now()
	}

	id, err := s.repo.CreateAffiliation(ctx, a)
	if err != nil {
		return domain.InsertResult{}, insertFailure("create affiliation", affiliationExistsMessage, err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// ListAffiliations returns the affiliations matching filter.
func (s Service) ListAffiliations(ctx context.Context, filter domain.AffiliationFilter) ([]domain.Affiliation, error) {
	affiliations, err := s.repo.ListAffiliations(ctx, filter)
	if err != nil {
		return nil, storageFailure("list affiliations", err)
	}
	return affiliations, nil
}

// AcceptAffiliation activates an employee's affiliation with companyName.
func (s Service) AcceptAffiliation(ctx context.Context, employeeEmail, companyName string) (domain.UpdateResult, error) {
	if strings.TrimSpace(employeeEmail) == "" || strings.TrimSpace(companyName) == "" {
		return domain.UpdateResult{}, invalidRequest("employeeEmail and companyName are required")
	}

	result, err := s.repo.ActivateAffiliation(ctx, employeeEmail, companyName)
	if err != nil {
		return domain.UpdateResult{}, storageFailure("activate affiliation", err)
	}
	return result, nil
}

// RemoveAffiliation deletes the affiliation between the calling HR principal
// and employeeEmail. Other organizations' affiliations are never touched.
func (s Service) RemoveAffiliation(ctx context.Context, hrEmail, employeeEmail string) (domain.DeleteResult, error) {
	if strings.TrimSpace(employeeEmail) == "" {
		return domain.DeleteResult{}, invalidRequest("email is required")
	}

	result, err := s.repo.DeleteAffiliation(ctx, employeeEmail, hrEmail)
	if err != nil {
		return domain.DeleteResult{}, storageFailure("delete affiliation", err)
	}
	return result, nil
}
