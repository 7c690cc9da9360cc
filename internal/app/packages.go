package app

import (
	"context"

	"github.com/assetverse/asset-service/internal/domain"
)

// ListPackages returns every purchasable package.
func (s Service) ListPackages(ctx context.Context) ([]domain.Package, error) {
	packages, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, storageFailure("list packages", err)
	}
	return packages, nil
}

// FindPackage returns the package whose name contains name, or nil.
func (s Service) FindPackage(ctx context.Context, name string) (*domain.Package, error) {
	pkg, err := s.repo.FindPackageByName(ctx, name)
	return optional(pkg, err, "find package")
}

// PaymentHistory returns an organization's payments, newest first.
func (s Service) PaymentHistory(ctx context.Context, hrEmail string) ([]domain.Payment, error) {
	payments, err := s.repo.ListPaymentsByHR(ctx, hrEmail)
	if err != nil {
		return nil, storageFailure("list payments", err)
	}
	return payments, nil
}
