package app

import (
	"context"
	"errors"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
	"github.com/google/uuid"
)

const (
	assetExistsMessage = "asset already exists"

	DefaultPage      = 1
	DefaultPageLimit = 10
)

// CreateAsset registers an asset. A company cannot hold two assets with the
// same product name.
func (s Service) CreateAsset(ctx context.Context, asset *domain.Asset) (domain.InsertResult, error) {
	asset.ProductName = strings.TrimSpace(asset.ProductName)
	if asset.ProductName == "" || asset.CompanyName == "" {
		return domain.InsertResult{}, invalidRequest("productName and companyName are required")
	}
	if asset.ProductQuantity < 0 || asset.AvailableQuantity < 0 {
		return domain.InsertResult{}, invalidRequest("quantities cannot be negative")
	}

	_, err := s.repo.FindAssetByNameAndCompany(ctx, asset.ProductName, asset.CompanyName)
	switch {
	case err == nil:
		return domain.InsertResult{}, conflict(assetExistsMessage)
	case !errors.Is(err, store.ErrNotFound):
		return domain.InsertResult{}, storageFailure("find asset", err)
	}

	if asset.AvailableQuantity == 0 {
		asset.AvailableQuantity = asset.ProductQuantity
	}
	if asset.DateAdded.IsZero() {
		asset.DateAdded = s.now()
	}

	id, err := s.repo.CreateAsset(ctx, asset)
	if err != nil {
		return domain.InsertResult{}, insertFailure("create asset", assetExistsMessage, err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// ListAssets returns every asset.
func (s Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, storageFailure("list assets", err)
	}
	return assets, nil
}

// ListAssetsPage returns one page of an organization's assets, newest first.
// Page and limit below 1 fall back to 1.
func (s Service) ListAssetsPage(ctx context.Context, hrEmail string, page, limit int) (*domain.AssetPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	total, err := s.repo.CountAssetsByHR(ctx, hrEmail)
	if err != nil {
		return nil, storageFailure("count assets", err)
	}

	assets, err := s.repo.ListAssetsByHR(ctx, hrEmail, limit, (page-1)*limit)
	if err != nil {
		return nil, storageFailure("list assets", err)
	}

	return &domain.AssetPage{
		Data: assets,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

func totalPages(total int64, limit int) int64 {
	if total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// GetAsset returns the asset with id, or nil when there is none.
func (s Service) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	asset, err := s.repo.GetAssetByID(ctx, id)
	return optional(asset, err, "get asset")
}

// UpdateAsset overwrites an asset's editable fields.
func (s Service) UpdateAsset(ctx context.Context, id uuid.UUID, update domain.AssetUpdate) (domain.UpdateResult, error) {
	if update.ProductQuantity < 0 {
		return domain.UpdateResult{}, invalidRequest("productQuantity cannot be negative")
	}

	result, err := s.repo.UpdateAsset(ctx, id, update)
	if err != nil {
		return domain.UpdateResult{}, insertFailure("update asset", assetExistsMessage, err)
	}
	return result, nil
}

// ReserveAsset takes one unit of an asset out of stock. Availability never
// drops below zero.
func (s Service) ReserveAsset(ctx context.Context, id uuid.UUID) (domain.UpdateResult, error) {
	result, err := s.repo.DecrementAssetAvailability(ctx, id)
	if err != nil {
		return domain.UpdateResult{}, storageFailure("reserve asset", err)
	}
	return result, nil
}

// DeleteAsset removes an asset.
func (s Service) DeleteAsset(ctx context.Context, id uuid.UUID) (domain.DeleteResult, error) {
	result, err := s.repo.DeleteAsset(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, storageFailure("delete asset", err)
	}
	return result, nil
}
