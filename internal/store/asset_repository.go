package store

import (
	"context"
	"errors"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assetColumns = `id, product_name, product_image, product_type, product_quantity,
	available_quantity, hr_email, company_name, date_added`

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	if err := row.Scan(
		&asset.ID,
		&asset.ProductName,
		&asset.ProductImage,
		&asset.ProductType,
		&asset.ProductQuantity,
		&asset.AvailableQuantity,
		&asset.HREmail,
		&asset.CompanyName,
		&asset.DateAdded,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}

func collectAssets(rows pgx.Rows) ([]domain.Asset, error) {
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

// CreateAsset inserts an asset. A clash on (product_name, company_name)
// returns ErrDuplicate.
func (r *Repository) CreateAsset(ctx context.Context, asset *domain.Asset) (uuid.UUID, error) {
	query := `
		INSERT INTO assets (product_name, product_image, product_type, product_quantity,
		                    available_quantity, hr_email, company_name, date_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		asset.ProductName,
		asset.ProductImage,
		asset.ProductType,
		asset.ProductQuantity,
		asset.AvailableQuantity,
		asset.HREmail,
		asset.CompanyName,
		asset.DateAdded,
	).Scan(&asset.ID)
	if err != nil {
		return uuid.Nil, translateWriteError(err)
	}
	return asset.ID, nil
}

// FindAssetByNameAndCompany looks up the asset a company registered under productName.
func (r *Repository) FindAssetByNameAndCompany(ctx context.Context, productName, companyName string) (*domain.Asset, error) {
	query := "SELECT " + assetColumns + " FROM assets WHERE product_name = $1 AND company_name = $2"
	asset, err := scanAsset(r.db.QueryRow(ctx, query, productName, companyName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// GetAssetByID retrieves a specific asset.
func (r *Repository) GetAssetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// ListAssets returns every asset.
func (r *Repository) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.db.Query(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY date_added DESC")
	if err != nil {
		return nil, err
	}
	return collectAssets(rows)
}

// ListAssetsByHR returns one page of an organization's assets, newest first.
func (r *Repository) ListAssetsByHR(ctx context.Context, hrEmail string, limit, offset int) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + `
		FROM assets
		WHERE hr_email = $1
		ORDER BY date_added DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, hrEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAssets(rows)
}

// CountAssetsByHR counts an organization's assets.
func (r *Repository) CountAssetsByHR(ctx context.Context, hrEmail string) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM assets WHERE hr_email = $1", hrEmail).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateAsset overwrites the editable fields of an asset. The image is kept
// when update.ProductImage is empty.
func (r *Repository) UpdateAsset(ctx context.Context, id uuid.UUID, update domain.AssetUpdate) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE assets
		SET product_name = $2,
		    product_type = $3,
		    product_quantity = $4,
		    product_image = COALESCE(NULLIF($5, ''), product_image)
		WHERE id = $1
	`, id, update.ProductName, update.ProductType, update.ProductQuantity, update.ProductImage)
	if err != nil {
		return domain.UpdateResult{}, translateWriteError(err)
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}

// DecrementAssetAvailability takes one unit out of stock. Assets already at
// zero are matched but not modified.
func (r *Repository) DecrementAssetAvailability(ctx context.Context, id uuid.UUID) (domain.UpdateResult, error) {
	var matched, modified int64
	err := r.db.QueryRow(ctx, `
		WITH target AS (
			SELECT id, available_quantity FROM assets WHERE id = $1
		), updated AS (
			UPDATE assets
			SET available_quantity = available_quantity - 1
			WHERE id = $1 AND available_quantity > 0
			RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM updated)
	`, id).Scan(&matched, &modified)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified}, nil
}

// DeleteAsset removes an asset.
func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) (domain.DeleteResult, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM assets WHERE id = $1", id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}
