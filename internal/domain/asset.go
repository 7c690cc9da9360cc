/**
 * @description
 * Domain models for company assets and the query shapes used to list them.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Asset types.
const (
	AssetReturnable    = "returnable"
	AssetNonReturnable = "non-returnable"
)

// Asset represents an inventory item owned by an organization.
type Asset struct {
	ID                uuid.UUID `json:"_id"`
	ProductName       string    `json:"productName"`
	ProductImage      string    `json:"productImage,omitempty"`
	ProductType       string    `json:"productType"`
	ProductQuantity   int       `json:"productQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	HREmail           string    `json:"hrEmail"`
	CompanyName       string    `json:"companyName"`
	DateAdded         time.Time `json:"dateAdded"`
}

// AssetUpdate holds the editable fields of an asset. ProductImage is only
// applied when non-empty.
type AssetUpdate struct {
	ProductName     string `json:"productName"`
	ProductImage    string `json:"productImage"`
	ProductType     string `json:"productType"`
	ProductQuantity int    `json:"productQuantity"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// AssetPage is a paginated asset listing.
type AssetPage struct {
	Data       []Asset    `json:"data"`
	Pagination Pagination `json:"pagination"`
}
