package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type createAssetRequest struct {
	ProductName       string     `json:"productName" validate:"required"`
	ProductImage      string     `json:"productImage"`
	ProductType       string     `json:"productType" validate:"required,oneof=returnable non-returnable"`
	ProductQuantity   int        `json:"productQuantity" validate:"gte=0"`
	AvailableQuantity int        `json:"availableQuantity" validate:"gte=0"`
	HREmail           string     `json:"hrEmail" validate:"required,email"`
	CompanyName       string     `json:"companyName" validate:"required"`
	DateAdded         *time.Time `json:"dateAdded"`
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	asset := &domain.Asset{
		ProductName:       req.ProductName,
		ProductImage:      req.ProductImage,
		ProductType:       req.ProductType,
		ProductQuantity:   req.ProductQuantity,
		AvailableQuantity: req.AvailableQuantity,
		HREmail:           strings.ToLower(req.HREmail),
		CompanyName:       req.CompanyName,
		DateAdded:         timeOrZero(req.DateAdded),
	}
	result, err := h.service.CreateAsset(r.Context(), asset)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	hrEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hrEmail")))
	if hrEmail == "" {
		assets, err := h.service.ListAssets(r.Context())
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, assets)
		return
	}

	page := positiveQueryInt(r, "page", app.DefaultPage)
	limit := positiveQueryInt(r, "limit", app.DefaultPageLimit)
	result, err := h.service.ListAssetsPage(r.Context(), hrEmail, page, limit)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, asset)
}

type updateAssetRequest struct {
	ProductName     string `json:"productName" validate:"required"`
	ProductImage    string `json:"productImage"`
	ProductType     string `json:"productType" validate:"required,oneof=returnable non-returnable"`
	ProductQuantity int    `json:"productQuantity" validate:"gte=0"`
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var req updateAssetRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.service.UpdateAsset(r.Context(), id, domain.AssetUpdate{
		ProductName:     req.ProductName,
		ProductImage:    req.ProductImage,
		ProductType:     req.ProductType,
		ProductQuantity: req.ProductQuantity,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReserveAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.service.ReserveAsset(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.service.DeleteAsset(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
