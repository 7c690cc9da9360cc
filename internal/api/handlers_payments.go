package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
)

const (
	missingSessionMessage  = "session_id is required"
	paymentFailedMessage   = "Payment processing failed"
	checkoutSessionIDParam = "session_id"
)

func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		pkg, err := h.service.FindPackage(r.Context(), name)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, pkg)
		return
	}

	packages, err := h.service.ListPackages(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, packages)
}

func (h *Handler) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	req.HREmail = strings.ToLower(req.HREmail)

	url, err := h.service.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleSettlePayment settles the checkout session named by ?session_id.
// Unlike other routes its failures are reported as {"error": ...}.
func (h *Handler) handleSettlePayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get(checkoutSessionIDParam)

	result, err := h.service.SettlePayment(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidRequest) {
			respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": missingSessionMessage})
			return
		}
		log.Printf("level=error component=api msg=\"payment settlement failed\" session_id=%q err=%v", sessionID, err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": paymentFailedMessage})
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	payments, err := h.service.PaymentHistory(r.Context(), principal)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, payments)
}
