/**
 * @description
 * This file sets up the HTTP router for the asset service using the go-chi/chi router.
 * Public routes are registered directly; protected routes run through a request
 * pipeline that authenticates the bearer token and then checks the caller's role.
 */
package api

import (
	"net/http"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the asset service routes.
func NewRouter(h *Handler, verifier TokenVerifier, limiter RateLimiter, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticated := Pipeline(Authenticate(verifier))
	hrOnly := Pipeline(Authenticate(verifier), RequireRole(h.service, domain.RoleHR))
	employeeOnly := Pipeline(Authenticate(verifier), RequireRole(h.service, domain.RoleEmployee))
	anyRole := Pipeline(Authenticate(verifier), RequireRole(h.service, domain.RoleHR, domain.RoleEmployee))

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	// Users
	r.Post("/users", h.handleCreateUser)
	r.Get("/users", h.handleListUsers)
	r.With(hrOnly).Get("/users/{email}", h.handleGetUser)
	r.With(employeeOnly).Patch("/users", h.handleUpdateProfile)

	// Assets
	r.With(hrOnly).Post("/assets", h.handleCreateAsset)
	r.With(authenticated).Get("/assets", h.handleListAssets)
	r.With(hrOnly).Get("/assets/{id}", h.handleGetAsset)
	r.With(hrOnly).Patch("/assets", h.handleUpdateAsset)
	r.With(hrOnly).Patch("/assets/{id}", h.handleReserveAsset)
	r.With(hrOnly).Delete("/assets", h.handleDeleteAsset)

	// Requests
	r.With(employeeOnly).Post("/requests", h.handleCreateRequest)
	r.With(authenticated).Get("/requests", h.handleListRequests)
	r.With(anyRole).Patch("/requests", h.handlePatchRequests)
	r.With(hrOnly).Patch("/requests/{id}", h.handleDecideRequest)

	// Assigned assets
	r.With(hrOnly).Post("/assigned-assets", h.handleCreateAssignment)
	r.With(authenticated).Get("/assigned-assets", h.handleListAssignments)
	r.With(employeeOnly).Patch("/assigned-assets/{id}", h.handleReturnAssignment)

	// Affiliations
	r.With(hrOnly).Post("/affiliations", h.handleCreateAffiliation)
	r.With(authenticated).Get("/affiliations", h.handleListAffiliations)
	r.With(employeeOnly).Patch("/affiliations", h.handleAcceptAffiliation)
	r.With(hrOnly).Delete("/affiliations", h.handleDeleteAffiliation)

	// Packages and payments
	r.Get("/packages", h.handleListPackages)
	r.With(RateLimit(limiter)).Post("/create-checkout-session", h.handleCreateCheckoutSession)
	r.Patch("/payment-success", h.handleSettlePayment)
	r.With(hrOnly).Get("/payment-history", h.handlePaymentHistory)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusNotFound, map[string]string{"message": "route not found"})
	})

	return r
}
