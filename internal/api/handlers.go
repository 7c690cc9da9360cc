/**
 * @description
 * HTTP handlers for the asset service.
 */
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service app.Service) *Handler {
	return &Handler{service: service}
}

// decodeBody reads a JSON body into dst and validates its struct tags.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &app.Error{Kind: app.ErrInvalidRequest, Message: "invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		return &app.Error{Kind: app.ErrInvalidRequest, Message: validationMessage(err)}
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid request body"
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", lowerFirst(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// parseID reads a record id from a path or query value.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, &app.Error{Kind: app.ErrInvalidRequest, Message: "invalid id"}
	}
	return id, nil
}

// positiveQueryInt parses a query value, falling back to def when the value
// is missing, malformed or zero.
func positiveQueryInt(r *http.Request, key string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || value == 0 {
		return def
	}
	return value
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Asset service is running"))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Asset service is healthy"))
}

type createUserRequest struct {
	Name          string     `json:"name"`
	Email         string     `json:"email" validate:"required,email"`
	Role          string     `json:"role" validate:"omitempty,oneof=employee hr"`
	ProfileImage  string     `json:"profileImage"`
	CompanyName   string     `json:"companyName"`
	CompanyLogo   string     `json:"companyLogo"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	PackageName   string     `json:"packageName"`
	EmployeeLimit int        `json:"employeeLimit" validate:"gte=0"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	user := &domain.User{
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		Role:          domain.Role(req.Role),
		ProfileImage:  req.ProfileImage,
		CompanyName:   req.CompanyName,
		CompanyLogo:   req.CompanyLogo,
		DateOfBirth:   req.DateOfBirth,
		PackageName:   req.PackageName,
		EmployeeLimit: req.EmployeeLimit,
	}
	result, err := h.service.CreateUser(r.Context(), user)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if email := strings.TrimSpace(query.Get("email")); email != "" {
		user, err := h.service.GetUser(r.Context(), strings.ToLower(email))
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, user)
		return
	}

	users, err := h.service.ListUsers(r.Context(), strings.TrimSpace(query.Get("role")))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
	user, err := h.service.GetUser(r.Context(), email)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name         string `json:"name" validate:"required"`
	ProfileImage string `json:"profileImage"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	target := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	result, err := h.service.UpdateProfile(r.Context(), principal, target, domain.ProfileUpdate{
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
