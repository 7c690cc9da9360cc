package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type createRequestRequest struct {
	AssetID        string     `json:"assetId" validate:"required"`
	AssetName      string     `json:"assetName"`
	AssetType      string     `json:"assetType"`
	RequesterName  string     `json:"requesterName"`
	RequesterEmail string     `json:"requesterEmail" validate:"required,email"`
	HREmail        string     `json:"hrEmail" validate:"omitempty,email"`
	CompanyName    string     `json:"companyName"`
	RequestDate    *time.Time `json:"requestDate"`
	RequestStatus  string     `json:"requestStatus" validate:"omitempty,oneof=pending approved rejected returned"`
	Note           string     `json:"note"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	request := &domain.AssetRequest{
		AssetID:        req.AssetID,
		AssetName:      req.AssetName,
		AssetType:      req.AssetType,
		RequesterName:  req.RequesterName,
		RequesterEmail: strings.ToLower(req.RequesterEmail),
		HREmail:        strings.ToLower(req.HREmail),
		CompanyName:    req.CompanyName,
		RequestDate:    timeOrZero(req.RequestDate),
		RequestStatus:  req.RequestStatus,
		Note:           req.Note,
	}
	result, err := h.service.CreateRequest(r.Context(), request)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleListRequests applies the first present filter of assetId, hrEmail
// and requesterEmail. assetId yields a single request or null.
func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if assetID := strings.TrimSpace(query.Get("assetId")); assetID != "" {
		request, err := h.service.GetRequestForAsset(r.Context(), assetID)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, request)
		return
	}

	var filter domain.RequestFilter
	if hrEmail := strings.TrimSpace(query.Get("hrEmail")); hrEmail != "" {
		filter.HREmail = strings.ToLower(hrEmail)
	} else if requesterEmail := strings.TrimSpace(query.Get("requesterEmail")); requesterEmail != "" {
		filter.RequesterEmail = strings.ToLower(requesterEmail)
	}

	requests, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, requests)
}

type updateRequestStatusRequest struct {
	RequestStatus string     `json:"requestStatus" validate:"required,oneof=pending approved rejected returned"`
	ApprovalDate  *time.Time `json:"approvalDate"`
}

// handlePatchRequests serves both request transitions on one route: HR
// decides on the request for ?id, an employee returns their own request
// for ?assetId.
func (h *Handler) handlePatchRequests(w http.ResponseWriter, r *http.Request) {
	role, _ := RoleFromContext(r.Context())
	if role == domain.RoleHR {
		h.decideRequest(w, r, r.URL.Query().Get("id"))
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	requesterEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("requesterEmail")))
	if requesterEmail == "" {
		requesterEmail = principal
	}
	if requesterEmail != principal {
		respondWithError(w, r, app.ErrForbidden)
		return
	}

	result, err := h.service.ReturnRequest(r.Context(), r.URL.Query().Get("assetId"), requesterEmail)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDecideRequest(w http.ResponseWriter, r *http.Request) {
	h.decideRequest(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) decideRequest(w http.ResponseWriter, r *http.Request, assetID string) {
	var req updateRequestStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	var approvalDate *time.Time
	if req.ApprovalDate != nil {
		at := req.ApprovalDate.UTC()
		approvalDate = &at
	}

	result, err := h.service.UpdateRequestStatus(r.Context(), strings.TrimSpace(assetID), req.RequestStatus, approvalDate)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type createAssignmentRequest struct {
	AssetID        string     `json:"assetId" validate:"required"`
	AssetName      string     `json:"assetName" validate:"required"`
	AssetImage     string     `json:"assetImage"`
	AssetType      string     `json:"assetType"`
	EmployeeEmail  string     `json:"employeeEmail" validate:"required,email"`
	EmployeeName   string     `json:"employeeName"`
	HREmail        string     `json:"hrEmail" validate:"omitempty,email"`
	CompanyName    string     `json:"companyName"`
	AssignmentDate *time.Time `json:"assignmentDate"`
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	hrEmail := strings.ToLower(req.HREmail)
	if hrEmail == "" {
		hrEmail, _ = PrincipalFromContext(r.Context())
	}

	assignment := &domain.AssignedAsset{
		AssetID:        req.AssetID,
		AssetName:      req.AssetName,
		AssetImage:     req.AssetImage,
		AssetType:      req.AssetType,
		EmployeeEmail:  strings.ToLower(req.EmployeeEmail),
		EmployeeName:   req.EmployeeName,
		HREmail:        hrEmail,
		CompanyName:    req.CompanyName,
		AssignmentDate: timeOrZero(req.AssignmentDate),
	}
	result, err := h.service.AssignAsset(r.Context(), assignment)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.service.ListAssignments(r.Context(), r.URL.Query().Get("searchAsset"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assignments)
}

type returnAssignmentRequest struct {
	ReturnDate *time.Time `json:"returnDate"`
}

func (h *Handler) handleReturnAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var req returnAssignmentRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			respondWithError(w, r, err)
			return
		}
	}

	result, err := h.service.ReturnAssignment(r.Context(), id, req.ReturnDate)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type createAffiliationRequest struct {
	EmployeeEmail   string     `json:"employeeEmail" validate:"required,email"`
	EmployeeName    string     `json:"employeeName"`
	HREmail         string     `json:"hrEmail" validate:"required,email"`
	CompanyName     string     `json:"companyName" validate:"required"`
	CompanyLogo     string     `json:"companyLogo"`
	AffiliationDate *time.Time `json:"affiliationDate"`
	Status          string     `json:"status" validate:"omitempty,oneof=pending active"`
}

func (h *Handler) handleCreateAffiliation(w http.ResponseWriter, r *http.Request) {
	var req createAffiliationRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	affiliation := &domain.Affiliation{
		EmployeeEmail:   strings.ToLower(req.EmployeeEmail),
		EmployeeName:    req.EmployeeName,
		HREmail:         strings.ToLower(req.HREmail),
		CompanyName:     req.CompanyName,
		CompanyLogo:     req.CompanyLogo,
		AffiliationDate: timeOrZero(req.AffiliationDate),
		Status:          req.Status,
	}
	result, err := h.service.CreateAffiliation(r.Context(), affiliation)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleListAffiliations applies the first present filter of hrEmail,
// companyName and employeeEmail.
func (h *Handler) handleListAffiliations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter domain.AffiliationFilter
	switch {
	case strings.TrimSpace(query.Get("hrEmail")) != "":
		filter.HREmail = strings.ToLower(strings.TrimSpace(query.Get("hrEmail")))
	case strings.TrimSpace(query.Get("companyName")) != "":
		filter.CompanyName = strings.TrimSpace(query.Get("companyName"))
	case strings.TrimSpace(query.Get("employeeEmail")) != "":
		filter.EmployeeEmail = strings.ToLower(strings.TrimSpace(query.Get("employeeEmail")))
	}

	affiliations, err := h.service.ListAffiliations(r.Context(), filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, affiliations)
}

func (h *Handler) handleAcceptAffiliation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	employeeEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("employeeEmail")))
	if employeeEmail == "" {
		employeeEmail = principal
	}
	if employeeEmail != principal {
		respondWithError(w, r, app.ErrForbidden)
		return
	}

	result, err := h.service.AcceptAffiliation(r.Context(), employeeEmail, r.URL.Query().Get("companyName"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteAffiliation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	employeeEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))

	result, err := h.service.RemoveAffiliation(r.Context(), principal, employeeEmail)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
