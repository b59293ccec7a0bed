package http

import (
	"net/http"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/repository"
)

// CompanyHandler exposes the per-tenant configuration surface (§6 "/admin/company").
type CompanyHandler struct {
	companies *repository.CompanyRepository
}

func NewCompanyHandler(companies *repository.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	company, err := h.companies.GetByID(r.Context(), companyID)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading company", err))
		return
	}
	respondOK(w, company)
}

type updateCompanyNameRequest struct {
	Name string `json:"name"`
}

func (h *CompanyHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req updateCompanyNameRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, apperr.Validation("name is required", map[string]string{"name": "required"}))
		return
	}
	if err := h.companies.UpdateName(r.Context(), companyID, req.Name); err != nil {
		middleware.WriteError(w, apperr.Internal("updating company name", err))
		return
	}
	respondNoContent(w)
}

func (h *CompanyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.companies.UpdateSettings(r.Context(), companyID, settings); err != nil {
		middleware.WriteError(w, apperr.Internal("updating company settings", err))
		return
	}
	respondNoContent(w)
}
