package http

import (
	"errors"
	"net/http"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/repository"
	"shiftledger/internal/usecase"
)

// KioskHandler backs the unauthenticated kiosk surface: slug resolution,
// PIN check, and the PIN-driven punch (§4.1, §4.2 "Resolution rules").
type KioskHandler struct {
	companies *repository.CompanyRepository
	punch     *usecase.PunchUseCase
}

func NewKioskHandler(companies *repository.CompanyRepository, punch *usecase.PunchUseCase) *KioskHandler {
	return &KioskHandler{companies: companies, punch: punch}
}

type kioskInfoResponse struct {
	CompanyID    string `json:"company_id"`
	CompanyName  string `json:"company_name"`
	KioskEnabled bool   `json:"kiosk_enabled"`
}

func (h *KioskHandler) Info(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	company, err := h.companies.GetBySlug(r.Context(), slug)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("kiosk not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading company", err))
		return
	}
	if !company.KioskEnabled {
		middleware.WriteError(w, apperr.Authorization("kiosk is disabled for this company"))
		return
	}
	respondOK(w, kioskInfoResponse{CompanyID: company.ID.String(), CompanyName: company.Name, KioskEnabled: company.KioskEnabled})
}

type checkPINRequest struct {
	Slug string `json:"slug"`
	PIN  string `json:"pin"`
}

func (h *KioskHandler) CheckPIN(w http.ResponseWriter, r *http.Request) {
	var req checkPINRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	company, err := h.companies.GetBySlug(r.Context(), req.Slug)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("kiosk not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading company", err))
		return
	}

	user, err := h.punch.ResolveByPIN(r.Context(), company.ID, req.PIN)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toUserView(user))
}

type kioskClockRequest struct {
	Slug               string `json:"slug"`
	PIN                string `json:"pin"`
	CashStartCents     *int   `json:"cash_start_cents,omitempty"`
	CashEndCents       *int   `json:"cash_end_cents,omitempty"`
	CollectedCashCents *int   `json:"collected_cash_cents,omitempty"`
	DropAmountCents    *int   `json:"drop_amount_cents,omitempty"`
	BeveragesCashCents *int   `json:"beverages_cash_cents,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
}

func (h *KioskHandler) Clock(w http.ResponseWriter, r *http.Request) {
	var req kioskClockRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	company, err := h.companies.GetBySlug(r.Context(), req.Slug)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("kiosk not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading company", err))
		return
	}

	user, err := h.punch.ResolveByPIN(r.Context(), company.ID, req.PIN)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	result, err := h.punch.Punch(r.Context(), usecase.PunchRequest{
		CompanyID:          company.ID,
		EmployeeID:         user.ID,
		Source:             domain.SourceKiosk,
		CashStartCents:     req.CashStartCents,
		CashEndCents:       req.CashEndCents,
		CollectedCashCents: req.CollectedCashCents,
		DropAmountCents:    req.DropAmountCents,
		BeveragesCashCents: req.BeveragesCashCents,
		Meta: domain.PunchMetadata{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toPunchResultView(result))
}
