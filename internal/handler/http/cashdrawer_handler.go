package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/middleware"
	"shiftledger/internal/repository"
	"shiftledger/internal/usecase"
)

// CashDrawerHandler exposes §4.3's manager-facing cash drawer review
// surface: list what needs review, inspect one, correct counts, sign off.
type CashDrawerHandler struct {
	cashDrawers *usecase.CashDrawerUseCase
}

func NewCashDrawerHandler(cashDrawers *usecase.CashDrawerUseCase) *CashDrawerHandler {
	return &CashDrawerHandler{cashDrawers: cashDrawers}
}

func (h *CashDrawerHandler) ListNeedingReview(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	sessions, err := h.cashDrawers.ListNeedingReview(r.Context(), companyID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toCashDrawerViews(sessions))
}

func (h *CashDrawerHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	id, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, apperr.Validation("invalid id", map[string]string{"id": "must be a uuid"}))
		return
	}
	session, err := h.cashDrawers.Get(r.Context(), companyID, id)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("cash drawer session not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toCashDrawerView(session))
}

type editCashDrawerCountsRequest struct {
	StartCashCents int     `json:"start_cash_cents"`
	EndCashCents   *int    `json:"end_cash_cents,omitempty"`
	Reason         *string `json:"reason,omitempty"`
}

func (h *CashDrawerHandler) EditCounts(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	actorID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	id, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, apperr.Validation("invalid id", map[string]string{"id": "must be a uuid"}))
		return
	}
	var req editCashDrawerCountsRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	session, err := h.cashDrawers.EditCounts(r.Context(), companyID, id, actorID, req.StartCashCents, req.EndCashCents, req.Reason)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toCashDrawerView(session))
}

type reviewCashDrawerRequest struct {
	Note *string `json:"note,omitempty"`
}

func (h *CashDrawerHandler) Review(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	reviewerID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	id, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, apperr.Validation("invalid id", map[string]string{"id": "must be a uuid"}))
		return
	}
	var req reviewCashDrawerRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.cashDrawers.Review(r.Context(), companyID, id, reviewerID, req.Note); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}
