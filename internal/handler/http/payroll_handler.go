package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/usecase"
)

// PayrollHandler exposes §4.4's generation engine and the run lifecycle.
type PayrollHandler struct {
	payroll *usecase.PayrollUseCase
}

func NewPayrollHandler(payroll *usecase.PayrollUseCase) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

type payrollRunView struct {
	Run   *domain.PayrollRun        `json:"run"`
	Items []*domain.PayrollLineItem `json:"line_items,omitempty"`
}

type generatePayrollRequest struct {
	PayrollType     domain.PayrollType `json:"payroll_type"`
	StartDate       time.Time          `json:"start_date"`
	EmployeeIDs     []uuid.UUID        `json:"employee_ids,omitempty"`
	IncludeInactive bool               `json:"include_inactive"`
	AllowDuplicate  bool               `json:"allow_duplicate"`
}

func (h *PayrollHandler) Generate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	actorID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	var req generatePayrollRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	run, items, err := h.payroll.Generate(r.Context(), usecase.GenerateRequest{
		CompanyID:       companyID,
		PayrollType:     req.PayrollType,
		StartDate:       req.StartDate,
		EmployeeIDs:     req.EmployeeIDs,
		IncludeInactive: req.IncludeInactive,
		AllowDuplicate:  req.AllowDuplicate,
		ActorID:         actorID,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondCreated(w, payrollRunView{Run: run, Items: items})
}

// MyPayroll returns the authenticated employee's finalized payroll history.
func (h *PayrollHandler) MyPayroll(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	userID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	items, err := h.payroll.MyLineItems(r.Context(), companyID, userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *PayrollHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	runs, err := h.payroll.ListRuns(r.Context(), companyID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, runs)
}

func (h *PayrollHandler) GetRun(w http.ResponseWriter, r *http.Request) {
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
	run, items, err := h.payroll.GetRun(r.Context(), companyID, id)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, payrollRunView{Run: run, Items: items})
}

type finalizePayrollRequest struct {
	Note *string `json:"note,omitempty"`
}

func (h *PayrollHandler) Finalize(w http.ResponseWriter, r *http.Request) {
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
	var req finalizePayrollRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.payroll.Finalize(r.Context(), companyID, id, actorID, req.Note); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

type voidPayrollRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *PayrollHandler) Void(w http.ResponseWriter, r *http.Request) {
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
	var req voidPayrollRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.payroll.Void(r.Context(), companyID, id, actorID, req.Reason); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

func (h *PayrollHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.payroll.Delete(r.Context(), companyID, id); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}
