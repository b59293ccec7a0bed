package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/pkg/tz"
	"shiftledger/internal/repository"
	"shiftledger/internal/usecase"
)

// TimeHandler exposes §4.1-4.4's authenticated punch and time-entry review
// surface: self-service punch/punch-me, and the admin timesheet CRUD.
type TimeHandler struct {
	punch       *usecase.PunchUseCase
	timeEntries *repository.TimeEntryRepository
	companies   *repository.CompanyRepository
}

func NewTimeHandler(punch *usecase.PunchUseCase, timeEntries *repository.TimeEntryRepository, companies *repository.CompanyRepository) *TimeHandler {
	return &TimeHandler{punch: punch, timeEntries: timeEntries, companies: companies}
}

type punchRequest struct {
	EmployeeEmail      string   `json:"employee_email"`
	PIN                string   `json:"pin"`
	CashStartCents     *int     `json:"cash_start_cents,omitempty"`
	CashEndCents       *int     `json:"cash_end_cents,omitempty"`
	CollectedCashCents *int     `json:"collected_cash_cents,omitempty"`
	DropAmountCents    *int     `json:"drop_amount_cents,omitempty"`
	BeveragesCashCents *int     `json:"beverages_cash_cents,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
}

// Punch is the public, unauthenticated kiosk/web adapter that resolves the
// employee by email instead of a company slug (§6 "POST /time/punch"); the
// company is discovered from the email match itself.
func (h *TimeHandler) Punch(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.EmployeeEmail == "" {
		middleware.WriteError(w, apperr.Validation("employee_email is required", map[string]string{"employee_email": "required"}))
		return
	}
	user, err := h.punch.ResolveByEmail(r.Context(), req.EmployeeEmail, req.PIN)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.doPunch(w, r, user.CompanyID, user.ID, domain.SourceKiosk, req.CashStartCents, req.CashEndCents, req.CollectedCashCents, req.DropAmountCents, req.BeveragesCashCents, req.Latitude, req.Longitude)
}

type punchByPinRequest struct {
	PIN                string   `json:"pin"`
	CashStartCents     *int     `json:"cash_start_cents,omitempty"`
	CashEndCents       *int     `json:"cash_end_cents,omitempty"`
	CollectedCashCents *int     `json:"collected_cash_cents,omitempty"`
	DropAmountCents    *int     `json:"drop_amount_cents,omitempty"`
	BeveragesCashCents *int     `json:"beverages_cash_cents,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
}

// PunchByPIN lets an authenticated front-of-house device punch any employee
// of its own company by PIN, without re-authenticating as that employee.
func (h *TimeHandler) PunchByPIN(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req punchByPinRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	user, err := h.punch.ResolveByPIN(r.Context(), companyID, req.PIN)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.doPunch(w, r, companyID, user.ID, domain.SourceWeb, req.CashStartCents, req.CashEndCents, req.CollectedCashCents, req.DropAmountCents, req.BeveragesCashCents, req.Latitude, req.Longitude)
}

type punchMeRequest struct {
	CashStartCents     *int     `json:"cash_start_cents,omitempty"`
	CashEndCents       *int     `json:"cash_end_cents,omitempty"`
	CollectedCashCents *int     `json:"collected_cash_cents,omitempty"`
	DropAmountCents    *int     `json:"drop_amount_cents,omitempty"`
	BeveragesCashCents *int     `json:"beverages_cash_cents,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
}

// PunchMe lets the authenticated employee clock themselves in or out.
func (h *TimeHandler) PunchMe(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	userID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	var req punchMeRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.doPunch(w, r, companyID, userID, domain.SourceWeb, req.CashStartCents, req.CashEndCents, req.CollectedCashCents, req.DropAmountCents, req.BeveragesCashCents, req.Latitude, req.Longitude)
}

func (h *TimeHandler) doPunch(w http.ResponseWriter, r *http.Request, companyID, employeeID uuid.UUID, source domain.TimeEntrySource, cashStart, cashEnd, collected, drop, beverages *int, lat, lng *float64) {
	result, err := h.punch.Punch(r.Context(), usecase.PunchRequest{
		CompanyID:          companyID,
		EmployeeID:         employeeID,
		Source:             source,
		CashStartCents:     cashStart,
		CashEndCents:       cashEnd,
		CollectedCashCents: collected,
		DropAmountCents:    drop,
		BeveragesCashCents: beverages,
		Meta: domain.PunchMetadata{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Latitude:  lat,
			Longitude: lng,
		},
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toPunchResultView(result))
}

// MyEntries lists the authenticated employee's time entries over a local
// calendar-day window (?start=YYYY-MM-DD&end=YYYY-MM-DD, company timezone).
func (h *TimeHandler) MyEntries(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	userID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	company, err := h.companies.GetByID(r.Context(), companyID)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading company", err))
		return
	}
	startUTC, endUTC, err := h.parseDateRange(r, company.Settings.Timezone)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	entries, err := h.timeEntries.ListForPayPeriod(r.Context(), companyID, userID, startUTC, endUTC)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("listing time entries", err))
		return
	}
	respondOK(w, toTimeEntryViews(entries))
}

// AdminList lists every employee's time entries across a local calendar-day
// window — the timesheet review screen (§6 "GET /time/admin/time").
func (h *TimeHandler) AdminList(w http.ResponseWriter, r *http.Request) {
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
	startUTC, endUTC, err := h.parseDateRange(r, company.Settings.Timezone)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	entries, err := h.timeEntries.ListByDateRange(r.Context(), companyID, startUTC, endUTC)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("listing time entries", err))
		return
	}
	respondOK(w, toTimeEntryViews(entries))
}

type updateTimeEntryRequest struct {
	ClockInAt    time.Time  `json:"clock_in_at"`
	ClockOutAt   *time.Time `json:"clock_out_at,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	Note         *string    `json:"note,omitempty"`
	EditReason   string     `json:"edit_reason"`
}

// UpdateEntry applies a manager correction to an existing entry (§4.4
// "manual edit"); edit_reason is mandatory so the audit trail always
// explains why a punch was altered after the fact.
func (h *TimeHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
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
	var req updateTimeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.EditReason == "" {
		middleware.WriteError(w, apperr.Validation("edit_reason is required", map[string]string{"edit_reason": "required"}))
		return
	}
	entry, err := h.timeEntries.GetByID(r.Context(), companyID, id)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("time entry not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading time entry", err))
		return
	}

	entry.ClockInAt = req.ClockInAt
	entry.ClockOutAt = req.ClockOutAt
	entry.BreakMinutes = req.BreakMinutes
	entry.Note = req.Note
	entry.EditedBy = &actorID
	entry.EditReason = &req.EditReason
	if entry.ClockOutAt != nil {
		entry.Status = domain.TimeEntryEdited
	}

	if err := h.timeEntries.Update(r.Context(), entry); err != nil {
		middleware.WriteError(w, apperr.Internal("updating time entry", err))
		return
	}
	respondOK(w, toTimeEntryView(entry))
}

type manualTimeEntryRequest struct {
	EmployeeID   uuid.UUID  `json:"employee_id"`
	ClockInAt    time.Time  `json:"clock_in_at"`
	ClockOutAt   *time.Time `json:"clock_out_at,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	Note         *string    `json:"note,omitempty"`
	EditReason   string     `json:"edit_reason"`
}

// CreateManual backs out-of-band entry creation for forgotten punches
// (§4.4); it bypasses the open-shift coordinator and writes the row
// directly. With clock_out_at the entry is stored EDITED (closed); without
// it the entry is stored open.
func (h *TimeHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	actorID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	var req manualTimeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.EditReason == "" {
		middleware.WriteError(w, apperr.Validation("edit_reason is required", map[string]string{"edit_reason": "required"}))
		return
	}
	status := domain.TimeEntryOpen
	if req.ClockOutAt != nil {
		status = domain.TimeEntryEdited
	}
	entry := &domain.TimeEntry{
		ID:           uuid.New(),
		CompanyID:    companyID,
		EmployeeID:   req.EmployeeID,
		ClockInAt:    req.ClockInAt,
		ClockOutAt:   req.ClockOutAt,
		BreakMinutes: req.BreakMinutes,
		Source:       domain.SourceWeb,
		Status:       status,
		Note:         req.Note,
		EditedBy:     &actorID,
		EditReason:   &req.EditReason,
	}
	if err := h.timeEntries.InsertManual(r.Context(), entry); err != nil {
		middleware.WriteError(w, apperr.Internal("creating time entry", err))
		return
	}
	respondCreated(w, toTimeEntryView(entry))
}

// DeleteEntry removes a time entry, used sparingly for clearly erroneous
// manual/kiosk punches caught during review.
func (h *TimeHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
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
	if _, err := h.timeEntries.GetByID(r.Context(), companyID, id); errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("time entry not found"))
		return
	}
	if err := h.timeEntries.Delete(r.Context(), companyID, id); err != nil {
		middleware.WriteError(w, apperr.Internal("deleting time entry", err))
		return
	}
	respondNoContent(w)
}

func (h *TimeHandler) parseDateRange(r *http.Request, timezone string) (time.Time, time.Time, error) {
	loc, err := tz.Load(timezone)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Internal("loading timezone", err)
	}
	startStr := queryParam(r, "start", "")
	endStr := queryParam(r, "end", "")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, apperr.Validation("start and end query params are required", map[string]string{"start": "required", "end": "required"})
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid start date", map[string]string{"start": "must be YYYY-MM-DD"})
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid end date", map[string]string{"end": "must be YYYY-MM-DD"})
	}
	return tz.StartOfDayUTC(start, loc), tz.EndOfDayUTC(end, loc), nil
}
