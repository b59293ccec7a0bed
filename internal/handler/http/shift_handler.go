package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/repository"
	"shiftledger/internal/usecase"
)

// ShiftHandler exposes §4.5's scheduling surface: single-shift CRUD,
// overlap-aware bulk week generation, and recurring template expansion.
type ShiftHandler struct {
	schedule  *usecase.ScheduleUseCase
	templates *repository.ShiftTemplateRepository
}

func NewShiftHandler(schedule *usecase.ScheduleUseCase, templates *repository.ShiftTemplateRepository) *ShiftHandler {
	return &ShiftHandler{schedule: schedule, templates: templates}
}

type shiftView struct {
	ID               uuid.UUID  `json:"id"`
	EmployeeID       uuid.UUID  `json:"employee_id"`
	ShiftDate        time.Time  `json:"shift_date"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	BreakMinutes     int        `json:"break_minutes"`
	Status           string     `json:"status"`
	Notes            *string    `json:"notes,omitempty"`
	JobRole          *string    `json:"job_role,omitempty"`
	TemplateID       *uuid.UUID `json:"template_id,omitempty"`
	SeriesID         *uuid.UUID `json:"series_id,omitempty"`
	RequiresApproval bool       `json:"requires_approval"`
}

func toShiftView(s *domain.Shift) shiftView {
	return shiftView{
		ID:               s.ID,
		EmployeeID:       s.EmployeeID,
		ShiftDate:        s.ShiftDate,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		BreakMinutes:     s.BreakMinutes,
		Status:           string(s.Status),
		Notes:            s.Notes,
		JobRole:          s.JobRole,
		TemplateID:       s.TemplateID,
		SeriesID:         s.SeriesID,
		RequiresApproval: s.RequiresApproval,
	}
}

func toShiftViews(shifts []*domain.Shift) []shiftView {
	out := make([]shiftView, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, toShiftView(s))
	}
	return out
}

type createResultView struct {
	Shift     shiftView   `json:"shift"`
	Conflicts []shiftView `json:"conflicts,omitempty"`
}

func toCreateResultView(r *usecase.CreateResult) createResultView {
	return createResultView{Shift: toShiftView(r.Shift), Conflicts: toShiftViews(r.Conflicts)}
}

type bulkWeekResultView struct {
	Shifts    []shiftView `json:"shifts"`
	Conflicts []shiftView `json:"conflicts,omitempty"`
}

func toBulkWeekResultView(r *usecase.BulkWeekResult) bulkWeekResultView {
	return bulkWeekResultView{Shifts: toShiftViews(r.Shifts), Conflicts: toShiftViews(r.Conflicts)}
}

type createShiftRequest struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	ShiftDate    time.Time `json:"shift_date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	BreakMinutes int       `json:"break_minutes"`
	Notes        *string   `json:"notes,omitempty"`
	JobRole      *string   `json:"job_role,omitempty"`
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req createShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	shift := &domain.Shift{
		CompanyID:    companyID,
		EmployeeID:   req.EmployeeID,
		ShiftDate:    req.ShiftDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BreakMinutes: req.BreakMinutes,
		Status:       domain.ShiftPublished,
		Notes:        req.Notes,
		JobRole:      req.JobRole,
	}
	result, err := h.schedule.Create(r.Context(), shift)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondCreated(w, toCreateResultView(result))
}

type updateShiftRequest struct {
	ShiftDate    time.Time `json:"shift_date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	BreakMinutes int       `json:"break_minutes"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes,omitempty"`
	JobRole      *string   `json:"job_role,omitempty"`
}

func (h *ShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	existing, err := h.schedule.Get(r.Context(), companyID, id)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req updateShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	existing.ShiftDate = req.ShiftDate
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.BreakMinutes = req.BreakMinutes
	if req.Status != "" {
		existing.Status = domain.ShiftStatus(req.Status)
	}
	existing.Notes = req.Notes
	existing.JobRole = req.JobRole

	result, err := h.schedule.Update(r.Context(), existing)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toCreateResultView(result))
}

func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.schedule.Delete(r.Context(), companyID, id); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	from, to, err := parseSimpleDateRange(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	shifts, err := h.schedule.ListByDateRange(r.Context(), companyID, from, to)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toShiftViews(shifts))
}

type dayTemplateRequest struct {
	Enabled      bool   `json:"enabled"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

func toDayTemplate(d dayTemplateRequest) usecase.DayTemplate {
	return usecase.DayTemplate{Enabled: d.Enabled, StartTime: d.StartTime, EndTime: d.EndTime, BreakMinutes: d.BreakMinutes}
}

type bulkWeekRequest struct {
	EmployeeID     uuid.UUID            `json:"employee_id"`
	WeekStartDate  time.Time            `json:"week_start_date"`
	Mode           string               `json:"mode"`
	Default        dayTemplateRequest   `json:"default"`
	Days           [7]dayTemplateRequest `json:"days"`
	Status         string               `json:"status"`
	Notes          *string              `json:"notes,omitempty"`
	JobRole        *string              `json:"job_role,omitempty"`
	ConflictPolicy string               `json:"conflict_policy"`
}

func (req bulkWeekRequest) toUseCaseRequest(companyID uuid.UUID) usecase.BulkWeekRequest {
	var days [7]usecase.DayTemplate
	for i, d := range req.Days {
		days[i] = toDayTemplate(d)
	}
	status := domain.ShiftStatus(req.Status)
	if status == "" {
		status = domain.ShiftPublished
	}
	return usecase.BulkWeekRequest{
		CompanyID:      companyID,
		EmployeeID:     req.EmployeeID,
		WeekStartDate:  req.WeekStartDate,
		Mode:           usecase.BulkMode(req.Mode),
		Default:        toDayTemplate(req.Default),
		Days:           days,
		Status:         status,
		Notes:          req.Notes,
		JobRole:        req.JobRole,
		ConflictPolicy: usecase.ConflictPolicy(req.ConflictPolicy),
	}
}

func (h *ShiftHandler) PreviewBulkWeek(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req bulkWeekRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	result, err := h.schedule.PreviewBulkWeek(r.Context(), req.toUseCaseRequest(companyID))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toBulkWeekResultView(result))
}

func (h *ShiftHandler) CreateBulkWeek(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req bulkWeekRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	result, err := h.schedule.CreateBulkWeek(r.Context(), req.toUseCaseRequest(companyID))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondCreated(w, toBulkWeekResultView(result))
}

type templateView struct {
	ID           uuid.UUID  `json:"id"`
	TemplateType string     `json:"template_type"`
	DayOfWeek    *int       `json:"day_of_week,omitempty"`
	DayOfMonth   *int       `json:"day_of_month,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	BreakMinutes int        `json:"break_minutes"`
	EmployeeID   *uuid.UUID `json:"employee_id,omitempty"`
	JobRole      *string    `json:"job_role,omitempty"`
	IsActive     bool       `json:"is_active"`
}

func toTemplateView(t *domain.ShiftTemplate) templateView {
	return templateView{
		ID:           t.ID,
		TemplateType: string(t.TemplateType),
		DayOfWeek:    t.DayOfWeek,
		DayOfMonth:   t.DayOfMonth,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		BreakMinutes: t.BreakMinutes,
		EmployeeID:   t.EmployeeID,
		JobRole:      t.JobRole,
		IsActive:     t.IsActive,
	}
}

type createTemplateRequest struct {
	TemplateType domain.TemplateType `json:"template_type"`
	DayOfWeek    *int                `json:"day_of_week,omitempty"`
	DayOfMonth   *int                `json:"day_of_month,omitempty"`
	WeekOfMonth  *int                `json:"week_of_month,omitempty"`
	StartDate    time.Time           `json:"start_date"`
	EndDate      *time.Time          `json:"end_date,omitempty"`
	StartTime    string              `json:"start_time"`
	EndTime      string              `json:"end_time"`
	BreakMinutes int                 `json:"break_minutes"`
	EmployeeID   *uuid.UUID          `json:"employee_id,omitempty"`
	Department   *string             `json:"department,omitempty"`
	JobRole      *string             `json:"job_role,omitempty"`
}

func (h *ShiftHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	tmpl := &domain.ShiftTemplate{
		ID:           uuid.New(),
		CompanyID:    companyID,
		TemplateType: req.TemplateType,
		DayOfWeek:    req.DayOfWeek,
		DayOfMonth:   req.DayOfMonth,
		WeekOfMonth:  req.WeekOfMonth,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BreakMinutes: req.BreakMinutes,
		EmployeeID:   req.EmployeeID,
		Department:   req.Department,
		JobRole:      req.JobRole,
		IsActive:     true,
	}
	if err := h.templates.Create(r.Context(), tmpl); err != nil {
		middleware.WriteError(w, apperr.Internal("creating shift template", err))
		return
	}
	respondCreated(w, toTemplateView(tmpl))
}

func (h *ShiftHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	templates, err := h.templates.ListActive(r.Context(), companyID)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("listing shift templates", err))
		return
	}
	out := make([]templateView, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateView(t))
	}
	respondOK(w, out)
}

func (h *ShiftHandler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
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
	if err := h.templates.Deactivate(r.Context(), companyID, id); err != nil {
		middleware.WriteError(w, apperr.Internal("deactivating shift template", err))
		return
	}
	respondNoContent(w)
}

type expandTemplateRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h *ShiftHandler) ExpandTemplate(w http.ResponseWriter, r *http.Request) {
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
	var req expandTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	result, err := h.schedule.ExpandTemplate(r.Context(), companyID, id, req.Start, req.End)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("template not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondCreated(w, toBulkWeekResultView(result))
}

func parseSimpleDateRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := queryParam(r, "start", "")
	endStr := queryParam(r, "end", "")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, apperr.Validation("start and end query params are required", map[string]string{"start": "required", "end": "required"})
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid start date", map[string]string{"start": "must be YYYY-MM-DD"})
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid end date", map[string]string{"end": "must be YYYY-MM-DD"})
	}
	return start, end, nil
}
