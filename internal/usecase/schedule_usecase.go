package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/repository"
)

// ScheduleUseCase implements §4.5: overlap detection, single-shift CRUD,
// bulk week generation, and recurring template expansion.
type ScheduleUseCase struct {
	db        *sql.DB
	shifts    *repository.ShiftRepository
	templates *repository.ShiftTemplateRepository
	users     *repository.UserRepository
}

func NewScheduleUseCase(db *sql.DB, shifts *repository.ShiftRepository, templates *repository.ShiftTemplateRepository, users *repository.UserRepository) *ScheduleUseCase {
	return &ScheduleUseCase{db: db, shifts: shifts, templates: templates, users: users}
}

// shiftInterval converts a (shift_date, start_time, end_time) triple to
// absolute instants, pushing end_dt a day forward when end_time <= start_time
// denotes an overnight shift (§4.5).
func shiftInterval(date time.Time, startTime, endTime string) (time.Time, time.Time, error) {
	start, err := parseTimeOfDay(date, startTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeOfDay(date, endTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endTime <= startTime {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func parseTimeOfDay(date time.Time, hhmm string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, apperr.Validation("invalid time of day", map[string]string{"time": "must be HH:MM"})
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// overlaps reports whether shift A and candidate (date, start, end, status)
// intersect, per §4.5's normalized-interval comparison.
func overlaps(a *domain.Shift, bDate time.Time, bStart, bEnd string, bStatus domain.ShiftStatus, excludeID *uuid.UUID) (bool, error) {
	if a.Status == domain.ShiftCancelled || bStatus == domain.ShiftCancelled {
		return false, nil
	}
	if excludeID != nil && a.ID == *excludeID {
		return false, nil
	}
	aStart, aEnd, err := shiftInterval(a.ShiftDate, a.StartTime, a.EndTime)
	if err != nil {
		return false, err
	}
	bStartDT, bEndDT, err := shiftInterval(bDate, bStart, bEnd)
	if err != nil {
		return false, err
	}
	return aStart.Before(bEndDT) && bStartDT.Before(aEnd), nil
}

// DetectConflicts fetches the employee's non-cancelled shifts on
// {date-1, date, date+1} and tests overlap against each (§4.5).
func (uc *ScheduleUseCase) DetectConflicts(ctx context.Context, companyID, employeeID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) ([]*domain.Shift, error) {
	candidates, err := uc.shifts.ListOverlapCandidates(ctx, companyID, employeeID, date)
	if err != nil {
		return nil, apperr.Internal("listing overlap candidates", err)
	}

	var conflicts []*domain.Shift
	for _, c := range candidates {
		conflict, err := overlaps(c, date, startTime, endTime, domain.ShiftPublished, excludeID)
		if err != nil {
			return nil, err
		}
		if conflict {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts, nil
}

// CreateResult bundles the persisted shift with any conflicts found so the
// caller can still surface them to the UI (§4.5: "the shift is still
// persisted... but the response carries the conflicts").
type CreateResult struct {
	Shift     *domain.Shift
	Conflicts []*domain.Shift
}

func (uc *ScheduleUseCase) validateEmployee(ctx context.Context, companyID, employeeID uuid.UUID) (*domain.User, error) {
	u, err := uc.users.GetByID(ctx, companyID, employeeID)
	if err != nil {
		return nil, apperr.NotFound("employee not found")
	}
	if domain.NormalizeRole(u.Role) == domain.RoleAdmin || u.Role == domain.RoleDeveloper {
		return nil, apperr.Validation("shifts cannot be scheduled for admin/developer users", map[string]string{"employee_id": "must be a schedulable role"})
	}
	return u, nil
}

func (uc *ScheduleUseCase) Create(ctx context.Context, s *domain.Shift) (*CreateResult, error) {
	if _, err := uc.validateEmployee(ctx, s.CompanyID, s.EmployeeID); err != nil {
		return nil, err
	}

	conflicts, err := uc.DetectConflicts(ctx, s.CompanyID, s.EmployeeID, s.ShiftDate, s.StartTime, s.EndTime, nil)
	if err != nil {
		return nil, err
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if err := uc.shifts.Create(ctx, uc.db, s); err != nil {
		return nil, apperr.Internal("creating shift", err)
	}
	return &CreateResult{Shift: s, Conflicts: conflicts}, nil
}

func (uc *ScheduleUseCase) Update(ctx context.Context, s *domain.Shift) (*CreateResult, error) {
	if _, err := uc.validateEmployee(ctx, s.CompanyID, s.EmployeeID); err != nil {
		return nil, err
	}

	conflicts, err := uc.DetectConflicts(ctx, s.CompanyID, s.EmployeeID, s.ShiftDate, s.StartTime, s.EndTime, &s.ID)
	if err != nil {
		return nil, err
	}

	if err := uc.shifts.Update(ctx, s); err != nil {
		return nil, apperr.Internal("updating shift", err)
	}
	return &CreateResult{Shift: s, Conflicts: conflicts}, nil
}

func (uc *ScheduleUseCase) Get(ctx context.Context, companyID, id uuid.UUID) (*domain.Shift, error) {
	s, err := uc.shifts.GetByID(ctx, companyID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("shift not found")
	}
	if err != nil {
		return nil, apperr.Internal("loading shift", err)
	}
	return s, nil
}

func (uc *ScheduleUseCase) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if err := uc.shifts.Delete(ctx, companyID, id); err != nil {
		return apperr.Internal("deleting shift", err)
	}
	return nil
}

// ListByDateRange returns every shift that overlaps [from, to], not merely
// those whose shift_date falls inside it: an overnight shift dated the day
// before from still crosses into the window and must be included (§4.5,
// §9). The repository already widens its fetch by a day on each side; this
// re-filters that candidate set against the exact requested interval using
// the same overlap math as DetectConflicts.
func (uc *ScheduleUseCase) ListByDateRange(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]*domain.Shift, error) {
	widened, err := uc.shifts.ListByDateRange(ctx, companyID, from, to)
	if err != nil {
		return nil, apperr.Internal("listing shifts", err)
	}

	rangeStart := from
	rangeEnd := to.AddDate(0, 0, 1) // [from, to] is date-inclusive; end is exclusive midnight of the day after `to`.

	var out []*domain.Shift
	for _, s := range widened {
		shiftStart, shiftEnd, err := shiftInterval(s.ShiftDate, s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		if shiftStart.Before(rangeEnd) && rangeStart.Before(shiftEnd) {
			out = append(out, s)
		}
	}
	return out, nil
}

// BulkMode selects how per-day times are sourced in a bulk week request.
type BulkMode string

const (
	BulkModeSameEachDay BulkMode = "same_each_day"
	BulkModePerDay       BulkMode = "per_day"
)

// ConflictPolicy selects how a bulk/template-expansion candidate reacts to
// an existing overlapping shift.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictDraft     ConflictPolicy = "draft"
	ConflictError     ConflictPolicy = "error"
)

// DayTemplate is the per-weekday shift shape used by bulk week generation.
type DayTemplate struct {
	Enabled      bool
	StartTime    string
	EndTime      string
	BreakMinutes int
}

// BulkWeekRequest mirrors §4.5's bulk week create inputs. Days is indexed
// Monday=0 .. Sunday=6.
type BulkWeekRequest struct {
	CompanyID      uuid.UUID
	EmployeeID     uuid.UUID
	WeekStartDate  time.Time
	Mode           BulkMode
	Default        DayTemplate
	Days           [7]DayTemplate
	Status         domain.ShiftStatus
	Notes          *string
	JobRole        *string
	ConflictPolicy ConflictPolicy
}

type candidateDay struct {
	date time.Time
	tmpl DayTemplate
}

func (req BulkWeekRequest) candidates() []candidateDay {
	monday := normalizeToMonday(req.WeekStartDate)
	var out []candidateDay
	for i := 0; i < 7; i++ {
		day := req.Days[i]
		if !day.Enabled {
			continue
		}
		tmpl := req.Default
		if req.Mode == BulkModePerDay {
			tmpl = day
		}
		out = append(out, candidateDay{date: monday.AddDate(0, 0, i), tmpl: tmpl})
	}
	return out
}

func normalizeToMonday(date time.Time) time.Time {
	weekday := int(date.Weekday())
	// time.Weekday: Sunday=0 .. Saturday=6; days back to Monday.
	daysSinceMonday := (weekday + 6) % 7
	return date.AddDate(0, 0, -daysSinceMonday)
}

// BulkWeekResult carries the would-be or persisted shifts plus any
// conflicts encountered, for both Preview and CreateBulkWeek.
type BulkWeekResult struct {
	Shifts    []*domain.Shift
	Conflicts []*domain.Shift
}

// PreviewBulkWeek runs the identical algorithm to CreateBulkWeek without
// persisting (§4.5's preview entry point).
func (uc *ScheduleUseCase) PreviewBulkWeek(ctx context.Context, req BulkWeekRequest) (*BulkWeekResult, error) {
	return uc.runBulkWeek(ctx, req, false)
}

func (uc *ScheduleUseCase) CreateBulkWeek(ctx context.Context, req BulkWeekRequest) (*BulkWeekResult, error) {
	return uc.runBulkWeek(ctx, req, true)
}

func (uc *ScheduleUseCase) runBulkWeek(ctx context.Context, req BulkWeekRequest, persist bool) (*BulkWeekResult, error) {
	if _, err := uc.validateEmployee(ctx, req.CompanyID, req.EmployeeID); err != nil {
		return nil, err
	}

	candidates := req.candidates()
	type resolved struct {
		day       candidateDay
		conflicts []*domain.Shift
	}
	var resolvedDays []resolved
	var allConflicts []*domain.Shift

	for _, c := range candidates {
		conflicts, err := uc.DetectConflicts(ctx, req.CompanyID, req.EmployeeID, c.date, c.tmpl.StartTime, c.tmpl.EndTime, nil)
		if err != nil {
			return nil, err
		}
		resolvedDays = append(resolvedDays, resolved{day: c, conflicts: conflicts})
		allConflicts = append(allConflicts, conflicts...)
	}

	if req.ConflictPolicy == ConflictError && len(allConflicts) > 0 {
		ids := make([]string, len(allConflicts))
		for i, c := range allConflicts {
			ids[i] = c.ID.String()
		}
		return nil, apperr.Conflict("conflicting shifts: " + strings.Join(ids, ", "))
	}

	seriesID := uuid.New()
	var result []*domain.Shift

	var tx *sql.Tx
	var err error
	if persist {
		tx, err = uc.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperr.Internal("beginning transaction", err)
		}
		defer tx.Rollback()
	}

	for _, r := range resolvedDays {
		if len(r.conflicts) > 0 {
			switch req.ConflictPolicy {
			case ConflictSkip:
				continue
			case ConflictOverwrite:
				if persist {
					for _, conflicting := range r.conflicts {
						if err := uc.shifts.Delete(ctx, req.CompanyID, conflicting.ID); err != nil {
							return nil, apperr.Internal("overwriting conflicting shift", err)
						}
					}
				}
			case ConflictDraft:
				// falls through to creation below with DRAFT status and a marker note
			}
		}

		status := req.Status
		notes := req.Notes
		if len(r.conflicts) > 0 && req.ConflictPolicy == ConflictDraft {
			status = domain.ShiftDraft
			marker := "[Conflict detected on creation]"
			if notes != nil && *notes != "" {
				combined := *notes + " " + marker
				notes = &combined
			} else {
				notes = &marker
			}
		}

		shift := &domain.Shift{
			ID:           uuid.New(),
			CompanyID:    req.CompanyID,
			EmployeeID:   req.EmployeeID,
			ShiftDate:    r.day.date,
			StartTime:    r.day.tmpl.StartTime,
			EndTime:      r.day.tmpl.EndTime,
			BreakMinutes: r.day.tmpl.BreakMinutes,
			Status:       status,
			Notes:        notes,
			JobRole:      req.JobRole,
			SeriesID:     &seriesID,
		}
		if persist {
			if err := uc.shifts.Create(ctx, tx, shift); err != nil {
				return nil, apperr.Internal("creating shift", err)
			}
		}
		result = append(result, shift)
	}

	if persist {
		if err := tx.Commit(); err != nil {
			return nil, apperr.Internal("committing bulk week", err)
		}
	}

	return &BulkWeekResult{Shifts: result, Conflicts: allConflicts}, nil
}

// ExpandTemplate materializes a ShiftTemplate over [start, end], clamped to
// the template's own range, per §4.5's "Template expansion".
func (uc *ScheduleUseCase) ExpandTemplate(ctx context.Context, companyID, templateID uuid.UUID, start, end time.Time) (*BulkWeekResult, error) {
	tmpl, err := uc.templates.GetByID(ctx, companyID, templateID)
	if err != nil {
		return nil, apperr.NotFound("template not found")
	}
	if tmpl.EmployeeID == nil {
		return nil, apperr.Validation("template has no target employee", nil)
	}

	rangeStart := start
	if tmpl.StartDate.After(rangeStart) {
		rangeStart = tmpl.StartDate
	}
	rangeEnd := end
	if tmpl.EndDate != nil && tmpl.EndDate.Before(rangeEnd) {
		rangeEnd = *tmpl.EndDate
	}

	var dates []time.Time
	for d := rangeStart; !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
		if templateMatchesDate(tmpl, d) {
			dates = append(dates, d)
		}
	}

	var allConflicts []*domain.Shift
	var created []*domain.Shift

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	for _, d := range dates {
		conflicts, err := uc.DetectConflicts(ctx, companyID, *tmpl.EmployeeID, d, tmpl.StartTime, tmpl.EndTime, nil)
		if err != nil {
			return nil, err
		}
		allConflicts = append(allConflicts, conflicts...)

		shift := &domain.Shift{
			ID:           uuid.New(),
			CompanyID:    companyID,
			EmployeeID:   *tmpl.EmployeeID,
			ShiftDate:    d,
			StartTime:    tmpl.StartTime,
			EndTime:      tmpl.EndTime,
			BreakMinutes: tmpl.BreakMinutes,
			Status:       domain.ShiftPublished,
			JobRole:      tmpl.JobRole,
			TemplateID:   &tmpl.ID,
		}
		if err := uc.shifts.Create(ctx, tx, shift); err != nil {
			return nil, apperr.Internal("creating shift from template", err)
		}
		created = append(created, shift)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing template expansion", err)
	}

	return &BulkWeekResult{Shifts: created, Conflicts: allConflicts}, nil
}

func templateMatchesDate(tmpl *domain.ShiftTemplate, date time.Time) bool {
	switch tmpl.TemplateType {
	case domain.TemplateNone:
		return sameDate(date, tmpl.StartDate)
	case domain.TemplateWeekly:
		return tmpl.DayOfWeek != nil && int(date.Weekday()) == *tmpl.DayOfWeek
	case domain.TemplateBiweekly:
		if tmpl.DayOfWeek == nil || int(date.Weekday()) != *tmpl.DayOfWeek {
			return false
		}
		days := int(date.Sub(tmpl.StartDate).Hours() / 24)
		return ((days % 14) + 14) % 14 < 7
	case domain.TemplateMonthly:
		return tmpl.DayOfMonth != nil && date.Day() == *tmpl.DayOfMonth
	default:
		return false
	}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
