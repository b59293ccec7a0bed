package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PayrollType string

const (
	PayrollWeekly   PayrollType = "WEEKLY"
	PayrollBiweekly PayrollType = "BIWEEKLY"
)

type PayrollRunStatus string

const (
	PayrollDraft     PayrollRunStatus = "DRAFT"
	PayrollFinalized PayrollRunStatus = "FINALIZED"
	PayrollVoid      PayrollRunStatus = "VOID"
)

// PayrollRun is an immutable-once-finalized pay period snapshot.
type PayrollRun struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`

	PayrollType     PayrollType      `json:"payroll_type"`
	PeriodStartDate time.Time        `json:"period_start_date"`
	PeriodEndDate   time.Time        `json:"period_end_date"`
	Timezone        string           `json:"timezone"`
	Status          PayrollRunStatus `json:"status"`

	GeneratedBy uuid.UUID `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalRegularHours  string `json:"total_regular_hours"`
	TotalOvertimeHours string `json:"total_overtime_hours"`
	TotalGrossPayCents int    `json:"total_gross_pay_cents"`

	FinalizedBy   *uuid.UUID `json:"finalized_by,omitempty"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
	FinalizeNote  *string    `json:"finalize_note,omitempty"`
	VoidedBy      *uuid.UUID `json:"voided_by,omitempty"`
	VoidedAt      *time.Time `json:"voided_at,omitempty"`
	VoidReason    *string    `json:"void_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanDelete reports whether the run may still be deleted (only DRAFT).
func (r *PayrollRun) CanDelete() bool { return r.Status == PayrollDraft }

// CanFinalize reports whether finalize() may run (only DRAFT).
func (r *PayrollRun) CanFinalize() bool { return r.Status == PayrollDraft }

// CanVoid reports whether void() may run (DRAFT or FINALIZED, never VOID).
func (r *PayrollRun) CanVoid() bool {
	return r.Status == PayrollDraft || r.Status == PayrollFinalized
}

// DailyBreakdown maps an ISO date string to paid minutes worked that day.
type DailyBreakdown map[string]int

// WeekBlock is one week's contribution to a PayrollLineItem.
type WeekBlock struct {
	WeekStart       string      `json:"week_start"`
	WeekEnd         string      `json:"week_end"`
	RegularMinutes  int         `json:"regular_minutes"`
	OvertimeMinutes int         `json:"overtime_minutes"`
	TotalMinutes    int         `json:"total_minutes"`
	EntryIDs        []uuid.UUID `json:"entry_ids"`
}

// LeaveDay is one approved leave request's contribution to a line item's
// period, kept informational (§4.4 supplement) rather than folded into
// paid minutes, since no company setting currently says which leave types
// are paid.
type LeaveDay struct {
	LeaveRequestID  uuid.UUID `json:"leave_request_id"`
	Type            string    `json:"type"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	PartialDayHours *float64  `json:"partial_day_hours,omitempty"`
}

// PayrollLineItemDetails is the structured breakdown serialized into
// PayrollLineItem.DetailsJSON.
type PayrollLineItemDetails struct {
	Days      DailyBreakdown `json:"days"`
	Weeks     []WeekBlock    `json:"weeks"`
	EntryIDs  []uuid.UUID    `json:"entry_ids"`
	LeaveDays []LeaveDay     `json:"leave_days,omitempty"`
}

// PayrollLineItem is one employee's computed pay within a PayrollRun.
type PayrollLineItem struct {
	ID           uuid.UUID `json:"id"`
	PayrollRunID uuid.UUID `json:"payroll_run_id"`
	EmployeeID   uuid.UUID `json:"employee_id"`

	RegularMinutes  int `json:"regular_minutes"`
	OvertimeMinutes int `json:"overtime_minutes"`
	TotalMinutes    int `json:"total_minutes"`

	PayRateCentsSnapshot       int    `json:"pay_rate_cents"`
	OvertimeMultiplierSnapshot string `json:"overtime_multiplier"`

	RegularPayCents  int `json:"regular_pay_cents"`
	OvertimePayCents int `json:"overtime_pay_cents"`
	TotalPayCents    int `json:"total_pay_cents"`

	ExceptionsCount int             `json:"exceptions_count"`
	DetailsJSON     json.RawMessage `json:"details_json"`

	CreatedAt time.Time `json:"created_at"`
}
