package domain

import (
	"time"

	"github.com/google/uuid"
)

type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "DRAFT"
	ShiftPublished ShiftStatus = "PUBLISHED"
	ShiftApproved  ShiftStatus = "APPROVED"
	ShiftCancelled ShiftStatus = "CANCELLED"
)

// Shift is a single scheduled shift. StartTime/EndTime are local
// time-of-day strings ("15:04"); EndTime <= StartTime denotes an
// overnight shift.
type Shift struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	EmployeeID uuid.UUID `json:"employee_id"`

	ShiftDate    time.Time   `json:"shift_date"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	BreakMinutes int         `json:"break_minutes"`
	Status       ShiftStatus `json:"status"`
	Notes        *string     `json:"notes,omitempty"`
	JobRole      *string     `json:"job_role,omitempty"`

	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	SeriesID   *uuid.UUID `json:"series_id,omitempty"`

	RequiresApproval bool       `json:"requires_approval"`
	ApprovedBy       *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateType string

const (
	TemplateNone     TemplateType = "NONE"
	TemplateWeekly   TemplateType = "WEEKLY"
	TemplateBiweekly TemplateType = "BIWEEKLY"
	TemplateMonthly  TemplateType = "MONTHLY"
)

// ShiftTemplate is a recurrence descriptor used for recurring-template
// expansion into concrete Shift rows.
type ShiftTemplate struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`

	TemplateType TemplateType `json:"template_type"`
	DayOfWeek    *int         `json:"day_of_week,omitempty"`
	DayOfMonth   *int         `json:"day_of_month,omitempty"`
	WeekOfMonth  *int         `json:"week_of_month,omitempty"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`

	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Department *string    `json:"department,omitempty"`
	JobRole    *string    `json:"job_role,omitempty"`

	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
