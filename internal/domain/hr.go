package domain

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullTime is a helper type for scanning nullable timestamp columns.
type NullTime sql.NullTime

func (nt *NullTime) Scan(value interface{}) error {
	var t sql.NullTime
	if err := t.Scan(value); err != nil {
		return err
	}
	*nt = NullTime(t)
	return nil
}

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(nt.Time)
}

type TimeEntrySource string

const (
	SourceKiosk TimeEntrySource = "kiosk"
	SourceWeb   TimeEntrySource = "web"
)

type TimeEntryStatus string

const (
	TimeEntryOpen     TimeEntryStatus = "open"
	TimeEntryClosed   TimeEntryStatus = "closed"
	TimeEntryEdited   TimeEntryStatus = "edited"
	TimeEntryApproved TimeEntryStatus = "approved"
)

// PunchMetadata captures the request context recorded on clock-in and
// clock-out; it composes into TimeEntry twice (in/out) rather than a
// lazily-loaded side table.
type PunchMetadata struct {
	IP        string   `json:"ip,omitempty"`
	UserAgent string   `json:"user_agent,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// TimeEntry is a single punch-in/punch-out shift record.
type TimeEntry struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	EmployeeID uuid.UUID `json:"employee_id"`

	ClockInAt  time.Time  `json:"clock_in_at"`
	ClockOutAt *time.Time `json:"clock_out_at,omitempty"`

	BreakMinutes int             `json:"break_minutes"`
	Source       TimeEntrySource `json:"source"`
	Status       TimeEntryStatus `json:"status"`
	Note         *string         `json:"note,omitempty"`

	EditedBy   *uuid.UUID `json:"edited_by,omitempty"`
	EditReason *string    `json:"edit_reason,omitempty"`

	ClockInMeta  PunchMetadata `json:"clock_in_meta"`
	ClockOutMeta PunchMetadata `json:"clock_out_meta"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether this entry has no recorded clock-out.
func (t *TimeEntry) IsOpen() bool {
	return t.ClockOutAt == nil
}

type LeaveType string

const (
	LeaveVacation LeaveType = "vacation"
	LeaveSick     LeaveType = "sick"
	LeavePersonal LeaveType = "personal"
	LeaveOther    LeaveType = "other"
)

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// LeaveRequest is an employee's request for time off.
type LeaveRequest struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	EmployeeID uuid.UUID `json:"employee_id"`

	Type            LeaveType   `json:"type"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	PartialDayHours *float64    `json:"partial_day_hours,omitempty"`
	Status          LeaveStatus `json:"status"`
	ReviewedBy      *uuid.UUID  `json:"reviewed_by,omitempty"`
	ReviewComment   *string     `json:"review_comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
