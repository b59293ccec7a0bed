package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CashDrawerStatus string

const (
	CashDrawerOpen         CashDrawerStatus = "OPEN"
	CashDrawerClosed       CashDrawerStatus = "CLOSED"
	CashDrawerReviewNeeded CashDrawerStatus = "REVIEW_NEEDED"
)

type CashCountSource string

const (
	CashCountKiosk CashCountSource = "kiosk"
	CashCountWeb   CashCountSource = "web"
)

// CashDrawerSession is a one-to-one sibling of a TimeEntry recording the
// starting and ending cash count.
type CashDrawerSession struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	TimeEntryID uuid.UUID `json:"time_entry_id"`

	StartCashCents   int             `json:"start_cash_cents"`
	StartCountedAt   time.Time       `json:"start_counted_at"`
	StartCountSource CashCountSource `json:"start_count_source"`

	EndCashCents     *int             `json:"end_cash_cents,omitempty"`
	EndCountedAt     *time.Time       `json:"end_counted_at,omitempty"`
	EndCountSource   *CashCountSource `json:"end_count_source,omitempty"`
	CollectedCents   *int             `json:"collected_cash_cents,omitempty"`
	DropAmountCents  *int             `json:"drop_amount_cents,omitempty"`
	BeveragesCents   *int             `json:"beverages_cash_cents,omitempty"`

	Status CashDrawerStatus `json:"status"`

	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote   *string    `json:"review_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeltaCents computes end - start; zero if the session isn't closed yet.
func (c *CashDrawerSession) DeltaCents() int {
	if c.EndCashCents == nil {
		return 0
	}
	return *c.EndCashCents - c.StartCashCents
}

type CashDrawerAuditAction string

const (
	CashAuditCreateStart CashDrawerAuditAction = "CREATE_START"
	CashAuditSetEnd      CashDrawerAuditAction = "SET_END"
	CashAuditEditStart   CashDrawerAuditAction = "EDIT_START"
	CashAuditEditEnd     CashDrawerAuditAction = "EDIT_END"
	CashAuditReview      CashDrawerAuditAction = "REVIEW"
	CashAuditVoid        CashDrawerAuditAction = "VOID"
)

// CashDrawerAudit is an append-only log of mutations to a CashDrawerSession.
type CashDrawerAudit struct {
	ID                  uuid.UUID              `json:"id"`
	CashDrawerSessionID uuid.UUID              `json:"cash_drawer_session_id"`
	Action              CashDrawerAuditAction  `json:"action"`
	ActorUserID         *uuid.UUID             `json:"actor_user_id,omitempty"`
	OldValues           json.RawMessage        `json:"old_values,omitempty"`
	NewValues           json.RawMessage        `json:"new_values,omitempty"`
	Reason              *string                `json:"reason,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
}
