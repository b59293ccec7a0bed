package http

import (
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
	"shiftledger/internal/usecase"
)

type timeEntryView struct {
	ID           uuid.UUID  `json:"id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	ClockInAt    time.Time  `json:"clock_in_at"`
	ClockOutAt   *time.Time `json:"clock_out_at,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	Note         *string    `json:"note,omitempty"`
}

func toTimeEntryView(t *domain.TimeEntry) timeEntryView {
	return timeEntryView{
		ID:           t.ID,
		EmployeeID:   t.EmployeeID,
		ClockInAt:    t.ClockInAt,
		ClockOutAt:   t.ClockOutAt,
		BreakMinutes: t.BreakMinutes,
		Source:       string(t.Source),
		Status:       string(t.Status),
		Note:         t.Note,
	}
}

func toTimeEntryViews(entries []*domain.TimeEntry) []timeEntryView {
	out := make([]timeEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toTimeEntryView(e))
	}
	return out
}

type cashDrawerSessionView struct {
	ID             uuid.UUID  `json:"id"`
	TimeEntryID    uuid.UUID  `json:"time_entry_id"`
	StartCashCents int        `json:"start_cash_cents"`
	EndCashCents   *int       `json:"end_cash_cents,omitempty"`
	DeltaCents     int        `json:"delta_cents"`
	Status         string     `json:"status"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote     *string    `json:"review_note,omitempty"`
}

func toCashDrawerView(c *domain.CashDrawerSession) cashDrawerSessionView {
	return cashDrawerSessionView{
		ID:             c.ID,
		TimeEntryID:    c.TimeEntryID,
		StartCashCents: c.StartCashCents,
		EndCashCents:   c.EndCashCents,
		DeltaCents:     c.DeltaCents(),
		Status:         string(c.Status),
		ReviewedAt:     c.ReviewedAt,
		ReviewNote:     c.ReviewNote,
	}
}

func toCashDrawerViews(sessions []*domain.CashDrawerSession) []cashDrawerSessionView {
	out := make([]cashDrawerSessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toCashDrawerView(s))
	}
	return out
}

type punchResultView struct {
	Entry      timeEntryView          `json:"entry"`
	CashDrawer *cashDrawerSessionView `json:"cash_drawer,omitempty"`
	Opened     bool                   `json:"opened"`
}

func toPunchResultView(r *usecase.PunchResult) punchResultView {
	view := punchResultView{Entry: toTimeEntryView(r.Entry), Opened: r.Opened}
	if r.CashDrawer != nil {
		cd := toCashDrawerView(r.CashDrawer)
		view.CashDrawer = &cd
	}
	return view
}
