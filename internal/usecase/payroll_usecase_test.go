package usecase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shiftledger/internal/domain"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q): %v", s, err)
	}
	return d
}

func mustEntry(employeeID uuid.UUID, inHour, inMin, outHour, outMin int, day int, breakMinutes int) *domain.TimeEntry {
	in := time.Date(2025, 6, day, inHour, inMin, 0, 0, time.UTC)
	out := time.Date(2025, 6, day, outHour, outMin, 0, 0, time.UTC)
	return &domain.TimeEntry{
		ID:           uuid.New(),
		EmployeeID:   employeeID,
		ClockInAt:    in,
		ClockOutAt:   &out,
		BreakMinutes: breakMinutes,
		Status:       domain.TimeEntryClosed,
	}
}

// TestBuildLineItemScenarioS1 reproduces §8 S1: weekly payroll with
// 15-minute rounding and weekly overtime.
func TestBuildLineItemScenarioS1(t *testing.T) {
	employee := &domain.User{ID: uuid.New(), PayRateCents: 2500}
	company := &domain.Company{Settings: domain.Settings{
		PayrollWeekStartDay:           1, // Monday, matching the Mon-Sun period below
		OvertimeEnabled:               true,
		OvertimeThresholdHoursPerWeek: 40,
		OvertimeMultiplierDefault:     "1.5",
		RoundingPolicy:                "15",
		BreaksPaid:                    false,
	}}
	loc := time.UTC

	var entries []*domain.TimeEntry
	for day := 16; day <= 20; day++ { // Mon-Fri
		entries = append(entries, mustEntry(employee.ID, 9, 0, 18, 7, day, 30))
	}

	periodStart := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	periodEnd := time.Date(2025, 6, 22, 0, 0, 0, 0, loc)

	item, err := (&PayrollUseCase{}).buildLineItem(uuid.New(), employee, company, loc, periodStart, periodEnd, entries, nil)
	if err != nil {
		t.Fatalf("buildLineItem returned error: %v", err)
	}

	if item.TotalMinutes != item.RegularMinutes+item.OvertimeMinutes {
		t.Fatalf("pay math round-trip violated: regular(%d) + overtime(%d) != total(%d)",
			item.RegularMinutes, item.OvertimeMinutes, item.TotalMinutes)
	}
	if item.RegularMinutes != 2400 {
		t.Errorf("regular minutes = %d, want 2400 (40h)", item.RegularMinutes)
	}
	if item.OvertimeMinutes != 150 {
		t.Errorf("overtime minutes = %d, want 150 (2.5h)", item.OvertimeMinutes)
	}
	if item.RegularPayCents != 100000 {
		t.Errorf("regular pay cents = %d, want 100000", item.RegularPayCents)
	}
	if item.OvertimePayCents != 9375 {
		t.Errorf("overtime pay cents = %d, want 9375", item.OvertimePayCents)
	}
	if item.TotalPayCents != item.RegularPayCents+item.OvertimePayCents {
		t.Errorf("total pay cents = %d, want %d", item.TotalPayCents, item.RegularPayCents+item.OvertimePayCents)
	}
}

// TestBuildLineItemDeterministic asserts re-running generation against the
// same inputs produces bit-for-bit identical totals (§8 property 4).
func TestBuildLineItemDeterministic(t *testing.T) {
	employee := &domain.User{ID: uuid.New(), PayRateCents: 1733}
	company := &domain.Company{Settings: domain.Settings{
		OvertimeEnabled:               true,
		OvertimeThresholdHoursPerWeek: 40,
		OvertimeMultiplierDefault:     "1.5",
		RoundingPolicy:                "none",
	}}
	loc := time.UTC
	entries := []*domain.TimeEntry{mustEntry(employee.ID, 8, 0, 16, 30, 17, 0)}
	periodStart := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	periodEnd := time.Date(2025, 6, 22, 0, 0, 0, 0, loc)

	uc := &PayrollUseCase{}
	first, err := uc.buildLineItem(uuid.New(), employee, company, loc, periodStart, periodEnd, entries, nil)
	if err != nil {
		t.Fatalf("buildLineItem returned error: %v", err)
	}
	second, err := uc.buildLineItem(uuid.New(), employee, company, loc, periodStart, periodEnd, entries, nil)
	if err != nil {
		t.Fatalf("buildLineItem returned error: %v", err)
	}
	if first.TotalPayCents != second.TotalPayCents {
		t.Errorf("non-deterministic total pay: %d != %d", first.TotalPayCents, second.TotalPayCents)
	}
}

// TestBuildLineItemAnnotatesApprovedLeave asserts approved leave overlapping
// the period is carried onto the line item's details without altering the
// computed pay (§4.4 supplement on folding in leave).
func TestBuildLineItemAnnotatesApprovedLeave(t *testing.T) {
	employee := &domain.User{ID: uuid.New(), PayRateCents: 2500}
	company := &domain.Company{Settings: domain.Settings{
		OvertimeEnabled:               true,
		OvertimeThresholdHoursPerWeek: 40,
		OvertimeMultiplierDefault:     "1.5",
		RoundingPolicy:                "none",
	}}
	loc := time.UTC
	entries := []*domain.TimeEntry{mustEntry(employee.ID, 9, 0, 17, 0, 16, 0)}
	periodStart := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	periodEnd := time.Date(2025, 6, 22, 0, 0, 0, 0, loc)

	leave := &domain.LeaveRequest{
		ID:        uuid.New(),
		Type:      domain.LeaveVacation,
		StartDate: time.Date(2025, 6, 19, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2025, 6, 20, 0, 0, 0, 0, loc),
		Status:    domain.LeaveApproved,
	}

	withoutLeave, err := (&PayrollUseCase{}).buildLineItem(uuid.New(), employee, company, loc, periodStart, periodEnd, entries, nil)
	if err != nil {
		t.Fatalf("buildLineItem returned error: %v", err)
	}
	withLeave, err := (&PayrollUseCase{}).buildLineItem(uuid.New(), employee, company, loc, periodStart, periodEnd, entries, []*domain.LeaveRequest{leave})
	if err != nil {
		t.Fatalf("buildLineItem returned error: %v", err)
	}

	if withLeave.TotalPayCents != withoutLeave.TotalPayCents {
		t.Errorf("leave annotation changed computed pay: %d != %d", withLeave.TotalPayCents, withoutLeave.TotalPayCents)
	}

	var details domain.PayrollLineItemDetails
	if err := json.Unmarshal(withLeave.DetailsJSON, &details); err != nil {
		t.Fatalf("unmarshaling details: %v", err)
	}
	if len(details.LeaveDays) != 1 {
		t.Fatalf("expected 1 leave day entry, got %d", len(details.LeaveDays))
	}
	if details.LeaveDays[0].LeaveRequestID != leave.ID {
		t.Errorf("leave day entry id = %v, want %v", details.LeaveDays[0].LeaveRequestID, leave.ID)
	}
}

func TestWeekBoundariesSingleWeek(t *testing.T) {
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)   // Sunday
	weeks := weekBoundaries(start, end, 1)                // anchored on Monday
	if len(weeks) != 1 {
		t.Fatalf("expected 1 week for a 7-day Mon-Sun period anchored on Monday, got %d", len(weeks))
	}
	if !weeks[0].start.Equal(start) || !weeks[0].end.Equal(end) {
		t.Errorf("week range = %v..%v, want %v..%v", weeks[0].start, weeks[0].end, start, end)
	}
}

func TestWeekBoundariesBiweekly(t *testing.T) {
	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)   // Sunday, two weeks later
	weeks := weekBoundaries(start, end, 1)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks for a 14-day period anchored on Monday, got %d", len(weeks))
	}
	if weeks[0].start.Weekday() != time.Monday || weeks[1].start.Weekday() != time.Monday {
		t.Errorf("both week boundaries should start on Monday, got %v and %v", weeks[0].start.Weekday(), weeks[1].start.Weekday())
	}
}

// TestWeekBoundariesAnchorsOnConfiguredStartDay reproduces the bug a flat
// 7-day chunking misses: when the period's own start date doesn't fall on
// weekStartDay, the first (and possibly last) week must be a short week
// ending/starting on the configured boundary, not on a periodStart-relative
// offset.
func TestWeekBoundariesAnchorsOnConfiguredStartDay(t *testing.T) {
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC) // Wednesday
	end := time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)   // Tuesday
	weeks := weekBoundaries(start, end, 0)                // anchored on Sunday

	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks (short leading week + short trailing week), got %d", len(weeks))
	}
	wantFirst := weekRange{start: start, end: time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)}
	wantSecond := weekRange{start: time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), end: end}
	if !weeks[0].start.Equal(wantFirst.start) || !weeks[0].end.Equal(wantFirst.end) {
		t.Errorf("first week = %v..%v, want %v..%v", weeks[0].start, weeks[0].end, wantFirst.start, wantFirst.end)
	}
	if !weeks[1].start.Equal(wantSecond.start) || !weeks[1].end.Equal(wantSecond.end) {
		t.Errorf("second week = %v..%v, want %v..%v", weeks[1].start, weeks[1].end, wantSecond.start, wantSecond.end)
	}
	if weeks[1].start.Weekday() != time.Sunday {
		t.Errorf("second week must start on the configured Sunday boundary, got %v", weeks[1].start.Weekday())
	}
}

func TestRoundHalfUpCentsTiesAwayFromZero(t *testing.T) {
	cases := []struct {
		cents string
		want  int
	}{
		{"100.5", 101},
		{"100.4", 100},
		{"100.49999", 100},
	}
	for _, c := range cases {
		d := mustDecimal(t, c.cents)
		if got := roundHalfUpCents(d); got != c.want {
			t.Errorf("roundHalfUpCents(%s) = %d, want %d", c.cents, got, c.want)
		}
	}
}
