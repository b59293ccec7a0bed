package usecase

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

func mustShift(date time.Time, start, end string, status domain.ShiftStatus) *domain.Shift {
	return &domain.Shift{
		ID:        uuid.New(),
		ShiftDate: date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

// TestOvernightShiftOverlap reproduces §8 S4: a shift 22:00-06:00 overlaps a
// candidate 04:00-12:00 the morning after, since the overnight end rolls to
// the next day.
func TestOvernightShiftOverlap(t *testing.T) {
	existing := mustShift(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), "22:00", "06:00", domain.ShiftPublished)
	candidateDate := time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)

	overlap, err := overlaps(existing, candidateDate, "04:00", "12:00", domain.ShiftPublished, nil)
	if err != nil {
		t.Fatalf("overlaps returned error: %v", err)
	}
	if !overlap {
		t.Fatalf("expected overnight shift 22:00-06:00 on 06-16 to overlap 04:00-12:00 on 06-17")
	}
}

// TestOverlapSymmetric asserts overlaps(A,B) == overlaps(B,A) for the same
// pair viewed from either side (§8 property 5).
func TestOverlapSymmetric(t *testing.T) {
	dayA := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	dayB := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	a := mustShift(dayA, "09:00", "17:00", domain.ShiftPublished)
	b := mustShift(dayB, "12:00", "20:00", domain.ShiftPublished)

	ab, err := overlaps(a, dayB, b.StartTime, b.EndTime, b.Status, nil)
	if err != nil {
		t.Fatalf("overlaps(a,b) returned error: %v", err)
	}
	ba, err := overlaps(b, dayA, a.StartTime, a.EndTime, a.Status, nil)
	if err != nil {
		t.Fatalf("overlaps(b,a) returned error: %v", err)
	}
	if ab != ba {
		t.Fatalf("overlap predicate not symmetric: a-vs-b=%v, b-vs-a=%v", ab, ba)
	}
	if !ab {
		t.Errorf("expected 09:00-17:00 and 12:00-20:00 on the same day to overlap")
	}
}

// TestOverlapTouchingNotOverlapping covers the boundary case from §8
// property 5: A.end == B.start is adjacency, not overlap.
func TestOverlapTouchingNotOverlapping(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	a := mustShift(day, "09:00", "17:00", domain.ShiftPublished)

	overlap, err := overlaps(a, day, "17:00", "20:00", domain.ShiftPublished, nil)
	if err != nil {
		t.Fatalf("overlaps returned error: %v", err)
	}
	if overlap {
		t.Errorf("touching shifts (09:00-17:00, 17:00-20:00) must not be reported as overlapping")
	}
}

func TestOverlapIgnoresCancelled(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	a := mustShift(day, "09:00", "17:00", domain.ShiftCancelled)

	overlap, err := overlaps(a, day, "10:00", "12:00", domain.ShiftPublished, nil)
	if err != nil {
		t.Fatalf("overlaps returned error: %v", err)
	}
	if overlap {
		t.Errorf("a cancelled shift must never be reported as a conflict")
	}
}

func TestOverlapExcludesSelf(t *testing.T) {
	day := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	a := mustShift(day, "09:00", "17:00", domain.ShiftPublished)

	overlap, err := overlaps(a, day, "09:00", "17:00", domain.ShiftPublished, &a.ID)
	if err != nil {
		t.Fatalf("overlaps returned error: %v", err)
	}
	if overlap {
		t.Errorf("excludeID matching a.ID must suppress the conflict (editing a shift against itself)")
	}
}

func TestTemplateMatchesDateWeekly(t *testing.T) {
	monday := 1
	tmpl := &domain.ShiftTemplate{
		TemplateType: domain.TemplateWeekly,
		DayOfWeek:    &monday,
		StartDate:    time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	if !templateMatchesDate(tmpl, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected weekly template anchored on Monday to match 2025-06-16 (a Monday)")
	}
	if templateMatchesDate(tmpl, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected weekly template anchored on Monday to not match 2025-06-17 (a Tuesday)")
	}
}

func TestTemplateMatchesDateBiweekly(t *testing.T) {
	monday := 1
	tmpl := &domain.ShiftTemplate{
		TemplateType: domain.TemplateBiweekly,
		DayOfWeek:    &monday,
		StartDate:    time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	if !templateMatchesDate(tmpl, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected biweekly template to match its own start date")
	}
	if templateMatchesDate(tmpl, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected biweekly template to skip the following Monday (one week later)")
	}
	if !templateMatchesDate(tmpl, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected biweekly template to match the Monday two weeks after start")
	}
}

func TestTemplateMatchesDateMonthly(t *testing.T) {
	fifteenth := 15
	tmpl := &domain.ShiftTemplate{
		TemplateType: domain.TemplateMonthly,
		DayOfMonth:   &fifteenth,
		StartDate:    time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	if !templateMatchesDate(tmpl, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected monthly template on day 15 to match 2025-07-15")
	}
	if templateMatchesDate(tmpl, time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected monthly template on day 15 to not match 2025-07-16")
	}
}

func TestTemplateMatchesDateNone(t *testing.T) {
	tmpl := &domain.ShiftTemplate{
		TemplateType: domain.TemplateNone,
		StartDate:    time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	}
	if !templateMatchesDate(tmpl, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected NONE template to match only its own start date")
	}
	if templateMatchesDate(tmpl, time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected NONE template to not match any other date")
	}
}

func TestNormalizeToMonday(t *testing.T) {
	cases := []struct {
		date time.Time
		want time.Time
	}{
		{time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)}, // already Monday
		{time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)}, // Wednesday
		{time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)}, // Sunday rolls back
	}
	for _, c := range cases {
		if got := normalizeToMonday(c.date); !got.Equal(c.want) {
			t.Errorf("normalizeToMonday(%v) = %v, want %v", c.date, got, c.want)
		}
	}
}
