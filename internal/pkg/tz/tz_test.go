package tz

import (
	"testing"
	"time"
)

func TestLoadFallsBackToDefault(t *testing.T) {
	loc, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Errorf("Load(\"\") = %v, want %v", loc.String(), DefaultTimezone)
	}
}

func TestLoadUnknownZone(t *testing.T) {
	if _, err := Load("Not/A_Real_Zone"); err == nil {
		t.Errorf("Load(\"Not/A_Real_Zone\") = nil error, want a failure")
	}
}

func TestStartAndEndOfDayUTC(t *testing.T) {
	loc, err := Load("America/Chicago")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	date := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)

	start := StartOfDayUTC(date, loc)
	end := EndOfDayUTC(date, loc)

	if !start.Before(end) {
		t.Errorf("start-of-day %v is not before end-of-day %v", start, end)
	}
	if end.Sub(start) >= 25*time.Hour || end.Sub(start) <= 22*time.Hour {
		t.Errorf("start/end of day span = %v, want roughly 24h (DST days run 23-25h)", end.Sub(start))
	}

	localStart := start.In(loc)
	if localStart.Hour() != 0 || localStart.Minute() != 0 {
		t.Errorf("start-of-day in local time = %v, want midnight", localStart)
	}
}

func TestLocalDateRoundTrip(t *testing.T) {
	loc, err := Load("America/Chicago")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	instant := StartOfDayUTC(date, loc).Add(5 * time.Hour)

	got := LocalDate(instant, loc)
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 16 {
		t.Errorf("LocalDate(%v) = %v, want 2025-06-16", instant, got)
	}
}

// TestLocalDateNearMidnightBoundary exercises a UTC instant that falls on
// the previous local calendar date (America/Chicago is UTC-5/-6).
func TestLocalDateNearMidnightBoundary(t *testing.T) {
	loc, err := Load("America/Chicago")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	instant := time.Date(2025, 6, 17, 2, 0, 0, 0, time.UTC) // 21:00 Chicago on the 16th
	got := LocalDate(instant, loc)
	if got.Day() != 16 {
		t.Errorf("LocalDate(%v) = day %d, want 16 (previous local calendar day)", instant, got.Day())
	}
}
