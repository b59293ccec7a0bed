// Package tz converts between company-local dates and UTC instants using
// the stdlib IANA timezone database (the direct Go equivalent of pytz in
// the system this was ported from).
package tz

import (
	"fmt"
	"time"
)

const DefaultTimezone = "America/Chicago"

// Load resolves an IANA zone name, falling back to the default timezone on
// an empty string.
func Load(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// StartOfDayUTC returns the UTC instant corresponding to 00:00:00 local
// time on the given date in loc.
func StartOfDayUTC(date time.Time, loc *time.Location) time.Time {
	local := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return local.UTC()
}

// EndOfDayUTC returns the UTC instant corresponding to 23:59:59.999999999
// local time on the given date in loc.
func EndOfDayUTC(date time.Time, loc *time.Location) time.Time {
	local := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 999999999, loc)
	return local.UTC()
}

// LocalDate returns the calendar date (at midnight, in loc) that instant t
// falls on when viewed in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
