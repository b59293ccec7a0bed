// Package rounding implements the pure paid-minutes calculation shared by
// the punch coordinator's display values and the payroll engine's weekly
// OT split. It performs no I/O.
package rounding

import "time"

type Policy string

const (
	PolicyNone     Policy = "none"
	Policy5        Policy = "5"
	Policy6        Policy = "6"
	Policy10       Policy = "10"
	Policy15       Policy = "15"
	Policy30       Policy = "30"
)

// Apply rounds raw minutes according to policy. The "15" policy uses the
// 7-minute rule: a remainder of 7 or less rounds down, 8 or more rounds up.
// All other multiples round to the nearest boundary, ties rounding up.
func Apply(minutes int, policy Policy) int {
	switch policy {
	case PolicyNone, "":
		return minutes
	case Policy15:
		remainder := minutes % 15
		if remainder <= 7 {
			return minutes - remainder
		}
		return minutes + (15 - remainder)
	case Policy5, Policy6, Policy10, Policy30:
		n := multipleOf(policy)
		remainder := minutes % n
		if remainder*2 < n {
			return minutes - remainder
		}
		return minutes + (n - remainder)
	default:
		return minutes
	}
}

func multipleOf(policy Policy) int {
	switch policy {
	case Policy5:
		return 5
	case Policy6:
		return 6
	case Policy10:
		return 10
	case Policy30:
		return 30
	default:
		return 1
	}
}

// ComputePaidMinutes implements §4.1's contract. An open shift (clockOut
// nil) contributes nothing. Unpaid breaks are subtracted before rounding,
// clamped at zero.
func ComputePaidMinutes(clockIn time.Time, clockOut *time.Time, breakMinutes int, policy Policy, breaksPaid bool) int {
	if clockOut == nil {
		return 0
	}
	raw := int(clockOut.Sub(clockIn) / time.Minute)
	if raw < 0 {
		raw = 0
	}
	if !breaksPaid {
		raw -= breakMinutes
		if raw < 0 {
			raw = 0
		}
	}
	return Apply(raw, policy)
}
