package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SentinelCompanyID denotes the global-defaults row for RolePermission;
// a companion "system" Company row must exist to satisfy the FK.
var SentinelCompanyID = uuid.UUID{}

type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	KioskEnabled bool      `json:"kiosk_enabled"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"created_at"`
}

// Settings is the typed recognized-keys bag described in §6/§9; it
// serializes to JSONB and intentionally has no catch-all map so unknown
// keys are rejected on write rather than silently persisted.
type Settings struct {
	Timezone                       string   `json:"timezone"`
	PayrollWeekStartDay            int      `json:"payroll_week_start_day"`
	BiweeklyAnchorDate             *string  `json:"biweekly_anchor_date,omitempty"`
	OvertimeEnabled                bool     `json:"overtime_enabled"`
	OvertimeThresholdHoursPerWeek  int      `json:"overtime_threshold_hours_per_week"`
	OvertimeMultiplierDefault      string   `json:"overtime_multiplier_default"`
	RoundingPolicy                 string   `json:"rounding_policy"`
	BreaksPaid                     bool     `json:"breaks_paid"`
	CashDrawerEnabled              bool     `json:"cash_drawer_enabled"`
	CashDrawerRequiredForAll       bool     `json:"cash_drawer_required_for_all"`
	CashDrawerRequiredRoles        []string `json:"cash_drawer_required_roles"`
	CashDrawerStartingAmountCents  int      `json:"cash_drawer_starting_amount_cents"`
	CashDrawerVarianceThreshold    int      `json:"cash_drawer_variance_threshold_cents"`
	CashDrawerAllowEdit            bool     `json:"cash_drawer_allow_edit"`
	CashDrawerRequireManagerReview bool     `json:"cash_drawer_require_manager_review"`
}

// DefaultSettings mirrors the recognized-key defaults in §6.
func DefaultSettings() Settings {
	return Settings{
		Timezone:                      "America/Chicago",
		PayrollWeekStartDay:           0,
		OvertimeEnabled:               true,
		OvertimeThresholdHoursPerWeek: 40,
		OvertimeMultiplierDefault:     "1.5",
		RoundingPolicy:                "none",
		BreaksPaid:                    false,
		CashDrawerEnabled:             false,
		CashDrawerRequiredForAll:      false,
		CashDrawerRequiredRoles:       []string{"FRONTDESK"},
		CashDrawerAllowEdit:           true,
	}
}

func (s Settings) MarshalJSONB() ([]byte, error) {
	return json.Marshal(s)
}

func (s *Settings) UnmarshalJSONB(data []byte) error {
	return json.Unmarshal(data, s)
}
