package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleDeveloper   Role = "DEVELOPER"
	RoleMaintenance Role = "MAINTENANCE"
	RoleFrontdesk   Role = "FRONTDESK"
	RoleHousekeeping Role = "HOUSEKEEPING"

	// roleLegacyEmployee is accepted only as an input alias on read paths;
	// see §9 — migrations map EMPLOYEE onto FRONTDESK and no write may
	// persist it.
	roleLegacyEmployee Role = "EMPLOYEE"
)

// NormalizeRole maps the legacy EMPLOYEE role onto FRONTDESK. Callers on
// write paths must reject roleLegacyEmployee before persisting; this helper
// is for read/display paths that may still encounter old data.
func NormalizeRole(r Role) Role {
	if r == roleLegacyEmployee {
		return RoleFrontdesk
	}
	return r
}

// PunchableRoles is the allowlist used by the punch coordinator: ADMIN and
// DEVELOPER are excluded by not appearing here, not by a denylist check.
var PunchableRoles = map[Role]bool{
	RoleMaintenance:  true,
	RoleFrontdesk:    true,
	RoleHousekeeping: true,
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`

	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	PinHash      *string    `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	JobRole      *string    `json:"job_role,omitempty"`

	PayRateCents       int     `json:"pay_rate_cents"`
	PayRateType        string  `json:"pay_rate_type"`
	OvertimeMultiplier *string `json:"overtime_multiplier,omitempty"`

	EmailVerified           bool       `json:"email_verified"`
	LastVerifiedAt          *time.Time `json:"last_verified_at,omitempty"`
	VerificationPinHash     *string    `json:"-"`
	VerificationExpiresAt   *time.Time `json:"-"`
	VerificationAttempts    int        `json:"-"`
	LastVerificationSentAt  *time.Time `json:"-"`
	VerificationRequired    bool       `json:"verification_required"`

	PasswordResetOTPHash       *string    `json:"-"`
	PasswordResetOTPExpiresAt  *time.Time `json:"-"`
	PasswordResetAttempts      int        `json:"-"`
	LastPasswordResetSentAt    *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const PayRateTypeHourly = "HOURLY"

// IsPunchEligible reports whether the user may use the punch coordinator:
// non-admin, non-developer, active, with a PIN configured.
func (u *User) IsPunchEligible() bool {
	if u.Status != UserStatusActive {
		return false
	}
	if u.PinHash == nil {
		return false
	}
	return PunchableRoles[NormalizeRole(u.Role)]
}

// NeedsVerification reports whether the 30-day verification window has
// lapsed (or was never entered).
func (u *User) NeedsVerification(now time.Time) bool {
	if !u.EmailVerified || u.LastVerifiedAt == nil {
		return true
	}
	return u.LastVerifiedAt.Add(30 * 24 * time.Hour).Before(now)
}
