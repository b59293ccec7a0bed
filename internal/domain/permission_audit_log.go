package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Permission is a flat category.verb capability string, e.g.
// "time_entries.view".
type Permission struct {
	ID       uuid.UUID `json:"id"`
	Category string    `json:"category"`
	Verb     string    `json:"verb"`
}

func (p Permission) Key() string { return p.Category + "." + p.Verb }

// RolePermission grants a Permission to a Role within a company. A
// CompanyID of domain.SentinelCompanyID denotes the global-defaults row;
// ADMIN never needs a row here because it is a static bypass (see §9).
type RolePermission struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	PermissionID uuid.UUID `json:"permission_id"`
	CompanyID    uuid.UUID `json:"company_id"`
}

// Session is a long-lived refresh-token handle.
type Session struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	CompanyID        uuid.UUID  `json:"company_id"`
	RefreshTokenHash string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	UserAgent        *string    `json:"user_agent,omitempty"`
	IP               *string    `json:"ip,omitempty"`
}

// IsLive reports whether the session is neither revoked nor expired as of
// now.
func (s *Session) IsLive(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// AuditLog is the cross-entity append-only action record.
type AuditLog struct {
	ID          uuid.UUID       `json:"id"`
	CompanyID   uuid.UUID       `json:"company_id"`
	ActorUserID *uuid.UUID      `json:"actor_user_id,omitempty"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

const (
	AuditActionPayrollGenerate     = "PAYROLL_GENERATE"
	AuditActionCashDrawerCreate    = "CASH_DRAWER_CREATE_START"
	AuditActionCashDrawerClose     = "CASH_DRAWER_SET_END"
	AuditActionCashDrawerEdit      = "CASH_DRAWER_EDIT"
	AuditActionCashDrawerReview    = "CASH_DRAWER_REVIEW"
)
