package http

import (
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

// userView is the outward-facing projection of domain.User: it drops
// every credential/OTP column (password hash, pin hash, reset state) that
// domain.User's own json tags already hide, and flattens the remaining
// fields the way the teacher's response DTOs do.
type userView struct {
	ID                   uuid.UUID  `json:"id"`
	CompanyID            uuid.UUID  `json:"company_id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Role                 string     `json:"role"`
	Status               string     `json:"status"`
	JobRole              *string    `json:"job_role,omitempty"`
	PayRateCents         int        `json:"pay_rate_cents"`
	PayRateType          string     `json:"pay_rate_type"`
	OvertimeMultiplier   *string    `json:"overtime_multiplier,omitempty"`
	EmailVerified        bool       `json:"email_verified"`
	VerificationRequired bool       `json:"verification_required"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:                   u.ID,
		CompanyID:            u.CompanyID,
		Name:                 u.Name,
		Email:                u.Email,
		Role:                 string(u.Role),
		Status:               string(u.Status),
		JobRole:              u.JobRole,
		PayRateCents:         u.PayRateCents,
		PayRateType:          u.PayRateType,
		OvertimeMultiplier:   u.OvertimeMultiplier,
		EmailVerified:        u.EmailVerified,
		VerificationRequired: u.VerificationRequired,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
	}
}

func toUserViews(users []*domain.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}
