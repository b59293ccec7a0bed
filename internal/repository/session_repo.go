package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, company_id, refresh_token_hash, created_at, expires_at, revoked_at, user_agent, ip`

func scanSession(row interface{ Scan(...interface{}) error }) (*domain.Session, error) {
	var s domain.Session
	var userAgent, ip sql.NullString
	var revokedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.CompanyID, &s.RefreshTokenHash, &s.CreatedAt, &s.ExpiresAt, &revokedAt, &userAgent, &ip)
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	if userAgent.Valid {
		s.UserAgent = &userAgent.String
	}
	if ip.Valid {
		s.IP = &ip.String
	}
	return &s, nil
}

func (r *SessionRepository) Create(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, s *domain.Session) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, company_id, refresh_token_hash, created_at, expires_at, user_agent, ip)
		VALUES ($1, $2, $3, $4, now(), $5, $6, $7)
	`, s.ID, s.UserID, s.CompanyID, s.RefreshTokenHash, s.ExpiresAt, s.UserAgent, s.IP)
	return err
}

// ListLiveForUser returns every non-revoked, unexpired session for userID,
// the candidate set the refresh-rotation path argon2-verifies the
// presented token against (hashes carry random salts, so no equality
// lookup is possible; see §4.6).
func (r *SessionRepository) ListLiveForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > now()
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

// RevokeAllForUser is invoked on refresh-token reuse detection: every
// live session for the user is revoked, forcing re-authentication
// everywhere (§9).
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}
