package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"shiftledger/internal/domain"
)

var ErrNotFound = errors.New("repository: record not found")

// ErrDuplicatePin signals the unique-constraint violation on
// (company_id, pin_hash) used as the authoritative "PIN already in use"
// check, since argon2 salts make hash comparison unusable (§4.6, §9).
var ErrDuplicatePin = errors.New("repository: duplicate pin")

var ErrDuplicateEmail = errors.New("repository: duplicate email")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, company_id, name, email, password_hash, pin_hash, role, status, job_role,
	pay_rate_cents, pay_rate_type, overtime_multiplier,
	email_verified, last_verified_at, verification_pin_hash, verification_expires_at,
	verification_attempts, last_verification_sent_at, verification_required,
	password_reset_otp_hash, password_reset_otp_expires_at, password_reset_attempts,
	last_password_reset_sent_at, last_login_at, created_at, updated_at
`

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	var u domain.User
	var jobRole, overtimeMult, pinHash sql.NullString
	var verPinHash, pwResetHash sql.NullString
	var lastVerified, verExpires, lastVerSent, pwResetExpires, lastPwResetSent, lastLogin sql.NullTime

	err := row.Scan(
		&u.ID, &u.CompanyID, &u.Name, &u.Email, &u.PasswordHash, &pinHash, &u.Role, &u.Status, &jobRole,
		&u.PayRateCents, &u.PayRateType, &overtimeMult,
		&u.EmailVerified, &lastVerified, &verPinHash, &verExpires,
		&u.VerificationAttempts, &lastVerSent, &u.VerificationRequired,
		&pwResetHash, &pwResetExpires, &u.PasswordResetAttempts,
		&lastPwResetSent, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pinHash.Valid {
		u.PinHash = &pinHash.String
	}
	if jobRole.Valid {
		u.JobRole = &jobRole.String
	}
	if overtimeMult.Valid {
		u.OvertimeMultiplier = &overtimeMult.String
	}
	if lastVerified.Valid {
		u.LastVerifiedAt = &lastVerified.Time
	}
	if verPinHash.Valid {
		u.VerificationPinHash = &verPinHash.String
	}
	if verExpires.Valid {
		u.VerificationExpiresAt = &verExpires.Time
	}
	if lastVerSent.Valid {
		u.LastVerificationSentAt = &lastVerSent.Time
	}
	if pwResetHash.Valid {
		u.PasswordResetOTPHash = &pwResetHash.String
	}
	if pwResetExpires.Valid {
		u.PasswordResetOTPExpiresAt = &pwResetExpires.Time
	}
	if lastPwResetSent.Valid {
		u.LastPasswordResetSentAt = &lastPwResetSent.Time
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}

	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, companyID, userID uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND company_id = $2`, userID, companyID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// GetByIDAnyCompany is used by middleware/token validation paths where the
// company is not yet known independently of the user row.
func (r *UserRepository) GetByIDAnyCompany(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// GetByEmail looks up a user within a company, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE company_id = $1 AND lower(email) = lower($2)`, companyID, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// GetForUpdate locks the user row for the duration of tx; callers use
// this before touching OTP columns or punch-coordinator state (§5).
func (r *UserRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, companyID, userID uuid.UUID) (*domain.User, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND company_id = $2 FOR UPDATE`, userID, companyID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// ListActivePunchablePins returns the active users of a company that have
// a pin_hash set. Callers argon2-verify a PIN against each pin_hash, since
// salts differ per hash and no direct lookup is possible (§4.6, §9).
func (r *UserRepository) ListActivePunchablePins(ctx context.Context, companyID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE company_id = $1 AND status = 'active' AND pin_hash IS NOT NULL
		  AND role IN ('MAINTENANCE', 'FRONTDESK', 'HOUSEKEEPING')
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByEmailAnyCompany resolves a punch-eligible employee by email alone,
// for the unauthenticated /time/punch adapter where the caller has no
// company context yet (§4.2 "by email within company" — the company is
// discovered, not supplied).
func (r *UserRepository) GetByEmailAnyCompany(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1) AND status = 'active'
		  AND role IN ('MAINTENANCE', 'FRONTDESK', 'HOUSEKEEPING')
	`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// ListByCompany returns every user in a company, optionally including
// inactive ones; used by payroll generation's eligible-employee scan when
// no explicit allowlist is given (§4.4).
func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, includeInactive bool) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1`
	if !includeInactive {
		query += ` AND status = 'active'`
	}
	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, u *domain.User) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO users (
			id, company_id, name, email, password_hash, role, status, job_role,
			pay_rate_cents, pay_rate_type, overtime_multiplier, verification_required,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
	`,
		u.ID, u.CompanyID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.JobRole,
		u.PayRateCents, u.PayRateType, u.OvertimeMultiplier, u.VerificationRequired,
	)
	if isUniqueViolation(err, "users_company_id_email") {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateProfile applies an admin's edits to an employee's schedulable
// attributes; credential fields (password/pin/OTP state) are handled by
// their own dedicated methods so this never touches them.
func (r *UserRepository) UpdateProfile(ctx context.Context, companyID, userID uuid.UUID, name string, role domain.Role, status domain.UserStatus, jobRole *string, payRateCents int, payRateType string, overtimeMultiplier *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			name = $1, role = $2, status = $3, job_role = $4,
			pay_rate_cents = $5, pay_rate_type = $6, overtime_multiplier = $7, updated_at = now()
		WHERE id = $8 AND company_id = $9
	`, name, role, status, jobRole, payRateCents, payRateType, overtimeMultiplier, userID, companyID)
	return err
}

// CreateDirect is Create against the repository's own *sql.DB, for callers
// outside a transaction (e.g. the admin employee-invite handler).
func (r *UserRepository) CreateDirect(ctx context.Context, u *domain.User) error {
	return r.Create(ctx, r.db, u)
}

func (r *UserRepository) SetPin(ctx context.Context, companyID, userID uuid.UUID, pinHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET pin_hash = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, pinHash, userID, companyID)
	if isUniqueViolation(err, "users_company_id_pin_hash") {
		return ErrDuplicatePin
	}
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at interface{}) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, userID)
	return err
}

func (r *UserRepository) UpdateVerification(ctx context.Context, tx *sql.Tx, u *domain.User) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET
			email_verified = $1, last_verified_at = $2, verification_pin_hash = $3,
			verification_expires_at = $4, verification_attempts = $5,
			last_verification_sent_at = $6, verification_required = $7, updated_at = now()
		WHERE id = $8
	`, u.EmailVerified, u.LastVerifiedAt, u.VerificationPinHash, u.VerificationExpiresAt,
		u.VerificationAttempts, u.LastVerificationSentAt, u.VerificationRequired, u.ID)
	return err
}

func (r *UserRepository) UpdatePasswordReset(ctx context.Context, tx *sql.Tx, u *domain.User) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET
			password_reset_otp_hash = $1, password_reset_otp_expires_at = $2,
			password_reset_attempts = $3, last_password_reset_sent_at = $4, updated_at = now()
		WHERE id = $5
	`, u.PasswordResetOTPHash, u.PasswordResetOTPExpiresAt, u.PasswordResetAttempts,
		u.LastPasswordResetSentAt, u.ID)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, tx *sql.Tx, userID uuid.UUID, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, userID)
	return err
}

func isUniqueViolation(err error, constraintContains string) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return strings.Contains(pqErr.Constraint, constraintContains) || constraintContains == ""
		}
	}
	return false
}
