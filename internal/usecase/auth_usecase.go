// Package usecase wires repositories and pure engines into the
// transaction-scoped operations §4 describes; it rewrites the teacher's
// usecase/auth_usecase.go (register/login/forgot-password) onto the new
// credential lifecycle, dropping multi-tenant-session-selection and
// bcrypt along the way.
package usecase

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/email"
	"shiftledger/internal/pkg/clock"
	"shiftledger/internal/pkg/hash"
	"shiftledger/internal/pkg/jwt"
	"shiftledger/internal/repository"
)

const (
	verificationPinExpiry      = 15 * time.Minute
	verificationResendCooldown = 60 * time.Second
	maxVerificationAttempts    = 5

	passwordResetOTPExpiry      = 15 * time.Minute
	passwordResetResendCooldown = 60 * time.Second
	maxPasswordResetAttempts    = 5

	enumerationDelay = 300 * time.Millisecond
)

var passwordRules = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`[A-Z]`), "must contain an uppercase letter"},
	{regexp.MustCompile(`[a-z]`), "must contain a lowercase letter"},
	{regexp.MustCompile(`[0-9]`), "must contain a digit"},
}

// ValidatePasswordStrength enforces §4.6: min 8 chars, >=1 upper, >=1
// lower, >=1 digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return apperr.Validation("password does not meet strength requirements", map[string]string{
			"password": "must be at least 8 characters",
		})
	}
	for _, rule := range passwordRules {
		if !rule.re.MatchString(password) {
			return apperr.Validation("password does not meet strength requirements", map[string]string{
				"password": rule.message,
			})
		}
	}
	return nil
}

// AuthResult is returned by every operation that issues a fresh token
// pair.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthUseCase struct {
	db        *sql.DB
	users     *repository.UserRepository
	companies *repository.CompanyRepository
	sessions  *repository.SessionRepository
	audit     *repository.AuditLogRepository
	codec     *jwt.Codec
	clock     clock.Clock
	sender    email.Sender
}

func NewAuthUseCase(
	db *sql.DB,
	users *repository.UserRepository,
	companies *repository.CompanyRepository,
	sessions *repository.SessionRepository,
	audit *repository.AuditLogRepository,
	codec *jwt.Codec,
	clk clock.Clock,
	sender email.Sender,
) *AuthUseCase {
	return &AuthUseCase{
		db:        db,
		users:     users,
		companies: companies,
		sessions:  sessions,
		audit:     audit,
		codec:     codec,
		clock:     clk,
		sender:    sender,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Register creates a Company and its initial ADMIN user, issues a token
// pair, and inserts the matching session row, all in one transaction
// (§4.6).
func (uc *AuthUseCase) Register(ctx context.Context, companyName, companySlug, adminName, adminEmail, password, timezone, userAgent, ip string) (*AuthResult, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	passwordHash, err := hash.Hash(password)
	if err != nil {
		return nil, apperr.Internal("hashing password", err)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	settings := domain.DefaultSettings()
	if timezone != "" {
		settings.Timezone = timezone
	}

	company := &domain.Company{
		ID:       uuid.New(),
		Name:     companyName,
		Slug:     companySlug,
		Settings: settings,
	}
	if err := uc.companies.Create(ctx, tx, company); err != nil {
		return nil, apperr.Internal("creating company", err)
	}

	admin := &domain.User{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		PayRateType:  domain.PayRateTypeHourly,
	}
	if err := uc.users.Create(ctx, tx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal("creating admin user", err)
	}

	result, err := uc.issueTokenPair(ctx, tx, admin, userAgent, ip)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing registration", err)
	}
	return result, nil
}

// Login verifies the password and issues a fresh token pair (§4.6).
func (uc *AuthUseCase) Login(ctx context.Context, companyID uuid.UUID, emailAddr, password, userAgent, ip string) (*AuthResult, error) {
	user, err := uc.users.GetByEmail(ctx, companyID, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Authentication("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal("looking up user", err)
	}

	ok, err := hash.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, apperr.Authentication("invalid email or password")
	}

	if user.Status != domain.UserStatusActive {
		return nil, apperr.Authentication("account is not active")
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	result, err := uc.issueTokenPair(ctx, tx, user, userAgent, ip)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if err := uc.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal("stamping last login", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing login", err)
	}
	return result, nil
}

func (uc *AuthUseCase) issueTokenPair(ctx context.Context, tx *sql.Tx, user *domain.User, userAgent, ip string) (*AuthResult, error) {
	access, err := uc.codec.GenerateAccessToken(user.ID, user.CompanyID, string(user.Role))
	if err != nil {
		return nil, apperr.Internal("minting access token", err)
	}
	refresh, err := uc.codec.GenerateRefreshToken(user.ID, user.CompanyID)
	if err != nil {
		return nil, apperr.Internal("minting refresh token", err)
	}

	refreshHash, err := hash.Hash(refresh)
	if err != nil {
		return nil, apperr.Internal("hashing refresh token", err)
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		CompanyID:        user.CompanyID,
		RefreshTokenHash: refreshHash,
		CreatedAt:        now,
		ExpiresAt:        now.Add(7 * 24 * time.Hour),
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ip != "" {
		session.IP = &ip
	}

	if err := uc.sessions.Create(ctx, tx, session); err != nil {
		return nil, apperr.Internal("creating session", err)
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates the presented refresh token, detecting reuse by
// argon2-verifying it against every live session for the claimed user
// (§4.6). A presented token with no matching session, while other live
// sessions exist, is treated as theft: every session for that user is
// revoked.
func (uc *AuthUseCase) Refresh(ctx context.Context, presentedToken, userAgent, ip string) (*AuthResult, error) {
	claims, err := uc.codec.Parse(presentedToken, jwt.TypeRefresh)
	if err != nil {
		return nil, apperr.Authentication("invalid or expired refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperr.Authentication("invalid refresh token subject")
	}

	live, err := uc.sessions.ListLiveForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("listing sessions", err)
	}

	var matched *domain.Session
	for _, s := range live {
		ok, err := hash.Verify(presentedToken, s.RefreshTokenHash)
		if err == nil && ok {
			matched = s
			break
		}
	}

	if matched == nil {
		if len(live) > 0 {
			if err := uc.sessions.RevokeAllForUser(ctx, userID); err != nil {
				return nil, apperr.Internal("revoking sessions after reuse detection", err)
			}
		}
		return nil, apperr.Authentication("refresh token reuse detected; all sessions revoked")
	}

	user, err := uc.users.GetByIDAnyCompany(ctx, userID)
	if err != nil {
		return nil, apperr.Authentication("user no longer exists")
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := uc.sessions.Revoke(ctx, matched.ID); err != nil {
		return nil, apperr.Internal("revoking rotated session", err)
	}

	result, err := uc.issueTokenPair(ctx, tx, user, userAgent, ip)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing refresh", err)
	}
	return result, nil
}

// Logout revokes the session matching the presented refresh token, if
// any; it never errors when no session matches (§4.6).
func (uc *AuthUseCase) Logout(ctx context.Context, presentedToken string) error {
	claims, err := uc.codec.Parse(presentedToken, jwt.TypeRefresh)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	live, err := uc.sessions.ListLiveForUser(ctx, userID)
	if err != nil {
		return apperr.Internal("listing sessions", err)
	}
	for _, s := range live {
		if ok, _ := hash.Verify(presentedToken, s.RefreshTokenHash); ok {
			return uc.sessions.Revoke(ctx, s.ID)
		}
	}
	return nil
}

// SendVerificationCode mints and emails a 6-digit code under the user row
// lock, enforcing the 60s cooldown and 5-attempt lockout (§4.6 step 1).
func (uc *AuthUseCase) SendVerificationCode(ctx context.Context, companyID, userID uuid.UUID) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	user, err := uc.users.GetForUpdate(ctx, tx, companyID, userID)
	if err != nil {
		return apperr.Internal("locking user", err)
	}

	now := uc.clock.Now()

	if user.LastVerificationSentAt != nil && now.Sub(*user.LastVerificationSentAt) < verificationResendCooldown {
		return apperr.RateLimit("please wait before requesting another code")
	}

	if user.VerificationAttempts >= maxVerificationAttempts {
		user.VerificationPinHash = nil
		user.VerificationExpiresAt = nil
		user.VerificationAttempts = 0
		if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
			return apperr.Internal("clearing verification state", err)
		}
		if err := tx.Commit(); err != nil {
			return apperr.Internal("committing verification reset", err)
		}
		return apperr.RateLimit("too many verification attempts; request a new code")
	}

	code, err := generateOTP()
	if err != nil {
		return apperr.Internal("generating verification code", err)
	}
	codeHash, err := hash.Hash(code)
	if err != nil {
		return apperr.Internal("hashing verification code", err)
	}

	expires := now.Add(verificationPinExpiry)
	user.VerificationPinHash = &codeHash
	user.VerificationExpiresAt = &expires
	user.VerificationAttempts = 0
	user.LastVerificationSentAt = &now

	if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
		return apperr.Internal("saving verification code", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal("committing verification code", err)
	}

	if err := uc.sender.SendVerificationCode(ctx, user.Email, code); err != nil {
		uc.clearVerificationState(ctx, companyID, userID)
		return apperr.Internal("sending verification email", err)
	}

	return nil
}

func (uc *AuthUseCase) clearVerificationState(ctx context.Context, companyID, userID uuid.UUID) {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer tx.Rollback()

	user, err := uc.users.GetForUpdate(ctx, tx, companyID, userID)
	if err != nil {
		return
	}
	user.VerificationPinHash = nil
	user.VerificationExpiresAt = nil
	user.VerificationAttempts = 0
	if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
		return
	}
	_ = tx.Commit()
}

// VerifyEmail checks code against the stored hash; on match it sets
// email_verified and clears OTP state, on mismatch it increments the
// attempt counter and locks out at the max (§4.6 step 2).
func (uc *AuthUseCase) VerifyEmail(ctx context.Context, companyID, userID uuid.UUID, code string) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	user, err := uc.users.GetForUpdate(ctx, tx, companyID, userID)
	if err != nil {
		return apperr.Internal("locking user", err)
	}

	now := uc.clock.Now()

	if user.VerificationPinHash == nil {
		return apperr.Validation("no verification code pending", nil)
	}
	if user.VerificationExpiresAt == nil || user.VerificationExpiresAt.Before(now) {
		user.VerificationPinHash = nil
		user.VerificationExpiresAt = nil
		user.VerificationAttempts = 0
		if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
			return apperr.Internal("clearing expired code", err)
		}
		if err := tx.Commit(); err != nil {
			return apperr.Internal("committing expiry", err)
		}
		return apperr.Validation("verification code has expired", nil)
	}
	if user.VerificationAttempts >= maxVerificationAttempts {
		return apperr.RateLimit("too many attempts; request a new code")
	}

	ok, err := hash.Verify(code, *user.VerificationPinHash)
	if err != nil {
		return apperr.Internal("verifying code", err)
	}
	if !ok {
		user.VerificationAttempts++
		if user.VerificationAttempts >= maxVerificationAttempts {
			user.VerificationPinHash = nil
			user.VerificationExpiresAt = nil
		}
		if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
			return apperr.Internal("recording failed attempt", err)
		}
		if err := tx.Commit(); err != nil {
			return apperr.Internal("committing attempt", err)
		}
		return apperr.Validation("incorrect verification code", nil)
	}

	user.EmailVerified = true
	user.VerificationRequired = false
	user.LastVerifiedAt = &now
	user.VerificationPinHash = nil
	user.VerificationExpiresAt = nil
	user.VerificationAttempts = 0

	if err := uc.users.UpdateVerification(ctx, tx, user); err != nil {
		return apperr.Internal("saving verification", err)
	}
	return tx.Commit()
}

// ForgotPassword mirrors SendVerificationCode but on the password-reset
// columns, and masks user-not-found with a constant delay to avoid
// enumeration (§4.6).
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, companyID uuid.UUID, emailAddr string) error {
	user, err := uc.users.GetByEmail(ctx, companyID, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		time.Sleep(enumerationDelay)
		return nil
	}
	if err != nil {
		return apperr.Internal("looking up user", err)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	locked, err := uc.users.GetForUpdate(ctx, tx, companyID, user.ID)
	if err != nil {
		return apperr.Internal("locking user", err)
	}

	now := uc.clock.Now()

	if locked.LastPasswordResetSentAt != nil && now.Sub(*locked.LastPasswordResetSentAt) < passwordResetResendCooldown {
		return nil
	}
	if locked.PasswordResetAttempts >= maxPasswordResetAttempts {
		locked.PasswordResetOTPHash = nil
		locked.PasswordResetOTPExpiresAt = nil
		locked.PasswordResetAttempts = 0
		if err := uc.users.UpdatePasswordReset(ctx, tx, locked); err != nil {
			return apperr.Internal("clearing reset state", err)
		}
		return tx.Commit()
	}

	code, err := generateOTP()
	if err != nil {
		return apperr.Internal("generating reset code", err)
	}
	codeHash, err := hash.Hash(code)
	if err != nil {
		return apperr.Internal("hashing reset code", err)
	}

	expires := now.Add(passwordResetOTPExpiry)
	locked.PasswordResetOTPHash = &codeHash
	locked.PasswordResetOTPExpiresAt = &expires
	locked.PasswordResetAttempts = 0
	locked.LastPasswordResetSentAt = &now

	if err := uc.users.UpdatePasswordReset(ctx, tx, locked); err != nil {
		return apperr.Internal("saving reset code", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal("committing reset code", err)
	}

	if err := uc.sender.SendPasswordResetCode(ctx, locked.Email, code); err != nil {
		uc.clearPasswordResetState(ctx, companyID, locked.ID)
	}

	return nil
}

func (uc *AuthUseCase) clearPasswordResetState(ctx context.Context, companyID, userID uuid.UUID) {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer tx.Rollback()

	user, err := uc.users.GetForUpdate(ctx, tx, companyID, userID)
	if err != nil {
		return
	}
	user.PasswordResetOTPHash = nil
	user.PasswordResetOTPExpiresAt = nil
	if err := uc.users.UpdatePasswordReset(ctx, tx, user); err != nil {
		return
	}
	_ = tx.Commit()
}

// ResetPassword verifies the OTP and overwrites password_hash (§4.6).
func (uc *AuthUseCase) ResetPassword(ctx context.Context, companyID uuid.UUID, emailAddr, code, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := uc.users.GetByEmail(ctx, companyID, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Validation("invalid email or verification code", nil)
	}
	if err != nil {
		return apperr.Internal("looking up user", err)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	locked, err := uc.users.GetForUpdate(ctx, tx, companyID, user.ID)
	if err != nil {
		return apperr.Internal("locking user", err)
	}

	now := uc.clock.Now()

	if locked.PasswordResetOTPHash == nil {
		return apperr.Validation("invalid email or verification code", nil)
	}
	if locked.PasswordResetOTPExpiresAt == nil || locked.PasswordResetOTPExpiresAt.Before(now) {
		locked.PasswordResetOTPHash = nil
		locked.PasswordResetOTPExpiresAt = nil
		locked.PasswordResetAttempts = 0
		if err := uc.users.UpdatePasswordReset(ctx, tx, locked); err != nil {
			return apperr.Internal("clearing expired code", err)
		}
		if err := tx.Commit(); err != nil {
			return apperr.Internal("committing expiry", err)
		}
		return apperr.Validation("verification code has expired", nil)
	}
	if locked.PasswordResetAttempts >= maxPasswordResetAttempts {
		return apperr.RateLimit("too many attempts; request a new code")
	}

	ok, err := hash.Verify(code, *locked.PasswordResetOTPHash)
	if err != nil {
		return apperr.Internal("verifying code", err)
	}
	if !ok {
		locked.PasswordResetAttempts++
		if err := uc.users.UpdatePasswordReset(ctx, tx, locked); err != nil {
			return apperr.Internal("recording failed attempt", err)
		}
		if err := tx.Commit(); err != nil {
			return apperr.Internal("committing attempt", err)
		}
		return apperr.Validation("invalid email or verification code", nil)
	}

	newHash, err := hash.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hashing new password", err)
	}
	if err := uc.users.UpdatePassword(ctx, tx, locked.ID, newHash); err != nil {
		return apperr.Internal("saving new password", err)
	}

	locked.PasswordResetOTPHash = nil
	locked.PasswordResetOTPExpiresAt = nil
	locked.PasswordResetAttempts = 0
	if err := uc.users.UpdatePasswordReset(ctx, tx, locked); err != nil {
		return apperr.Internal("clearing reset state", err)
	}

	if err := uc.sessions.RevokeAllForUser(ctx, locked.ID); err != nil {
		return apperr.Internal("revoking sessions after password reset", err)
	}

	return tx.Commit()
}

// SetPasswordFromInvitation redeems a password_setup token minted at
// employee-creation time, letting a new hire set their own password
// without an admin ever seeing it (§4.6, §9).
func (uc *AuthUseCase) SetPasswordFromInvitation(ctx context.Context, setupToken, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	claims, err := uc.codec.Parse(setupToken, jwt.TypePasswordSetup)
	if err != nil {
		return apperr.Authentication("invalid or expired invitation link")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperr.Authentication("invalid invitation link")
	}

	newHash, err := hash.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hashing password", err)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := uc.users.UpdatePassword(ctx, tx, userID, newHash); err != nil {
		return apperr.Internal("saving password", err)
	}
	return tx.Commit()
}
