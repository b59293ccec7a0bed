package usecase

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/pkg/clock"
	"shiftledger/internal/pkg/hash"
	"shiftledger/internal/repository"
)

// PunchUseCase is the state machine of §4.2: it coordinates TimeEntry and
// CashDrawerSession rows under a single row lock so concurrent punch
// attempts for the same employee run one after the other and at most one
// open entry exists. A punch toggles: of two concurrent punches from Idle,
// the first opens an entry and the second closes it; neither errors on
// that account. Grounded on the original system's time.py endpoint (role
// allowlist, verification gate) and time_entry_service.py /
// cash_drawer_service.py for the one-transaction open/close coupling.
type PunchUseCase struct {
	db          *sql.DB
	users       *repository.UserRepository
	companies   *repository.CompanyRepository
	timeEntries *repository.TimeEntryRepository
	cashDrawers *repository.CashDrawerRepository
	audit       *repository.AuditLogRepository
	clock       clock.Clock
}

func NewPunchUseCase(
	db *sql.DB,
	users *repository.UserRepository,
	companies *repository.CompanyRepository,
	timeEntries *repository.TimeEntryRepository,
	cashDrawers *repository.CashDrawerRepository,
	audit *repository.AuditLogRepository,
	clk clock.Clock,
) *PunchUseCase {
	return &PunchUseCase{
		db:          db,
		users:       users,
		companies:   companies,
		timeEntries: timeEntries,
		cashDrawers: cashDrawers,
		audit:       audit,
		clock:       clk,
	}
}

// PunchRequest carries every input the three adapters (punch, punch-by-pin,
// punch-me) funnel through.
type PunchRequest struct {
	CompanyID  uuid.UUID
	EmployeeID uuid.UUID
	PIN        string // required only for kiosk PIN resolution
	Source     domain.TimeEntrySource

	CashStartCents     *int
	CashEndCents       *int
	CollectedCashCents *int
	DropAmountCents    *int
	BeveragesCashCents *int

	Meta domain.PunchMetadata
}

type PunchResult struct {
	Entry      *domain.TimeEntry
	CashDrawer *domain.CashDrawerSession
	Opened     bool // true if this call opened a shift, false if it closed one
}

// ResolveByPIN scopes a PIN lookup to the company resolved from a kiosk
// slug, the only resolution path where the actor isn't already
// authenticated (§4.2 "Resolution rules").
func (uc *PunchUseCase) ResolveByPIN(ctx context.Context, companyID uuid.UUID, pin string) (*domain.User, error) {
	if len(pin) != 4 {
		return nil, apperr.Validation("PIN must be 4 digits", map[string]string{"pin": "must be exactly 4 digits"})
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return nil, apperr.Validation("PIN must be 4 digits", map[string]string{"pin": "must be numeric"})
		}
	}

	candidates, err := uc.users.ListActivePunchablePins(ctx, companyID)
	if err != nil {
		return nil, apperr.Internal("listing punchable users", err)
	}
	for _, u := range candidates {
		if u.PinHash == nil {
			continue
		}
		ok, err := hash.Verify(pin, *u.PinHash)
		if err == nil && ok {
			return u, nil
		}
	}
	return nil, apperr.Authentication("no user matches that PIN")
}

// ResolveByEmail resolves the punch-eligible employee owning email, with no
// company context from the caller (§4.2 "by email within company" — the
// original `/punch` endpoint this grounds on, time.py:100-169, discovers
// the company from the email match itself). The PIN is still required and
// verified, exactly as the PIN-within-slug path does.
func (uc *PunchUseCase) ResolveByEmail(ctx context.Context, email, pin string) (*domain.User, error) {
	if len(pin) != 4 {
		return nil, apperr.Validation("PIN must be 4 digits", map[string]string{"pin": "must be exactly 4 digits"})
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return nil, apperr.Validation("PIN must be 4 digits", map[string]string{"pin": "must be numeric"})
		}
	}

	user, err := uc.users.GetByEmailAnyCompany(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("no active employee found with that email")
	}
	if err != nil {
		return nil, apperr.Internal("resolving employee by email", err)
	}
	if user.PinHash == nil {
		return nil, apperr.Authentication("no user matches that PIN")
	}
	ok, err := hash.Verify(pin, *user.PinHash)
	if err != nil || !ok {
		return nil, apperr.Authentication("no user matches that PIN")
	}
	return user, nil
}

// Punch is the single entry point for all three adapters: it determines
// whether the employee is Idle or Open and dispatches to clockIn/clockOut
// accordingly, all inside one transaction holding the user row lock.
func (uc *PunchUseCase) Punch(ctx context.Context, req PunchRequest) (*PunchResult, error) {
	user, err := uc.users.GetByID(ctx, req.CompanyID, req.EmployeeID)
	if err != nil {
		return nil, apperr.Authentication("no user matches that PIN")
	}
	if !user.IsPunchEligible() {
		return nil, apperr.Authentication("user is not eligible to punch")
	}
	if user.NeedsVerification(uc.clock.Now()) {
		return nil, apperr.VerificationRequired(user.Email)
	}

	company, err := uc.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, apperr.Internal("loading company", err)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	// Row-locks the user for the duration of the open-entry check and
	// subsequent mutation, preserving at-most-one-open-entry under
	// concurrent punch attempts (§4.2 "Concurrency").
	if _, err := uc.users.GetForUpdate(ctx, tx, req.CompanyID, req.EmployeeID); err != nil {
		return nil, apperr.Internal("locking user", err)
	}

	open, err := uc.timeEntries.GetOpenForUpdate(ctx, tx, req.CompanyID, req.EmployeeID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("checking open entry", err)
	}

	var result *PunchResult
	if errors.Is(err, repository.ErrNotFound) {
		result, err = uc.clockIn(ctx, tx, company, user, req)
	} else {
		result, err = uc.clockOut(ctx, tx, company, open, req)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing punch", err)
	}
	return result, nil
}

func cashDrawerRequired(company *domain.Company, user *domain.User) bool {
	if !company.Settings.CashDrawerEnabled {
		return false
	}
	if company.Settings.CashDrawerRequiredForAll {
		return true
	}
	for _, role := range company.Settings.CashDrawerRequiredRoles {
		if domain.Role(role) == domain.NormalizeRole(user.Role) {
			return true
		}
	}
	return false
}

func (uc *PunchUseCase) clockIn(ctx context.Context, tx *sql.Tx, company *domain.Company, user *domain.User, req PunchRequest) (*PunchResult, error) {
	requiresCash := cashDrawerRequired(company, user)
	if requiresCash && (req.CashStartCents == nil || *req.CashStartCents < 0) {
		return nil, apperr.Validation("starting cash count is required", map[string]string{"cash_start_cents": "required, must be >= 0"})
	}

	now := uc.clock.Now()
	entry := &domain.TimeEntry{
		ID:          uuid.New(),
		CompanyID:   req.CompanyID,
		EmployeeID:  req.EmployeeID,
		ClockInAt:   now,
		Source:      req.Source,
		Status:      domain.TimeEntryOpen,
		ClockInMeta: req.Meta,
	}
	if err := uc.timeEntries.Create(ctx, tx, entry); err != nil {
		return nil, apperr.Internal("creating time entry", err)
	}

	var session *domain.CashDrawerSession
	if requiresCash {
		source := domain.CashCountWeb
		if req.Source == domain.SourceKiosk {
			source = domain.CashCountKiosk
		}
		session = &domain.CashDrawerSession{
			ID:               uuid.New(),
			CompanyID:        req.CompanyID,
			TimeEntryID:      entry.ID,
			StartCashCents:   *req.CashStartCents,
			StartCountedAt:   now,
			StartCountSource: source,
			Status:           domain.CashDrawerOpen,
		}
		if err := uc.cashDrawers.Create(ctx, tx, session); err != nil {
			return nil, apperr.Internal("creating cash drawer session", err)
		}
		if err := uc.cashDrawers.InsertAudit(ctx, tx, &domain.CashDrawerAudit{
			ID:                  uuid.New(),
			CashDrawerSessionID: session.ID,
			Action:              domain.CashAuditCreateStart,
			ActorUserID:         &user.ID,
		}); err != nil {
			return nil, apperr.Internal("writing cash drawer audit", err)
		}
	}

	if err := uc.audit.Insert(ctx, tx, req.CompanyID, &user.ID, domain.AuditActionCashDrawerCreate, "time_entry", entry.ID, nil); err != nil {
		return nil, apperr.Internal("writing audit log", err)
	}

	return &PunchResult{Entry: entry, CashDrawer: session, Opened: true}, nil
}

func (uc *PunchUseCase) clockOut(ctx context.Context, tx *sql.Tx, company *domain.Company, open *domain.TimeEntry, req PunchRequest) (*PunchResult, error) {
	existingSession, err := uc.cashDrawers.GetByTimeEntryID(ctx, tx, open.ID)
	hasSession := !errors.Is(err, repository.ErrNotFound)
	if err != nil && hasSession {
		return nil, apperr.Internal("loading cash drawer session", err)
	}

	if hasSession && (req.CashEndCents == nil || *req.CashEndCents < 0) {
		return nil, apperr.Validation("ending cash count is required", map[string]string{"cash_end_cents": "required, must be >= 0"})
	}

	now := uc.clock.Now()
	if err := uc.timeEntries.Close(ctx, tx, open.ID, now, req.Meta); err != nil {
		return nil, apperr.Internal("closing time entry", err)
	}
	open.ClockOutAt = &now
	open.ClockOutMeta = req.Meta
	open.Status = domain.TimeEntryClosed

	if !hasSession {
		if err := uc.audit.Insert(ctx, tx, req.CompanyID, nil, domain.AuditActionCashDrawerClose, "time_entry", open.ID, nil); err != nil {
			return nil, apperr.Internal("writing audit log", err)
		}
		return &PunchResult{Entry: open, Opened: false}, nil
	}

	source := domain.CashCountWeb
	if req.Source == domain.SourceKiosk {
		source = domain.CashCountKiosk
	}
	status := domain.CashDrawerClosed
	delta := *req.CashEndCents - existingSession.StartCashCents
	if delta != 0 {
		status = domain.CashDrawerReviewNeeded
	}

	if err := uc.cashDrawers.Close(ctx, tx, existingSession.ID, *req.CashEndCents, now, source, status, req.CollectedCashCents, req.DropAmountCents, req.BeveragesCashCents); err != nil {
		return nil, apperr.Internal("closing cash drawer session", err)
	}
	existingSession.EndCashCents = req.CashEndCents
	existingSession.EndCountedAt = &now
	existingSession.EndCountSource = &source
	existingSession.Status = status
	existingSession.CollectedCents = req.CollectedCashCents
	existingSession.DropAmountCents = req.DropAmountCents
	existingSession.BeveragesCents = req.BeveragesCashCents

	if err := uc.cashDrawers.InsertAudit(ctx, tx, &domain.CashDrawerAudit{
		ID:                  uuid.New(),
		CashDrawerSessionID: existingSession.ID,
		Action:              domain.CashAuditSetEnd,
	}); err != nil {
		return nil, apperr.Internal("writing cash drawer audit", err)
	}
	if err := uc.audit.Insert(ctx, tx, req.CompanyID, nil, domain.AuditActionCashDrawerClose, "time_entry", open.ID, nil); err != nil {
		return nil, apperr.Internal("writing audit log", err)
	}

	return &PunchResult{Entry: open, CashDrawer: existingSession, Opened: false}, nil
}
