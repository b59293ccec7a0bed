package usecase

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/repository"
)

// CashDrawerUseCase covers the admin-facing operations on cash drawer
// sessions (§4.3): listing ones flagged REVIEW_NEEDED, editing counts when a
// company allows it, and recording a manager's review decision.
type CashDrawerUseCase struct {
	db          *sql.DB
	cashDrawers *repository.CashDrawerRepository
	companies   *repository.CompanyRepository
	audit       *repository.AuditLogRepository
}

func NewCashDrawerUseCase(db *sql.DB, cashDrawers *repository.CashDrawerRepository, companies *repository.CompanyRepository, audit *repository.AuditLogRepository) *CashDrawerUseCase {
	return &CashDrawerUseCase{db: db, cashDrawers: cashDrawers, companies: companies, audit: audit}
}

func (uc *CashDrawerUseCase) ListNeedingReview(ctx context.Context, companyID uuid.UUID) ([]*domain.CashDrawerSession, error) {
	sessions, err := uc.cashDrawers.ListNeedingReview(ctx, companyID)
	if err != nil {
		return nil, apperr.Internal("listing cash drawer sessions", err)
	}
	return sessions, nil
}

// Get loads a single session by id; GetByID is transaction-scoped in the
// repository, so this wraps it in a short read-only transaction.
func (uc *CashDrawerUseCase) Get(ctx context.Context, companyID, sessionID uuid.UUID) (*domain.CashDrawerSession, error) {
	tx, err := uc.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	session, err := uc.cashDrawers.GetByID(ctx, tx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("cash drawer session not found")
	}
	if err != nil {
		return nil, apperr.Internal("loading cash drawer session", err)
	}
	if session.CompanyID != companyID {
		return nil, apperr.NotFound("cash drawer session not found")
	}
	return session, nil
}

// EditCounts lets an admin correct a start/end count after the fact. Gated
// on Settings.CashDrawerAllowEdit, since some companies want counts
// immutable once submitted (§6 company settings table).
func (uc *CashDrawerUseCase) EditCounts(ctx context.Context, companyID, sessionID, actorID uuid.UUID, startCashCents int, endCashCents *int, reason *string) (*domain.CashDrawerSession, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, apperr.Internal("loading company", err)
	}
	if !company.Settings.CashDrawerAllowEdit {
		return nil, apperr.Policy("cash drawer edits are disabled for this company")
	}
	if startCashCents < 0 || (endCashCents != nil && *endCashCents < 0) {
		return nil, apperr.Validation("cash counts must be >= 0", nil)
	}

	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	existing, err := uc.cashDrawers.GetByID(ctx, tx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("cash drawer session not found")
	}
	if err != nil {
		return nil, apperr.Internal("loading cash drawer session", err)
	}
	if existing.CompanyID != companyID {
		return nil, apperr.NotFound("cash drawer session not found")
	}

	// Recompute delta/status from the edited counts (§4.3): an edit that
	// zeroes out the variance must un-flag a REVIEW_NEEDED session, and one
	// that introduces a variance must flag a previously clean CLOSED one.
	finalEndCashCents := endCashCents
	if finalEndCashCents == nil {
		finalEndCashCents = existing.EndCashCents
	}
	status := existing.Status
	if finalEndCashCents == nil {
		status = domain.CashDrawerOpen
	} else if *finalEndCashCents-startCashCents != 0 {
		status = domain.CashDrawerReviewNeeded
	} else {
		status = domain.CashDrawerClosed
	}

	if err := uc.cashDrawers.UpdateCounts(ctx, tx, sessionID, startCashCents, endCashCents, status); err != nil {
		return nil, apperr.Internal("updating cash drawer counts", err)
	}

	startChanged := startCashCents != existing.StartCashCents
	endChanged := endCashCents != nil && (existing.EndCashCents == nil || *endCashCents != *existing.EndCashCents)
	if startChanged {
		if err := uc.cashDrawers.InsertAudit(ctx, tx, &domain.CashDrawerAudit{
			ID:                  uuid.New(),
			CashDrawerSessionID: sessionID,
			Action:              domain.CashAuditEditStart,
			ActorUserID:         &actorID,
			Reason:              reason,
		}); err != nil {
			return nil, apperr.Internal("writing cash drawer audit", err)
		}
	}
	if endChanged {
		if err := uc.cashDrawers.InsertAudit(ctx, tx, &domain.CashDrawerAudit{
			ID:                  uuid.New(),
			CashDrawerSessionID: sessionID,
			Action:              domain.CashAuditEditEnd,
			ActorUserID:         &actorID,
			Reason:              reason,
		}); err != nil {
			return nil, apperr.Internal("writing cash drawer audit", err)
		}
	}
	if err := uc.audit.Insert(ctx, tx, companyID, &actorID, domain.AuditActionCashDrawerEdit, "cash_drawer_session", sessionID, nil); err != nil {
		return nil, apperr.Internal("writing audit log", err)
	}

	session, err := uc.cashDrawers.GetByID(ctx, tx, sessionID)
	if err != nil {
		return nil, apperr.Internal("reloading cash drawer session", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("committing cash drawer edit", err)
	}
	return session, nil
}

// Review records a manager's sign-off on a REVIEW_NEEDED session, closing
// it out as CLOSED (the manager accepted the variance) while preserving the
// recorded delta for later audit.
func (uc *CashDrawerUseCase) Review(ctx context.Context, companyID, sessionID, reviewerID uuid.UUID, note *string) error {
	tx, err := uc.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := uc.cashDrawers.Review(ctx, tx, sessionID, reviewerID, note, domain.CashDrawerClosed); err != nil {
		return apperr.Internal("recording review", err)
	}
	if err := uc.cashDrawers.InsertAudit(ctx, tx, &domain.CashDrawerAudit{
		ID:                  uuid.New(),
		CashDrawerSessionID: sessionID,
		Action:              domain.CashAuditReview,
		ActorUserID:         &reviewerID,
		Reason:              note,
	}); err != nil {
		return apperr.Internal("writing cash drawer audit", err)
	}
	if err := uc.audit.Insert(ctx, tx, companyID, &reviewerID, domain.AuditActionCashDrawerReview, "cash_drawer_session", sessionID, nil); err != nil {
		return apperr.Internal("writing audit log", err)
	}

	return tx.Commit()
}
