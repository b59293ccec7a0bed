package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

// CashDrawerRepository has no teacher analogue; its mutation sequence is
// grounded on the cash-count endpoints described in §4.3/§9 (drawer session
// opens/closes transactionally alongside the sibling TimeEntry).
type CashDrawerRepository struct {
	db *sql.DB
}

func NewCashDrawerRepository(db *sql.DB) *CashDrawerRepository {
	return &CashDrawerRepository{db: db}
}

const cashDrawerColumns = `
	id, company_id, time_entry_id, start_cash_cents, start_counted_at, start_count_source,
	end_cash_cents, end_counted_at, end_count_source, collected_cash_cents, drop_amount_cents,
	beverages_cash_cents, status, reviewed_by, reviewed_at, review_note, created_at, updated_at
`

func scanCashDrawer(row interface{ Scan(...interface{}) error }) (*domain.CashDrawerSession, error) {
	var c domain.CashDrawerSession
	var endCash, collected, drop, beverages sql.NullInt64
	var endCountedAt, reviewedAt sql.NullTime
	var endSource, reviewNote sql.NullString
	var reviewedBy uuid.NullUUID

	err := row.Scan(
		&c.ID, &c.CompanyID, &c.TimeEntryID, &c.StartCashCents, &c.StartCountedAt, &c.StartCountSource,
		&endCash, &endCountedAt, &endSource, &collected, &drop, &beverages,
		&c.Status, &reviewedBy, &reviewedAt, &reviewNote, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endCash.Valid {
		v := int(endCash.Int64)
		c.EndCashCents = &v
	}
	if endCountedAt.Valid {
		c.EndCountedAt = &endCountedAt.Time
	}
	if endSource.Valid {
		v := domain.CashCountSource(endSource.String)
		c.EndCountSource = &v
	}
	if collected.Valid {
		v := int(collected.Int64)
		c.CollectedCents = &v
	}
	if drop.Valid {
		v := int(drop.Int64)
		c.DropAmountCents = &v
	}
	if beverages.Valid {
		v := int(beverages.Int64)
		c.BeveragesCents = &v
	}
	if reviewedBy.Valid {
		id := reviewedBy.UUID
		c.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if reviewNote.Valid {
		c.ReviewNote = &reviewNote.String
	}

	return &c, nil
}

func (r *CashDrawerRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.CashDrawerSession) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cash_drawer_sessions (
			id, company_id, time_entry_id, start_cash_cents, start_counted_at, start_count_source,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
	`, c.ID, c.CompanyID, c.TimeEntryID, c.StartCashCents, c.StartCountedAt, c.StartCountSource, c.Status)
	return err
}

func (r *CashDrawerRepository) GetByID(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CashDrawerSession, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+cashDrawerColumns+` FROM cash_drawer_sessions WHERE id = $1`, id)
	c, err := scanCashDrawer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CashDrawerRepository) GetByTimeEntryID(ctx context.Context, tx *sql.Tx, timeEntryID uuid.UUID) (*domain.CashDrawerSession, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+cashDrawerColumns+` FROM cash_drawer_sessions WHERE time_entry_id = $1`, timeEntryID)
	c, err := scanCashDrawer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CashDrawerRepository) Close(ctx context.Context, tx *sql.Tx, id uuid.UUID, endCashCents int, endCountedAt time.Time, endSource domain.CashCountSource, status domain.CashDrawerStatus, collectedCents, dropAmountCents, beveragesCents *int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cash_drawer_sessions
		SET end_cash_cents = $1, end_counted_at = $2, end_count_source = $3, status = $4,
		    collected_cash_cents = $5, drop_amount_cents = $6, beverages_cash_cents = $7, updated_at = now()
		WHERE id = $8
	`, endCashCents, endCountedAt, endSource, status, collectedCents, dropAmountCents, beveragesCents, id)
	return err
}

func (r *CashDrawerRepository) UpdateCounts(ctx context.Context, tx *sql.Tx, id uuid.UUID, startCashCents int, endCashCents *int, status domain.CashDrawerStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cash_drawer_sessions SET start_cash_cents = $1, end_cash_cents = $2, status = $3, updated_at = now()
		WHERE id = $4
	`, startCashCents, endCashCents, status, id)
	return err
}

func (r *CashDrawerRepository) Review(ctx context.Context, tx *sql.Tx, id, reviewerID uuid.UUID, note *string, status domain.CashDrawerStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cash_drawer_sessions
		SET reviewed_by = $1, reviewed_at = now(), review_note = $2, status = $3, updated_at = now()
		WHERE id = $4
	`, reviewerID, note, status, id)
	return err
}

func (r *CashDrawerRepository) ListNeedingReview(ctx context.Context, companyID uuid.UUID) ([]*domain.CashDrawerSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cashDrawerColumns+` FROM cash_drawer_sessions
		WHERE company_id = $1 AND status = 'REVIEW_NEEDED'
		ORDER BY created_at ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CashDrawerSession
	for rows.Next() {
		c, err := scanCashDrawer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertAudit appends an immutable audit row within tx, mirroring the
// same-transaction discipline used for AuditLogRepository.Insert.
func (r *CashDrawerRepository) InsertAudit(ctx context.Context, tx *sql.Tx, a *domain.CashDrawerAudit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cash_drawer_audits (
			id, cash_drawer_session_id, action, actor_user_id, old_values, new_values, reason, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7, now())
	`, a.ID, a.CashDrawerSessionID, a.Action, a.ActorUserID, []byte(a.OldValues), []byte(a.NewValues), a.Reason)
	return err
}
