package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

// TimeEntryRepository generalizes the teacher's attendance_repo.go to
// UUID-keyed, company-scoped punches with clock-in/out metadata and the
// row-lock needed by the punch coordinator's at-most-one-open-shift
// invariant.
type TimeEntryRepository struct {
	db *sql.DB
}

func NewTimeEntryRepository(db *sql.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

const timeEntryColumns = `
	id, company_id, employee_id, clock_in_at, clock_out_at, break_minutes,
	source, status, note, edited_by, edit_reason, clock_in_meta, clock_out_meta,
	created_at, updated_at
`

func scanTimeEntry(row interface{ Scan(...interface{}) error }) (*domain.TimeEntry, error) {
	var t domain.TimeEntry
	var clockOutAt sql.NullTime
	var note, editReason sql.NullString
	var editedBy uuid.NullUUID
	var clockInMeta, clockOutMeta []byte

	err := row.Scan(
		&t.ID, &t.CompanyID, &t.EmployeeID, &t.ClockInAt, &clockOutAt, &t.BreakMinutes,
		&t.Source, &t.Status, &note, &editedBy, &editReason, &clockInMeta, &clockOutMeta,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clockOutAt.Valid {
		t.ClockOutAt = &clockOutAt.Time
	}
	if note.Valid {
		t.Note = &note.String
	}
	if editReason.Valid {
		t.EditReason = &editReason.String
	}
	if editedBy.Valid {
		id := editedBy.UUID
		t.EditedBy = &id
	}
	if len(clockInMeta) > 0 {
		if err := json.Unmarshal(clockInMeta, &t.ClockInMeta); err != nil {
			return nil, err
		}
	}
	if len(clockOutMeta) > 0 {
		if err := json.Unmarshal(clockOutMeta, &t.ClockOutMeta); err != nil {
			return nil, err
		}
	}

	return &t, nil
}

// GetOpenForUpdate locks and returns the employee's currently open entry,
// if any, within tx. Returns ErrNotFound when no entry is open. The caller
// must hold this lock for the whole clock-in/clock-out decision to
// preserve the at-most-one-open-shift invariant under concurrent punches.
func (r *TimeEntryRepository) GetOpenForUpdate(ctx context.Context, tx *sql.Tx, companyID, employeeID uuid.UUID) (*domain.TimeEntry, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries
		WHERE company_id = $1 AND employee_id = $2 AND clock_out_at IS NULL
		FOR UPDATE
	`, companyID, employeeID)
	t, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TimeEntryRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.TimeEntry) error {
	clockInMeta, err := json.Marshal(t.ClockInMeta)
	if err != nil {
		return err
	}
	clockOutMeta, err := json.Marshal(t.ClockOutMeta)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_entries (
			id, company_id, employee_id, clock_in_at, break_minutes, source, status,
			clock_in_meta, clock_out_meta, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
	`, t.ID, t.CompanyID, t.EmployeeID, t.ClockInAt, t.BreakMinutes, t.Source, t.Status, clockInMeta, clockOutMeta)
	return err
}

func (r *TimeEntryRepository) Close(ctx context.Context, tx *sql.Tx, id uuid.UUID, clockOutAt time.Time, clockOutMeta domain.PunchMetadata) error {
	metaRaw, err := json.Marshal(clockOutMeta)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE time_entries
		SET clock_out_at = $1, clock_out_meta = $2, status = 'closed', updated_at = now()
		WHERE id = $3
	`, clockOutAt, metaRaw, id)
	return err
}

func (r *TimeEntryRepository) Update(ctx context.Context, t *domain.TimeEntry) error {
	clockInMeta, err := json.Marshal(t.ClockInMeta)
	if err != nil {
		return err
	}
	clockOutMeta, err := json.Marshal(t.ClockOutMeta)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE time_entries SET
			clock_in_at = $1, clock_out_at = $2, break_minutes = $3, status = $4,
			note = $5, edited_by = $6, edit_reason = $7,
			clock_in_meta = $8, clock_out_meta = $9, updated_at = now()
		WHERE id = $10
	`, t.ClockInAt, t.ClockOutAt, t.BreakMinutes, t.Status, t.Note, t.EditedBy, t.EditReason,
		clockInMeta, clockOutMeta, t.ID)
	return err
}

// InsertManual creates a fully-formed entry outside the punch coordinator,
// used for backfilling forgotten punches (§4.4 "manual edit").
func (r *TimeEntryRepository) InsertManual(ctx context.Context, t *domain.TimeEntry) error {
	clockInMeta, err := json.Marshal(t.ClockInMeta)
	if err != nil {
		return err
	}
	clockOutMeta, err := json.Marshal(t.ClockOutMeta)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO time_entries (
			id, company_id, employee_id, clock_in_at, clock_out_at, break_minutes,
			source, status, note, edited_by, edit_reason, clock_in_meta, clock_out_meta,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
	`, t.ID, t.CompanyID, t.EmployeeID, t.ClockInAt, t.ClockOutAt, t.BreakMinutes,
		t.Source, t.Status, t.Note, t.EditedBy, t.EditReason, clockInMeta, clockOutMeta)
	return err
}

// Delete removes a time entry, scoped to company for tenant isolation.
func (r *TimeEntryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1 AND company_id = $2`, id, companyID)
	return err
}

func (r *TimeEntryRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.TimeEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1 AND company_id = $2`, id, companyID)
	t, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListForPayPeriod fetches all entries overlapping [periodStartUTC,
// periodEndUTC] for an employee — the open-ended overlap predicate from
// §4.4: clock_in_at <= end AND (clock_out_at IS NULL OR clock_out_at >= start).
func (r *TimeEntryRepository) ListForPayPeriod(ctx context.Context, companyID, employeeID uuid.UUID, periodStartUTC, periodEndUTC time.Time) ([]*domain.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries
		WHERE company_id = $1 AND employee_id = $2
		  AND clock_in_at <= $4
		  AND (clock_out_at IS NULL OR clock_out_at >= $3)
		ORDER BY clock_in_at ASC
	`, companyID, employeeID, periodStartUTC, periodEndUTC)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TimeEntry
	for rows.Next() {
		t, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByDateRange powers the timesheet/admin review screens over a local
// calendar-day window already converted to UTC by the caller (pkg/tz).
func (r *TimeEntryRepository) ListByDateRange(ctx context.Context, companyID uuid.UUID, startUTC, endUTC time.Time) ([]*domain.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries
		WHERE company_id = $1 AND clock_in_at >= $2 AND clock_in_at < $3
		ORDER BY clock_in_at ASC
	`, companyID, startUTC, endUTC)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TimeEntry
	for rows.Next() {
		t, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
