package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

// PayrollRepository generalizes the teacher's salary_repo.go to the
// DRAFT/FINALIZED/VOID run lifecycle and its line items.
type PayrollRepository struct {
	db *sql.DB
}

func NewPayrollRepository(db *sql.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

const payrollRunColumns = `
	id, company_id, payroll_type, period_start_date, period_end_date, timezone, status,
	generated_by, generated_at, total_regular_hours, total_overtime_hours, total_gross_pay_cents,
	finalized_by, finalized_at, finalize_note, voided_by, voided_at, void_reason,
	created_at, updated_at
`

func scanPayrollRun(row interface{ Scan(...interface{}) error }) (*domain.PayrollRun, error) {
	var p domain.PayrollRun
	var finalizedBy, voidedBy uuid.NullUUID
	var finalizedAt, voidedAt sql.NullTime
	var finalizeNote, voidReason sql.NullString

	err := row.Scan(
		&p.ID, &p.CompanyID, &p.PayrollType, &p.PeriodStartDate, &p.PeriodEndDate, &p.Timezone, &p.Status,
		&p.GeneratedBy, &p.GeneratedAt, &p.TotalRegularHours, &p.TotalOvertimeHours, &p.TotalGrossPayCents,
		&finalizedBy, &finalizedAt, &finalizeNote, &voidedBy, &voidedAt, &voidReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if finalizedBy.Valid {
		id := finalizedBy.UUID
		p.FinalizedBy = &id
	}
	if finalizedAt.Valid {
		p.FinalizedAt = &finalizedAt.Time
	}
	if finalizeNote.Valid {
		p.FinalizeNote = &finalizeNote.String
	}
	if voidedBy.Valid {
		id := voidedBy.UUID
		p.VoidedBy = &id
	}
	if voidedAt.Valid {
		p.VoidedAt = &voidedAt.Time
	}
	if voidReason.Valid {
		p.VoidReason = &voidReason.String
	}

	return &p, nil
}

func (r *PayrollRepository) CreateRun(ctx context.Context, tx *sql.Tx, p *domain.PayrollRun) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payroll_runs (
			id, company_id, payroll_type, period_start_date, period_end_date, timezone, status,
			generated_by, generated_at, total_regular_hours, total_overtime_hours, total_gross_pay_cents,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
	`, p.ID, p.CompanyID, p.PayrollType, p.PeriodStartDate, p.PeriodEndDate, p.Timezone, p.Status,
		p.GeneratedBy, p.GeneratedAt, p.TotalRegularHours, p.TotalOvertimeHours, p.TotalGrossPayCents)
	return err
}

func (r *PayrollRepository) GetRunByID(ctx context.Context, companyID, id uuid.UUID) (*domain.PayrollRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+payrollRunColumns+` FROM payroll_runs WHERE id = $1 AND company_id = $2`, id, companyID)
	p, err := scanPayrollRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetRunForUpdate locks the run row; callers use this before any
// finalize/void transition to prevent a concurrent transition racing.
func (r *PayrollRepository) GetRunForUpdate(ctx context.Context, tx *sql.Tx, companyID, id uuid.UUID) (*domain.PayrollRun, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+payrollRunColumns+` FROM payroll_runs WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
	p, err := scanPayrollRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ExistsOverlapping reports whether a non-void run already covers any part
// of [start, end] for payrollType, the idempotent-generation guard from
// §4.4.
func (r *PayrollRepository) ExistsOverlapping(ctx context.Context, companyID uuid.UUID, payrollType domain.PayrollType, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payroll_runs
			WHERE company_id = $1 AND payroll_type = $2 AND status != 'VOID'
			  AND period_start_date <= $4 AND period_end_date >= $3
		)
	`, companyID, payrollType, start, end).Scan(&exists)
	return exists, err
}

func (r *PayrollRepository) ListRuns(ctx context.Context, companyID uuid.UUID) ([]*domain.PayrollRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+payrollRunColumns+` FROM payroll_runs WHERE company_id = $1 ORDER BY period_start_date DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PayrollRun
	for rows.Next() {
		p, err := scanPayrollRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PayrollRepository) Finalize(ctx context.Context, tx *sql.Tx, id, finalizedBy uuid.UUID, note *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payroll_runs SET status = 'FINALIZED', finalized_by = $1, finalized_at = now(), finalize_note = $2, updated_at = now()
		WHERE id = $3
	`, finalizedBy, note, id)
	return err
}

func (r *PayrollRepository) Void(ctx context.Context, tx *sql.Tx, id, voidedBy uuid.UUID, reason *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payroll_runs SET status = 'VOID', voided_by = $1, voided_at = now(), void_reason = $2, updated_at = now()
		WHERE id = $3
	`, voidedBy, reason, id)
	return err
}

func (r *PayrollRepository) DeleteRun(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM payroll_line_items WHERE payroll_run_id = $1`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM payroll_runs WHERE id = $1`, id)
	return err
}

const payrollLineItemColumns = `
	id, payroll_run_id, employee_id, regular_minutes, overtime_minutes, total_minutes,
	pay_rate_cents, overtime_multiplier, regular_pay_cents, overtime_pay_cents, total_pay_cents,
	exceptions_count, details_json, created_at
`

func scanPayrollLineItem(row interface{ Scan(...interface{}) error }) (*domain.PayrollLineItem, error) {
	var l domain.PayrollLineItem
	var details []byte
	err := row.Scan(
		&l.ID, &l.PayrollRunID, &l.EmployeeID, &l.RegularMinutes, &l.OvertimeMinutes, &l.TotalMinutes,
		&l.PayRateCentsSnapshot, &l.OvertimeMultiplierSnapshot, &l.RegularPayCents, &l.OvertimePayCents, &l.TotalPayCents,
		&l.ExceptionsCount, &details, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.DetailsJSON = details
	return &l, nil
}

func (r *PayrollRepository) CreateLineItem(ctx context.Context, tx *sql.Tx, l *domain.PayrollLineItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payroll_line_items (
			id, payroll_run_id, employee_id, regular_minutes, overtime_minutes, total_minutes,
			pay_rate_cents, overtime_multiplier, regular_pay_cents, overtime_pay_cents, total_pay_cents,
			exceptions_count, details_json, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now())
	`, l.ID, l.PayrollRunID, l.EmployeeID, l.RegularMinutes, l.OvertimeMinutes, l.TotalMinutes,
		l.PayRateCentsSnapshot, l.OvertimeMultiplierSnapshot, l.RegularPayCents, l.OvertimePayCents, l.TotalPayCents,
		l.ExceptionsCount, []byte(l.DetailsJSON))
	return err
}

func (r *PayrollRepository) ListLineItems(ctx context.Context, payrollRunID uuid.UUID) ([]*domain.PayrollLineItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+payrollLineItemColumns+` FROM payroll_line_items WHERE payroll_run_id = $1`, payrollRunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PayrollLineItem
	for rows.Next() {
		l, err := scanPayrollLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListLineItemsForEmployee powers the employee-facing "my payroll" view:
// every finalized line item for one employee, newest run first.
func (r *PayrollRepository) ListLineItemsForEmployee(ctx context.Context, companyID, employeeID uuid.UUID) ([]*domain.PayrollLineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT li.id, li.payroll_run_id, li.employee_id, li.regular_minutes, li.overtime_minutes, li.total_minutes,
			li.pay_rate_cents, li.overtime_multiplier, li.regular_pay_cents, li.overtime_pay_cents, li.total_pay_cents,
			li.exceptions_count, li.details_json, li.created_at
		FROM payroll_line_items li
		JOIN payroll_runs pr ON pr.id = li.payroll_run_id
		WHERE pr.company_id = $1 AND li.employee_id = $2 AND pr.status = 'FINALIZED'
		ORDER BY pr.period_start_date DESC
	`, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PayrollLineItem
	for rows.Next() {
		l, err := scanPayrollLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
