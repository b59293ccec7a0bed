package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

type LeaveRepository struct {
	db *sql.DB
}

func NewLeaveRepository(db *sql.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `
	id, company_id, employee_id, type, start_date, end_date, partial_day_hours,
	status, reviewed_by, review_comment, created_at, updated_at
`

func scanLeave(row interface{ Scan(...interface{}) error }) (*domain.LeaveRequest, error) {
	var l domain.LeaveRequest
	var partialHours sql.NullFloat64
	var reviewedBy uuid.NullUUID
	var reviewComment sql.NullString

	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Type, &l.StartDate, &l.EndDate, &partialHours,
		&l.Status, &reviewedBy, &reviewComment, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if partialHours.Valid {
		l.PartialDayHours = &partialHours.Float64
	}
	if reviewedBy.Valid {
		id := reviewedBy.UUID
		l.ReviewedBy = &id
	}
	if reviewComment.Valid {
		l.ReviewComment = &reviewComment.String
	}

	return &l, nil
}

func (r *LeaveRepository) Create(ctx context.Context, l *domain.LeaveRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leave_requests (
			id, company_id, employee_id, type, start_date, end_date, partial_day_hours,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
	`, l.ID, l.CompanyID, l.EmployeeID, l.Type, l.StartDate, l.EndDate, l.PartialDayHours, l.Status)
	return err
}

func (r *LeaveRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.LeaveRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 AND company_id = $2`, id, companyID)
	l, err := scanLeave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeaveRepository) ListForEmployee(ctx context.Context, companyID, employeeID uuid.UUID) ([]*domain.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE company_id = $1 AND employee_id = $2
		ORDER BY start_date DESC
	`, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeaveRepository) ListPending(ctx context.Context, companyID uuid.UUID) ([]*domain.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE company_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListApprovedOverlapping returns approved leave overlapping
// [periodStart, periodEnd] for an employee, used by payroll generation to
// record leave on the line item's details; leave adds no paid minutes
// (§4.4 supplement).
func (r *LeaveRepository) ListApprovedOverlapping(ctx context.Context, companyID, employeeID uuid.UUID, periodStart, periodEnd time.Time) ([]*domain.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE company_id = $1 AND employee_id = $2 AND status = 'approved'
		  AND start_date <= $4 AND end_date >= $3
		ORDER BY start_date ASC
	`, companyID, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeaveRepository) Review(ctx context.Context, id, reviewerID uuid.UUID, status domain.LeaveStatus, comment *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE leave_requests SET status = $1, reviewed_by = $2, review_comment = $3, updated_at = now()
		WHERE id = $4
	`, status, reviewerID, comment, id)
	return err
}

func (r *LeaveRepository) Cancel(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE leave_requests SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND company_id = $2
	`, id, companyID)
	return err
}
