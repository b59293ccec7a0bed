package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

type ShiftRepository struct {
	db *sql.DB
}

func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `
	id, company_id, employee_id, shift_date, start_time, end_time, break_minutes,
	status, notes, job_role, template_id, series_id, requires_approval,
	approved_by, approved_at, created_at, updated_at
`

func scanShift(row interface{ Scan(...interface{}) error }) (*domain.Shift, error) {
	var s domain.Shift
	var notes, jobRole sql.NullString
	var templateID, seriesID, approvedBy uuid.NullUUID
	var approvedAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.ShiftDate, &s.StartTime, &s.EndTime, &s.BreakMinutes,
		&s.Status, &notes, &jobRole, &templateID, &seriesID, &s.RequiresApproval,
		&approvedBy, &approvedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		s.Notes = &notes.String
	}
	if jobRole.Valid {
		s.JobRole = &jobRole.String
	}
	if templateID.Valid {
		id := templateID.UUID
		s.TemplateID = &id
	}
	if seriesID.Valid {
		id := seriesID.UUID
		s.SeriesID = &id
	}
	if approvedBy.Valid {
		id := approvedBy.UUID
		s.ApprovedBy = &id
	}
	if approvedAt.Valid {
		s.ApprovedAt = &approvedAt.Time
	}

	return &s, nil
}

func (r *ShiftRepository) Create(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, s *domain.Shift) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO shifts (
			id, company_id, employee_id, shift_date, start_time, end_time, break_minutes,
			status, notes, job_role, template_id, series_id, requires_approval,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
	`, s.ID, s.CompanyID, s.EmployeeID, s.ShiftDate, s.StartTime, s.EndTime, s.BreakMinutes,
		s.Status, s.Notes, s.JobRole, s.TemplateID, s.SeriesID, s.RequiresApproval)
	return err
}

func (r *ShiftRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Shift, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	s, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListOverlapCandidates widens the window by one day on each side (shifts
// may cross midnight) and returns every non-cancelled shift for the
// employee in that window; callers run the exact overlap predicate in Go
// against this candidate set (§4.5).
func (r *ShiftRepository) ListOverlapCandidates(ctx context.Context, companyID, employeeID uuid.UUID, date time.Time) ([]*domain.Shift, error) {
	from := date.AddDate(0, 0, -1)
	to := date.AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE company_id = $1 AND employee_id = $2 AND shift_date BETWEEN $3 AND $4
		  AND status != 'CANCELLED'
	`, companyID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByDateRange widens the fetch by one day on each side, mirroring
// ListOverlapCandidates: a shift dated the day before from can still cross
// midnight into the requested window. Callers re-filter the widened set
// against the exact [from, to] interval (§4.5).
func (r *ShiftRepository) ListByDateRange(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]*domain.Shift, error) {
	widenedFrom := from.AddDate(0, 0, -1)
	widenedTo := to.AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE company_id = $1 AND shift_date BETWEEN $2 AND $3
		ORDER BY shift_date ASC, start_time ASC
	`, companyID, widenedFrom, widenedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ShiftRepository) Update(ctx context.Context, s *domain.Shift) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE shifts SET
			shift_date = $1, start_time = $2, end_time = $3, break_minutes = $4,
			status = $5, notes = $6, job_role = $7, requires_approval = $8,
			approved_by = $9, approved_at = $10, updated_at = now()
		WHERE id = $11
	`, s.ShiftDate, s.StartTime, s.EndTime, s.BreakMinutes, s.Status, s.Notes, s.JobRole,
		s.RequiresApproval, s.ApprovedBy, s.ApprovedAt, s.ID)
	return err
}

func (r *ShiftRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	return err
}

// CreateBulk inserts shifts within a single transaction, used by bulk-week
// generation (§4.5); callers pre-resolve the conflict policy before
// calling this, so every row here is intended to land.
func (r *ShiftRepository) CreateBulk(ctx context.Context, tx *sql.Tx, shifts []*domain.Shift) error {
	for _, s := range shifts {
		if err := r.Create(ctx, tx, s); err != nil {
			return err
		}
	}
	return nil
}

type ShiftTemplateRepository struct {
	db *sql.DB
}

func NewShiftTemplateRepository(db *sql.DB) *ShiftTemplateRepository {
	return &ShiftTemplateRepository{db: db}
}

const shiftTemplateColumns = `
	id, company_id, template_type, day_of_week, day_of_month, week_of_month,
	start_date, end_date, start_time, end_time, break_minutes,
	employee_id, department, job_role, is_active, created_at, updated_at
`

func scanShiftTemplate(row interface{ Scan(...interface{}) error }) (*domain.ShiftTemplate, error) {
	var t domain.ShiftTemplate
	var dayOfWeek, dayOfMonth, weekOfMonth sql.NullInt64
	var endDate sql.NullTime
	var employeeID uuid.NullUUID
	var department, jobRole sql.NullString

	err := row.Scan(
		&t.ID, &t.CompanyID, &t.TemplateType, &dayOfWeek, &dayOfMonth, &weekOfMonth,
		&t.StartDate, &endDate, &t.StartTime, &t.EndTime, &t.BreakMinutes,
		&employeeID, &department, &jobRole, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dayOfWeek.Valid {
		v := int(dayOfWeek.Int64)
		t.DayOfWeek = &v
	}
	if dayOfMonth.Valid {
		v := int(dayOfMonth.Int64)
		t.DayOfMonth = &v
	}
	if weekOfMonth.Valid {
		v := int(weekOfMonth.Int64)
		t.WeekOfMonth = &v
	}
	if endDate.Valid {
		t.EndDate = &endDate.Time
	}
	if employeeID.Valid {
		id := employeeID.UUID
		t.EmployeeID = &id
	}
	if department.Valid {
		t.Department = &department.String
	}
	if jobRole.Valid {
		t.JobRole = &jobRole.String
	}

	return &t, nil
}

func (r *ShiftTemplateRepository) Create(ctx context.Context, t *domain.ShiftTemplate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shift_templates (
			id, company_id, template_type, day_of_week, day_of_month, week_of_month,
			start_date, end_date, start_time, end_time, break_minutes,
			employee_id, department, job_role, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now(), now())
	`, t.ID, t.CompanyID, t.TemplateType, t.DayOfWeek, t.DayOfMonth, t.WeekOfMonth,
		t.StartDate, t.EndDate, t.StartTime, t.EndTime, t.BreakMinutes,
		t.EmployeeID, t.Department, t.JobRole, t.IsActive)
	return err
}

func (r *ShiftTemplateRepository) ListActive(ctx context.Context, companyID uuid.UUID) ([]*domain.ShiftTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shiftTemplateColumns+` FROM shift_templates WHERE company_id = $1 AND is_active`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ShiftTemplate
	for rows.Next() {
		t, err := scanShiftTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ShiftTemplateRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.ShiftTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+shiftTemplateColumns+` FROM shift_templates WHERE id = $1 AND company_id = $2`, id, companyID)
	t, err := scanShiftTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ShiftTemplateRepository) Deactivate(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE shift_templates SET is_active = false, updated_at = now() WHERE id = $1 AND company_id = $2`, id, companyID)
	return err
}
