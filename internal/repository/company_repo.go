package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, name, slug, kiosk_enabled, settings, created_at`

func scanCompany(row interface{ Scan(...interface{}) error }) (*domain.Company, error) {
	var c domain.Company
	var settingsRaw []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.KioskEnabled, &settingsRaw, &c.CreatedAt); err != nil {
		return nil, err
	}
	if len(settingsRaw) > 0 {
		if err := c.Settings.UnmarshalJSONB(settingsRaw); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetBySlug resolves the kiosk subdomain/slug used by the unauthenticated
// kiosk-login surface (§4.1).
func (r *CompanyRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE slug = $1`, slug)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, c *domain.Company) error {
	settingsRaw, err := c.Settings.MarshalJSONB()
	if err != nil {
		return err
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO companies (id, name, slug, kiosk_enabled, settings, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, c.ID, c.Name, c.Slug, c.KioskEnabled, settingsRaw)
	return err
}

func (r *CompanyRepository) UpdateSettings(ctx context.Context, id uuid.UUID, s domain.Settings) error {
	raw, err := s.MarshalJSONB()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE companies SET settings = $1 WHERE id = $2`, raw, id)
	return err
}

func (r *CompanyRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE companies SET name = $1 WHERE id = $2`, name, id)
	return err
}
