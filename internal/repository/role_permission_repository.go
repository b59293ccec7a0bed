package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

type RolePermissionRepository struct {
	db *sql.DB
}

func NewRolePermissionRepository(db *sql.DB) *RolePermissionRepository {
	return &RolePermissionRepository{db: db}
}

// HasPermission reports whether role has the named permission within
// companyID, falling back to the sentinel global-defaults row if no
// company-specific grant exists. Callers must bypass this entirely for
// ADMIN (a static grant per §9), rather than relying on a row here.
func (r *RolePermissionRepository) HasPermission(ctx context.Context, role domain.Role, companyID uuid.UUID, permissionKey string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role = $1
			  AND rp.company_id IN ($2, $3)
			  AND (p.category || '.' || p.verb) = $4
		)
	`
	var granted bool
	err := r.db.QueryRowContext(ctx, query, string(role), companyID, domain.SentinelCompanyID, permissionKey).Scan(&granted)
	if err != nil {
		return false, err
	}
	return granted, nil
}

func (r *RolePermissionRepository) GetPermissionByKey(ctx context.Context, key string) (*domain.Permission, error) {
	category, verb, ok := splitPermissionKey(key)
	if !ok {
		return nil, errors.New("repository: malformed permission key")
	}

	query := `SELECT id, category, verb FROM permissions WHERE category = $1 AND verb = $2`
	var p domain.Permission
	err := r.db.QueryRowContext(ctx, query, category, verb).Scan(&p.ID, &p.Category, &p.Verb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAll returns every registered permission, ordered by category and
// verb.
func (r *RolePermissionRepository) ListAll(ctx context.Context) ([]*domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, category, verb FROM permissions ORDER BY category, verb`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Category, &p.Verb); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CreatePermission inserts a new category.verb permission if it doesn't
// already exist.
func (r *RolePermissionRepository) CreatePermission(ctx context.Context, category, verb string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO permissions (id, category, verb) VALUES ($1, $2, $3)
		ON CONFLICT (category, verb) DO NOTHING
	`, id, category, verb)
	if err != nil {
		return uuid.Nil, err
	}
	existing, err := r.GetPermissionByKey(ctx, category+"."+verb)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	return id, nil
}

func (r *RolePermissionRepository) Grant(ctx context.Context, role domain.Role, permissionID, companyID uuid.UUID) error {
	query := `
		INSERT INTO role_permissions (id, role, permission_id, company_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, permission_id, company_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New(), string(role), permissionID, companyID)
	return err
}

func splitPermissionKey(key string) (category, verb string, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
