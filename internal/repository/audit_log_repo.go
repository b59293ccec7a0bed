package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"shiftledger/internal/domain"
)

// AuditLogRepository writes audit rows. Insert takes the caller's *sql.Tx
// directly so the audit row commits atomically with the mutation it
// describes, rather than the buffered/async approach the teacher used for
// its request-logging audit trail (see DESIGN.md).
type AuditLogRepository struct{}

func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{}
}

func (r *AuditLogRepository) Insert(ctx context.Context, tx *sql.Tx, companyID uuid.UUID, actorUserID *uuid.UUID, action, entityType string, entityID uuid.UUID, metadata interface{}) error {
	var raw []byte
	if metadata != nil {
		var err error
		raw, err = json.Marshal(metadata)
		if err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, company_id, actor_user_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, uuid.New(), companyID, actorUserID, action, entityType, entityID, raw)
	return err
}

// List returns the most recent audit rows for a company, newest first,
// used by admin review screens (§4.3's cash-drawer review list reads from
// this alongside the cash_drawer_audits table).
func (r *AuditLogRepository) List(ctx context.Context, db *sql.DB, companyID uuid.UUID, limit int) ([]*domain.AuditLog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, company_id, actor_user_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_logs
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		var actor uuid.NullUUID
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.CompanyID, &actor, &a.Action, &a.EntityType, &a.EntityID, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			id := actor.UUID
			a.ActorUserID = &id
		}
		if len(metadata) > 0 {
			a.Metadata = json.RawMessage(metadata)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
