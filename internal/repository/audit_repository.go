package repository

import (
	"context"

	"github.com/finlend/origination-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, user_name, action, entity_type, entity_id, changes, timestamp)
		VALUES (:id, :user_id, :user_name, :action, :entity_type, :entity_id, :changes, :timestamp)
	`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}
