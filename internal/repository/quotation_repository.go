package repository

import (
	"context"
	"fmt"

	"github.com/finlend/origination-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type quotationRepository struct {
	db *sqlx.DB
}

func NewQuotationRepository(db *sqlx.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

const quotationColumns = `id, quotation_number, client_id, client_name, agent_id, agent_name,
	loan_type, loan_amount, interest_rate, tenure, processing_fee, emi,
	is_high_value, high_value_reasons, status, notes, created_at, updated_at, sent_at`

func (r *quotationRepository) Create(ctx context.Context, quotation *domain.Quotation) error {
	query := `
		INSERT INTO quotations (` + quotationColumns + `)
		VALUES (:id, :quotation_number, :client_id, :client_name, :agent_id, :agent_name,
			:loan_type, :loan_amount, :interest_rate, :tenure, :processing_fee, :emi,
			:is_high_value, :high_value_reasons, :status, :notes, :created_at, :updated_at, :sent_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, quotation)
	return err
}

func (r *quotationRepository) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE id = $1`

	var quotation domain.Quotation
	err := r.db.GetContext(ctx, &quotation, query, id)
	if err != nil {
		return nil, err
	}

	return &quotation, nil
}

func (r *quotationRepository) List(ctx context.Context, filter domain.QuotationFilter) ([]*domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if filter.AgentID != "" {
		args = append(args, filter.AgentID)
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}

	if filter.IsHighValue != nil {
		args = append(args, *filter.IsHighValue)
		query += fmt.Sprintf(" AND is_high_value = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var quotations []*domain.Quotation
	err := r.db.SelectContext(ctx, &quotations, query, args...)
	if err != nil {
		return nil, err
	}

	return quotations, nil
}

func (r *quotationRepository) Update(ctx context.Context, quotation *domain.Quotation) error {
	query := `
		UPDATE quotations
		SET client_id = :client_id, client_name = :client_name, loan_type = :loan_type,
			loan_amount = :loan_amount, interest_rate = :interest_rate, tenure = :tenure,
			processing_fee = :processing_fee, emi = :emi, is_high_value = :is_high_value,
			high_value_reasons = :high_value_reasons, status = :status, notes = :notes,
			updated_at = :updated_at, sent_at = :sent_at
		WHERE id = :id
	`

	_, err := r.db.NamedExecContext(ctx, query, quotation)
	return err
}

func (r *quotationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	return err
}
