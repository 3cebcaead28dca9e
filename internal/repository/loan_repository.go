package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/finlend/origination-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, loan_number, client_id, client_name, agent_id, agent_name,
	loan_type, loan_amount, approved_amount, interest_rate, tenure, emi, quotation_id,
	current_stage, stages, disbursement_date, disbursement_amount,
	top_up_eligible_date, top_up_notified, status, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :loan_number, :client_id, :client_name, :agent_id, :agent_name,
			:loan_type, :loan_amount, :approved_amount, :interest_rate, :tenure, :emi, :quotation_id,
			:current_stage, :stages, :disbursement_date, :disbursement_amount,
			:top_up_eligible_date, :top_up_notified, :status, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if filter.AgentID != "" {
		args = append(args, filter.AgentID)
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, args...)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET loan_amount = :loan_amount, approved_amount = :approved_amount,
			interest_rate = :interest_rate, tenure = :tenure, emi = :emi,
			current_stage = :current_stage, stages = :stages,
			disbursement_date = :disbursement_date, disbursement_amount = :disbursement_amount,
			top_up_eligible_date = :top_up_eligible_date, top_up_notified = :top_up_notified,
			status = :status, updated_at = :updated_at
		WHERE id = :id
	`

	_, err := r.db.NamedExecContext(ctx, query, loan)
	return err
}

// ListTopUpEligible uses an inclusive boundary: a loan eligible exactly now is
// included.
func (r *loanRepository) ListTopUpEligible(ctx context.Context, now time.Time) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1 AND top_up_eligible_date <= $2 AND top_up_notified = FALSE
		ORDER BY top_up_eligible_date
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, domain.LoanStatusActive, now)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) MarkTopUpNotified(ctx context.Context, id string) error {
	query := `UPDATE loans SET top_up_notified = TRUE, updated_at = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	return err
}
