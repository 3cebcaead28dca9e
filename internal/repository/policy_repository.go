package repository

import (
	"context"
	"time"

	"github.com/finlend/origination-engine/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type policyRepository struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) PolicyRepository {
	return &policyRepository{db: db}
}

// policyRow flattens the singleton policy document for sqlx scanning.
type policyRow struct {
	HVLoanAmount           decimal.Decimal `db:"hv_loan_amount"`
	HVMinInterestRate      decimal.Decimal `db:"hv_min_interest_rate"`
	HVMaxTenure            int             `db:"hv_max_tenure"`
	TopUpEligibilityMonths int             `db:"top_up_eligibility_months"`
	UpdatedBy              string          `db:"updated_by"`
	UpdatedAt              time.Time       `db:"updated_at"`
}

func (r *policyRepository) Get(ctx context.Context) (*domain.PolicyConfig, error) {
	query := `
		SELECT hv_loan_amount, hv_min_interest_rate, hv_max_tenure,
			top_up_eligibility_months, updated_by, updated_at
		FROM policy_config
		WHERE id = 1
	`

	var row policyRow
	err := r.db.GetContext(ctx, &row, query)
	if err != nil {
		return nil, err
	}

	return &domain.PolicyConfig{
		HighValueThresholds: domain.PolicyThresholds{
			LoanAmount:      row.HVLoanAmount,
			MinInterestRate: row.HVMinInterestRate,
			MaxTenure:       row.HVMaxTenure,
		},
		TopUpEligibilityMonths: row.TopUpEligibilityMonths,
		UpdatedBy:              row.UpdatedBy,
		UpdatedAt:              row.UpdatedAt,
	}, nil
}

func (r *policyRepository) Upsert(ctx context.Context, policy *domain.PolicyConfig) error {
	query := `
		INSERT INTO policy_config (id, hv_loan_amount, hv_min_interest_rate, hv_max_tenure,
			top_up_eligibility_months, updated_by, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			hv_loan_amount = EXCLUDED.hv_loan_amount,
			hv_min_interest_rate = EXCLUDED.hv_min_interest_rate,
			hv_max_tenure = EXCLUDED.hv_max_tenure,
			top_up_eligibility_months = EXCLUDED.top_up_eligibility_months,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		policy.HighValueThresholds.LoanAmount,
		policy.HighValueThresholds.MinInterestRate,
		policy.HighValueThresholds.MaxTenure,
		policy.TopUpEligibilityMonths,
		policy.UpdatedBy,
		policy.UpdatedAt,
	)

	return err
}
