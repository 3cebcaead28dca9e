package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PolicyThresholds drives high-value classification. All amounts are in whole
// currency units, rates in percent, tenure in months.
type PolicyThresholds struct {
	LoanAmount      decimal.Decimal `json:"loan_amount" db:"hv_loan_amount"`
	MinInterestRate decimal.Decimal `json:"min_interest_rate" db:"hv_min_interest_rate"`
	MaxTenure       int             `json:"max_tenure" db:"hv_max_tenure"`
}

// DefaultThresholds are applied whenever no policy document exists or the
// policy store is unreachable.
func DefaultThresholds() PolicyThresholds {
	return PolicyThresholds{
		LoanAmount:      decimal.NewFromInt(1_000_000),
		MinInterestRate: decimal.NewFromInt(12),
		MaxTenure:       60,
	}
}

const DefaultTopUpEligibilityMonths = 12

// PolicyConfig is the singleton policy document.
type PolicyConfig struct {
	HighValueThresholds    PolicyThresholds `json:"high_value_thresholds"`
	TopUpEligibilityMonths int              `json:"top_up_eligibility_months" db:"top_up_eligibility_months"`
	UpdatedBy              string           `json:"updated_by" db:"updated_by"`
	UpdatedAt              time.Time        `json:"updated_at" db:"updated_at"`
}

// DefaultPolicyConfig is the document created on first read.
func DefaultPolicyConfig() *PolicyConfig {
	return &PolicyConfig{
		HighValueThresholds:    DefaultThresholds(),
		TopUpEligibilityMonths: DefaultTopUpEligibilityMonths,
		UpdatedBy:              "system",
		UpdatedAt:              time.Now(),
	}
}

type UpdatePolicyRequest struct {
	HighValueThresholds *struct {
		LoanAmount      decimal.Decimal `json:"loan_amount"`
		MinInterestRate decimal.Decimal `json:"min_interest_rate"`
		MaxTenure       int             `json:"max_tenure" validate:"gte=0"`
	} `json:"high_value_thresholds,omitempty"`
	TopUpEligibilityMonths *int `json:"top_up_eligibility_months,omitempty" validate:"omitempty,gt=0"`
}

// Classification is the outcome of evaluating loan terms against thresholds.
type Classification struct {
	IsHighValue bool       `json:"is_high_value"`
	Reasons     ReasonList `json:"reasons"`
}
