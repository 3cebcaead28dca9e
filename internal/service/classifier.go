package service

import (
	"context"
	"log"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/repository"

	"github.com/shopspring/decimal"
)

// Classifier evaluates loan terms against the currently effective policy
// thresholds. Thresholds are fetched fresh on every call so a policy change
// takes effect immediately for new classifications; already-classified
// entities keep their flag until a term-touching update re-evaluates them.
type Classifier struct {
	policyRepo repository.PolicyRepository
	defaults   domain.PolicyThresholds
}

func NewClassifier(policyRepo repository.PolicyRepository, defaults domain.PolicyThresholds) *Classifier {
	return &Classifier{
		policyRepo: policyRepo,
		defaults:   defaults,
	}
}

// Classify applies the three threshold rules independently, in fixed order.
// A policy store failure degrades to the default thresholds and never blocks
// the caller.
func (c *Classifier) Classify(ctx context.Context, loanAmount, interestRate decimal.Decimal, tenure int) domain.Classification {
	thresholds := c.thresholds(ctx)

	reasons := domain.ReasonList{}

	if loanAmount.GreaterThan(thresholds.LoanAmount) {
		reasons = append(reasons, domain.ReasonAmountExceedsThreshold)
	}

	if interestRate.LessThan(thresholds.MinInterestRate) {
		reasons = append(reasons, domain.ReasonLowInterestRate)
	}

	if tenure > thresholds.MaxTenure {
		reasons = append(reasons, domain.ReasonLongTenure)
	}

	return domain.Classification{
		IsHighValue: len(reasons) > 0,
		Reasons:     reasons,
	}
}

func (c *Classifier) thresholds(ctx context.Context) domain.PolicyThresholds {
	policy, err := c.policyRepo.Get(ctx)
	if err != nil {
		log.Printf("policy thresholds unavailable, using defaults: %v", err)
		return c.defaults
	}
	return policy.HighValueThresholds
}
