package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/repository"
	customError "github.com/finlend/origination-engine/pkg/errors"
)

// PolicyService manages the singleton policy document. Reads fall back to the
// defaults when the document does not exist; the first read persists them so
// administrators see the effective values.
type PolicyService struct {
	policyRepo repository.PolicyRepository
	auditRepo  repository.AuditRepository
}

func NewPolicyService(policyRepo repository.PolicyRepository, auditRepo repository.AuditRepository) *PolicyService {
	return &PolicyService{
		policyRepo: policyRepo,
		auditRepo:  auditRepo,
	}
}

// Get returns the effective policy, creating the default document on first
// read.
func (s *PolicyService) Get(ctx context.Context) (*domain.PolicyConfig, error) {
	policy, err := s.policyRepo.Get(ctx)
	if err == nil {
		return policy, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	policy = domain.DefaultPolicyConfig()
	if err := s.policyRepo.Upsert(ctx, policy); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return policy, nil
}

// Update applies a partial patch to the policy document. Untouched sections
// retain their prior values.
func (s *PolicyService) Update(ctx context.Context, actor domain.Actor, req *domain.UpdatePolicyRequest) (*domain.PolicyConfig, error) {
	policy, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	changes := domain.Changes{}

	if req.HighValueThresholds != nil {
		t := req.HighValueThresholds
		if t.LoanAmount.IsNegative() || t.MinInterestRate.IsNegative() || t.MaxTenure < 0 {
			return nil, customError.WrapFieldValidation("high_value_thresholds", "threshold values must be non-negative")
		}
		policy.HighValueThresholds = domain.PolicyThresholds{
			LoanAmount:      t.LoanAmount,
			MinInterestRate: t.MinInterestRate,
			MaxTenure:       t.MaxTenure,
		}
		changes["high_value_thresholds"] = policy.HighValueThresholds
	}

	if req.TopUpEligibilityMonths != nil {
		if *req.TopUpEligibilityMonths <= 0 {
			return nil, customError.WrapFieldValidation("top_up_eligibility_months", "must be a positive number of months")
		}
		policy.TopUpEligibilityMonths = *req.TopUpEligibilityMonths
		changes["top_up_eligibility_months"] = policy.TopUpEligibilityMonths
	}

	policy.UpdatedBy = actor.UID
	policy.UpdatedAt = time.Now()

	if err := s.policyRepo.Upsert(ctx, policy); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditUpdatedPolicy, "policy", "default", changes))

	return policy, nil
}

func (s *PolicyService) audit(ctx context.Context, entry *domain.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("audit write failed for %s %s: %v", entry.Action, entry.EntityID, err)
	}
}
