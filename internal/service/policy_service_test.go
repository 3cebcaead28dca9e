package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/mocks"
	customError "github.com/finlend/origination-engine/pkg/errors"
)

func newPolicyService() (*PolicyService, *mocks.MockPolicyRepository, *mocks.MockAuditRepository) {
	policyRepo := &mocks.MockPolicyRepository{}
	auditRepo := &mocks.MockAuditRepository{}
	return NewPolicyService(policyRepo, auditRepo), policyRepo, auditRepo
}

func TestPolicyGet_CreatesDefaultsOnFirstRead(t *testing.T) {
	service, policyRepo, _ := newPolicyService()

	policyRepo.On("Get", mock.Anything).Return(nil, sql.ErrNoRows)
	policyRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.PolicyConfig) bool {
		return p.HighValueThresholds.LoanAmount.Equal(decimal.NewFromInt(1000000)) &&
			p.TopUpEligibilityMonths == domain.DefaultTopUpEligibilityMonths
	})).Return(nil)

	policy, err := service.Get(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 60, policy.HighValueThresholds.MaxTenure)
	assert.Equal(t, "system", policy.UpdatedBy)
	policyRepo.AssertExpectations(t)
}

func TestPolicyGet_ReturnsExisting(t *testing.T) {
	service, policyRepo, _ := newPolicyService()

	policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)

	policy, err := service.Get(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 12, policy.TopUpEligibilityMonths)
	policyRepo.AssertNotCalled(t, "Upsert")
}

func TestPolicyUpdate_PartialPatchRetainsUntouchedSections(t *testing.T) {
	service, policyRepo, auditRepo := newPolicyService()

	policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	policyRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.AuditLog) bool {
		return entry.Action == domain.AuditUpdatedPolicy
	})).Return(nil)

	months := 18
	req := &domain.UpdatePolicyRequest{TopUpEligibilityMonths: &months}

	policy, err := service.Update(context.Background(), adminActor, req)

	assert.NoError(t, err)
	assert.Equal(t, 18, policy.TopUpEligibilityMonths)
	// Thresholds left alone
	assert.True(t, policy.HighValueThresholds.LoanAmount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, "admin-1", policy.UpdatedBy)
}

func TestPolicyUpdate_RejectsNonPositiveMonths(t *testing.T) {
	service, policyRepo, _ := newPolicyService()

	policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)

	months := 0
	req := &domain.UpdatePolicyRequest{TopUpEligibilityMonths: &months}

	_, err := service.Update(context.Background(), adminActor, req)

	assert.Error(t, err)
	assert.True(t, customError.IsValidation(err))
	policyRepo.AssertNotCalled(t, "Upsert")
}
