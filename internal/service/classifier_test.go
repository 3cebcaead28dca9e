package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/mocks"
)

func standardPolicy() *domain.PolicyConfig {
	return &domain.PolicyConfig{
		HighValueThresholds: domain.PolicyThresholds{
			LoanAmount:      decimal.NewFromInt(1000000),
			MinInterestRate: decimal.NewFromInt(12),
			MaxTenure:       60,
		},
		TopUpEligibilityMonths: 12,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		rate        string
		tenure      int
		isHighValue bool
		reasons     domain.ReasonList
	}{
		{
			name:        "amount and rate both trip, in check order",
			amount:      1200000,
			rate:        "11.5",
			tenure:      60,
			isHighValue: true,
			reasons:     domain.ReasonList{domain.ReasonAmountExceedsThreshold, domain.ReasonLowInterestRate},
		},
		{
			name:        "nothing trips",
			amount:      500000,
			rate:        "13",
			tenure:      36,
			isHighValue: false,
			reasons:     domain.ReasonList{},
		},
		{
			name:        "tenure alone trips",
			amount:      500000,
			rate:        "13",
			tenure:      72,
			isHighValue: true,
			reasons:     domain.ReasonList{domain.ReasonLongTenure},
		},
		{
			name:        "all three trip in fixed order",
			amount:      2000000,
			rate:        "8",
			tenure:      84,
			isHighValue: true,
			reasons: domain.ReasonList{
				domain.ReasonAmountExceedsThreshold,
				domain.ReasonLowInterestRate,
				domain.ReasonLongTenure,
			},
		},
		{
			name:        "boundary values do not trip",
			amount:      1000000, // equal, not greater
			rate:        "12",    // equal, not less
			tenure:      60,      // equal, not greater
			isHighValue: false,
			reasons:     domain.ReasonList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPolicyRepo := &mocks.MockPolicyRepository{}
			mockPolicyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)

			classifier := NewClassifier(mockPolicyRepo, domain.DefaultThresholds())

			rate, err := decimal.NewFromString(tt.rate)
			assert.NoError(t, err)

			result := classifier.Classify(context.Background(), decimal.NewFromInt(tt.amount), rate, tt.tenure)

			assert.Equal(t, tt.isHighValue, result.IsHighValue)
			assert.Equal(t, tt.reasons, result.Reasons)
			mockPolicyRepo.AssertExpectations(t)
		})
	}
}

func TestClassify_PolicyUnavailableFallsBackToDefaults(t *testing.T) {
	mockPolicyRepo := &mocks.MockPolicyRepository{}
	mockPolicyRepo.On("Get", mock.Anything).Return(nil, errors.New("connection refused"))

	classifier := NewClassifier(mockPolicyRepo, domain.DefaultThresholds())

	// Above the default 1,000,000 threshold
	result := classifier.Classify(context.Background(), decimal.NewFromInt(1500000), decimal.NewFromInt(14), 24)

	assert.True(t, result.IsHighValue)
	assert.Equal(t, domain.ReasonList{domain.ReasonAmountExceedsThreshold}, result.Reasons)
}

func TestClassify_FetchesThresholdsEveryCall(t *testing.T) {
	mockPolicyRepo := &mocks.MockPolicyRepository{}
	mockPolicyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)

	classifier := NewClassifier(mockPolicyRepo, domain.DefaultThresholds())

	ctx := context.Background()
	classifier.Classify(ctx, decimal.NewFromInt(100), decimal.NewFromInt(15), 12)
	classifier.Classify(ctx, decimal.NewFromInt(100), decimal.NewFromInt(15), 12)

	// No caching: a policy change takes effect immediately
	mockPolicyRepo.AssertNumberOfCalls(t, "Get", 2)
}
