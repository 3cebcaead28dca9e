package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/mocks"
	customError "github.com/finlend/origination-engine/pkg/errors"
)

type loanFixture struct {
	service          *LoanService
	loanRepo         *mocks.MockLoanRepository
	userRepo         *mocks.MockUserRepository
	auditRepo        *mocks.MockAuditRepository
	policyRepo       *mocks.MockPolicyRepository
	sequenceRepo     *mocks.MockSequenceRepository
	notificationRepo *mocks.MockNotificationRepository
}

func newLoanFixture() *loanFixture {
	f := &loanFixture{
		loanRepo:         &mocks.MockLoanRepository{},
		userRepo:         &mocks.MockUserRepository{},
		auditRepo:        &mocks.MockAuditRepository{},
		policyRepo:       &mocks.MockPolicyRepository{},
		sequenceRepo:     &mocks.MockSequenceRepository{},
		notificationRepo: &mocks.MockNotificationRepository{},
	}

	sequences := NewSequenceGenerator(f.sequenceRepo, 3)
	notifications := NewNotificationService(f.notificationRepo, f.userRepo)

	f.service = NewLoanService(f.loanRepo, f.userRepo, f.auditRepo, f.policyRepo,
		sequences, notifications, nil, time.Hour)

	return f
}

var adminActor = domain.Actor{UID: "admin-1", Email: "ops@example.com", Name: "Meera", Role: "admin"}

func TestLoanCreate_InitializesStagesAndTopUpWindow(t *testing.T) {
	f := newLoanFixture()

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	f.sequenceRepo.On("Increment", mock.Anything, domain.SequenceDomainLoans, 2026).Return(15, nil)
	f.userRepo.On("GetByUID", mock.Anything, "admin-1").
		Return(&domain.User{UID: "admin-1", DisplayName: "Meera Nair", Role: "admin"}, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return len(loan.Stages) == 6 && loan.Status == domain.LoanStatusActive
	})).Return(nil)

	quotationID := "q-123"
	req := &domain.CreateLoanRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypeHome,
		LoanAmount:   decimal.NewFromInt(500000),
		InterestRate: decimal.NewFromInt(12),
		Tenure:       60,
		QuotationID:  &quotationID,
	}

	loan, err := f.service.Create(context.Background(), adminActor, req)

	assert.NoError(t, err)
	assert.Equal(t, "L-2026-00015", loan.LoanNumber)
	assert.True(t, loan.EMI.Equal(decimal.NewFromInt(11122)))
	assert.Equal(t, domain.StageApplicationSubmitted, loan.CurrentStage)
	for _, stage := range loan.Stages {
		assert.False(t, stage.Completed)
	}
	// Policy window: 12 months from creation
	assert.NotNil(t, loan.TopUpEligibleDate)
	assert.Equal(t, now.AddDate(0, 12, 0), *loan.TopUpEligibleDate)
	assert.False(t, loan.TopUpNotified)
	assert.Equal(t, &quotationID, loan.QuotationID)
	f.loanRepo.AssertExpectations(t)
}

func TestLoanCreate_PolicyDownUsesDefaultTopUpWindow(t *testing.T) {
	f := newLoanFixture()

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.policyRepo.On("Get", mock.Anything).Return(nil, sql.ErrConnDone)
	f.sequenceRepo.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.userRepo.On("GetByUID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.loanRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := &domain.CreateLoanRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypePersonal,
		LoanAmount:   decimal.NewFromInt(200000),
		InterestRate: decimal.NewFromInt(14),
		Tenure:       24,
	}

	loan, err := f.service.Create(context.Background(), adminActor, req)

	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, domain.DefaultTopUpEligibilityMonths, 0), *loan.TopUpEligibleDate)
}

func activeLoan() *domain.Loan {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	eligible := created.AddDate(0, 12, 0)
	return &domain.Loan{
		ID:                uuid.New(),
		LoanNumber:        "L-2026-00002",
		ClientID:          "client-9",
		ClientName:        "Ravi Kumar",
		AgentID:           "agent-1",
		AgentName:         "Asha Verma",
		LoanType:          domain.LoanTypePersonal,
		LoanAmount:        decimal.NewFromInt(500000),
		InterestRate:      decimal.NewFromInt(12),
		Tenure:            60,
		EMI:               decimal.NewFromInt(11122),
		CurrentStage:      domain.StageApplicationSubmitted,
		Stages:            domain.InitialStages(),
		TopUpEligibleDate: &eligible,
		Status:            domain.LoanStatusActive,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func TestLoanUpdateStage_CompletionStampsAndDerivesCurrent(t *testing.T) {
	f := newLoanFixture()
	loan := activeLoan()

	// application_submitted, document_verification and sanction already done;
	// credit_appraisal deliberately left incomplete
	for i := range loan.Stages {
		switch loan.Stages[i].Stage {
		case domain.StageApplicationSubmitted, domain.StageDocumentVerification:
			loan.Stages[i].Completed = true
		}
	}

	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.loanRepo.On("GetByID", mock.Anything, loan.ID.String()).Return(loan, nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.AuditLog) bool {
		return entry.Action == domain.AuditUpdatedLoanStage
	})).Return(nil)
	f.loanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	remarks := "sanctioned by committee"
	req := &domain.UpdateLoanStageRequest{
		Stage:     domain.StageSanction,
		Completed: true,
		Remarks:   &remarks,
	}

	updated, err := f.service.UpdateStage(context.Background(), adminActor, loan.ID.String(), req)

	assert.NoError(t, err)
	// Out-of-order completion: credit_appraisal is still open, but sanction is
	// the last completed stage in canonical order
	assert.Equal(t, domain.StageSanction, updated.CurrentStage)

	for _, stage := range updated.Stages {
		if stage.Stage == domain.StageSanction {
			assert.True(t, stage.Completed)
			assert.NotNil(t, stage.CompletedAt)
			assert.Equal(t, now, *stage.CompletedAt)
			assert.Equal(t, remarks, stage.Remarks)
		}
		if stage.Stage == domain.StageCreditAppraisal {
			assert.False(t, stage.Completed)
		}
	}
}

func TestLoanUpdateStage_UncompleteClearsTimestampAndReranks(t *testing.T) {
	f := newLoanFixture()
	loan := activeLoan()

	completedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range loan.Stages {
		switch loan.Stages[i].Stage {
		case domain.StageApplicationSubmitted, domain.StageDocumentVerification, domain.StageCreditAppraisal:
			loan.Stages[i].Completed = true
			loan.Stages[i].CompletedAt = &completedAt
		}
	}
	loan.CurrentStage = domain.StageCreditAppraisal

	f.loanRepo.On("GetByID", mock.Anything, loan.ID.String()).Return(loan, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.loanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	req := &domain.UpdateLoanStageRequest{Stage: domain.StageCreditAppraisal, Completed: false}

	updated, err := f.service.UpdateStage(context.Background(), adminActor, loan.ID.String(), req)

	assert.NoError(t, err)
	assert.Equal(t, domain.StageDocumentVerification, updated.CurrentStage)

	for _, stage := range updated.Stages {
		if stage.Stage == domain.StageCreditAppraisal {
			assert.False(t, stage.Completed)
			assert.Nil(t, stage.CompletedAt)
		}
	}
}

func TestLoanUpdateStage_UnknownStage(t *testing.T) {
	f := newLoanFixture()

	req := &domain.UpdateLoanStageRequest{Stage: "underwriting", Completed: true}

	_, err := f.service.UpdateStage(context.Background(), adminActor, "any", req)

	assert.Error(t, err)
	assert.True(t, customError.IsNotFound(err))
	f.loanRepo.AssertNotCalled(t, "GetByID")
}

func TestLoanUpdateStage_LoanNotFound(t *testing.T) {
	f := newLoanFixture()

	f.loanRepo.On("GetByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	req := &domain.UpdateLoanStageRequest{Stage: domain.StageSanction, Completed: true}

	_, err := f.service.UpdateStage(context.Background(), adminActor, "missing", req)

	assert.Error(t, err)
	assert.True(t, customError.IsNotFound(err))
	f.loanRepo.AssertNotCalled(t, "Update")
}

func TestLoanDisburse_DefaultsToLoanAmountAndLeavesStagesAlone(t *testing.T) {
	f := newLoanFixture()
	loan := activeLoan()
	priorStage := loan.CurrentStage

	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.loanRepo.On("GetByID", mock.Anything, loan.ID.String()).Return(loan, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.loanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.service.Disburse(context.Background(), adminActor, loan.ID.String(), &domain.DisburseLoanRequest{})

	assert.NoError(t, err)
	assert.NotNil(t, updated.DisbursementDate)
	assert.Equal(t, now, *updated.DisbursementDate)
	assert.True(t, updated.DisbursementAmount.Equal(loan.LoanAmount))
	// Disbursement is orthogonal to stage tracking
	assert.Equal(t, priorStage, updated.CurrentStage)
	assert.Equal(t, domain.LoanStatusActive, updated.Status)
}

func TestLoanDisburse_ExplicitAmount(t *testing.T) {
	f := newLoanFixture()
	loan := activeLoan()

	f.loanRepo.On("GetByID", mock.Anything, loan.ID.String()).Return(loan, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.loanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	amount := decimal.NewFromInt(480000)
	updated, err := f.service.Disburse(context.Background(), adminActor, loan.ID.String(),
		&domain.DisburseLoanRequest{DisbursementAmount: &amount})

	assert.NoError(t, err)
	assert.True(t, updated.DisbursementAmount.Equal(amount))
}

func TestListTopUpEligible_InclusiveBoundary(t *testing.T) {
	f := newLoanFixture()

	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	eligible := activeLoan()
	eligibleDate := now // exactly now: included
	eligible.TopUpEligibleDate = &eligibleDate

	f.loanRepo.On("ListTopUpEligible", mock.Anything, now).Return([]*domain.Loan{eligible}, nil)

	loans, err := f.service.ListTopUpEligible(context.Background())

	assert.NoError(t, err)
	assert.Len(t, loans, 1)
	// The query itself never flags the loan; callers do after acting
	f.loanRepo.AssertNotCalled(t, "MarkTopUpNotified")
}

func TestRunTopUpSweep_NotifiesThenMarks(t *testing.T) {
	f := newLoanFixture()

	loan := activeLoan()

	f.loanRepo.On("ListTopUpEligible", mock.Anything, mock.Anything).Return([]*domain.Loan{loan}, nil)
	f.notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationTopUpEligible && n.UserID == loan.AgentID
	})).Return(nil)
	f.userRepo.On("ListByRoles", mock.Anything, domain.RoleAdmin).Return([]*domain.User{}, nil)
	f.loanRepo.On("MarkTopUpNotified", mock.Anything, loan.ID.String()).Return(nil)

	notified, err := f.service.RunTopUpSweep(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, notified)
	f.loanRepo.AssertExpectations(t)
	f.notificationRepo.AssertExpectations(t)
}
