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

type quotationFixture struct {
	service          *QuotationService
	quotationRepo    *mocks.MockQuotationRepository
	userRepo         *mocks.MockUserRepository
	auditRepo        *mocks.MockAuditRepository
	policyRepo       *mocks.MockPolicyRepository
	sequenceRepo     *mocks.MockSequenceRepository
	notificationRepo *mocks.MockNotificationRepository
}

func newQuotationFixture() *quotationFixture {
	f := &quotationFixture{
		quotationRepo:    &mocks.MockQuotationRepository{},
		userRepo:         &mocks.MockUserRepository{},
		auditRepo:        &mocks.MockAuditRepository{},
		policyRepo:       &mocks.MockPolicyRepository{},
		sequenceRepo:     &mocks.MockSequenceRepository{},
		notificationRepo: &mocks.MockNotificationRepository{},
	}

	sequences := NewSequenceGenerator(f.sequenceRepo, 3)
	classifier := NewClassifier(f.policyRepo, domain.DefaultThresholds())
	notifications := NewNotificationService(f.notificationRepo, f.userRepo)

	f.service = NewQuotationService(f.quotationRepo, f.userRepo, f.auditRepo,
		sequences, classifier, notifications, nil, time.Hour)

	return f
}

var testActor = domain.Actor{UID: "agent-1", Email: "asha@example.com", Name: "Asha", Role: "agent"}

func TestQuotationCreate_Success(t *testing.T) {
	f := newQuotationFixture()

	f.policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	f.sequenceRepo.On("Increment", mock.Anything, domain.SequenceDomainQuotations, mock.Anything).Return(7, nil)
	f.userRepo.On("GetByUID", mock.Anything, "agent-1").
		Return(&domain.User{UID: "agent-1", DisplayName: "Asha Verma", Role: "agent"}, nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.AuditLog) bool {
		return entry.Action == domain.AuditCreatedQuotation && entry.UserID == "agent-1"
	})).Return(nil)
	f.quotationRepo.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.Quotation) bool {
		return q.Status == domain.QuotationStatusDraft && q.ClientID == "client-9"
	})).Return(nil)

	req := &domain.CreateQuotationRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypePersonal,
		LoanAmount:   decimal.NewFromInt(500000),
		InterestRate: decimal.NewFromInt(12),
		Tenure:       60,
	}

	quotation, err := f.service.Create(context.Background(), testActor, req)

	assert.NoError(t, err)
	assert.True(t, quotation.EMI.Equal(decimal.NewFromInt(11122)))
	assert.False(t, quotation.IsHighValue)
	assert.Empty(t, quotation.HighValueReasons)
	assert.Contains(t, quotation.QuotationNumber, "-00007")
	assert.Equal(t, "Asha Verma", quotation.AgentName)
	f.quotationRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}

func TestQuotationCreate_HighValueNotifiesAdminsAndMD(t *testing.T) {
	f := newQuotationFixture()

	f.policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	f.sequenceRepo.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.userRepo.On("GetByUID", mock.Anything, "agent-1").Return(nil, sql.ErrNoRows)
	f.userRepo.On("ListByRoles", mock.Anything, domain.RoleAdmin, domain.RoleMD).Return([]*domain.User{
		{UID: "admin-1", Role: domain.RoleAdmin},
		{UID: "md-1", Role: domain.RoleMD},
	}, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notificationRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationHighValueQuotation
	})).Return(nil)

	req := &domain.CreateQuotationRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypeBusiness,
		LoanAmount:   decimal.NewFromInt(1200000),
		InterestRate: decimal.NewFromFloat(11.5),
		Tenure:       60,
	}

	quotation, err := f.service.Create(context.Background(), testActor, req)

	assert.NoError(t, err)
	assert.True(t, quotation.IsHighValue)
	assert.Equal(t, domain.ReasonList{
		domain.ReasonAmountExceedsThreshold,
		domain.ReasonLowInterestRate,
	}, quotation.HighValueReasons)

	// One notification per recipient
	f.notificationRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestQuotationCreate_ValidationRejectedBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateQuotationRequest)
	}{
		{"negative amount", func(r *domain.CreateQuotationRequest) { r.LoanAmount = decimal.NewFromInt(-1) }},
		{"zero amount", func(r *domain.CreateQuotationRequest) { r.LoanAmount = decimal.Zero }},
		{"rate above 100", func(r *domain.CreateQuotationRequest) { r.InterestRate = decimal.NewFromInt(101) }},
		{"negative rate", func(r *domain.CreateQuotationRequest) { r.InterestRate = decimal.NewFromInt(-3) }},
		{"zero tenure", func(r *domain.CreateQuotationRequest) { r.Tenure = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationFixture()

			req := &domain.CreateQuotationRequest{
				ClientID:     "client-9",
				ClientName:   "Ravi Kumar",
				LoanType:     domain.LoanTypePersonal,
				LoanAmount:   decimal.NewFromInt(500000),
				InterestRate: decimal.NewFromInt(12),
				Tenure:       60,
			}
			tt.mutate(req)

			_, err := f.service.Create(context.Background(), testActor, req)

			assert.Error(t, err)
			assert.True(t, customError.IsValidation(err))
			// No sequence allocated, nothing persisted
			f.sequenceRepo.AssertNotCalled(t, "Increment")
			f.quotationRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestQuotationCreate_PolicyFailureDegradesToDefaults(t *testing.T) {
	f := newQuotationFixture()

	f.policyRepo.On("Get", mock.Anything).Return(nil, sql.ErrConnDone)
	f.sequenceRepo.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	f.userRepo.On("GetByUID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := &domain.CreateQuotationRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypePersonal,
		LoanAmount:   decimal.NewFromInt(500000),
		InterestRate: decimal.NewFromInt(13),
		Tenure:       36,
	}

	// Policy store down must not block creation
	quotation, err := f.service.Create(context.Background(), testActor, req)

	assert.NoError(t, err)
	assert.False(t, quotation.IsHighValue)
}

func TestQuotationCreateThenGet_RoundTripsDerivedFields(t *testing.T) {
	f := newQuotationFixture()

	var persisted *domain.Quotation

	f.policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	f.sequenceRepo.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(3, nil)
	f.userRepo.On("GetByUID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*domain.Quotation)
		}).Return(nil)
	f.userRepo.On("ListByRoles", mock.Anything, domain.RoleAdmin, domain.RoleMD).
		Return([]*domain.User{}, nil)

	req := &domain.CreateQuotationRequest{
		ClientID:     "client-9",
		ClientName:   "Ravi Kumar",
		LoanType:     domain.LoanTypeVehicle,
		LoanAmount:   decimal.NewFromInt(1100000),
		InterestRate: decimal.NewFromInt(14),
		Tenure:       48,
	}

	created, err := f.service.Create(context.Background(), testActor, req)
	assert.NoError(t, err)

	f.quotationRepo.On("GetByID", mock.Anything, created.ID.String()).Return(persisted, nil)

	fetched, err := f.service.Get(context.Background(), created.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, created.QuotationNumber, fetched.QuotationNumber)
	assert.True(t, fetched.EMI.Equal(created.EMI))
	assert.Equal(t, created.IsHighValue, fetched.IsHighValue)
	assert.Equal(t, created.HighValueReasons, fetched.HighValueReasons)
}

func existingQuotation() *domain.Quotation {
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return &domain.Quotation{
		ID:               uuid.New(),
		QuotationNumber:  "Q-2026-00003",
		ClientID:         "client-9",
		ClientName:       "Ravi Kumar",
		AgentID:          "agent-1",
		AgentName:        "Asha Verma",
		LoanType:         domain.LoanTypePersonal,
		LoanAmount:       decimal.NewFromInt(500000),
		InterestRate:     decimal.NewFromInt(12),
		Tenure:           60,
		EMI:              decimal.NewFromInt(11122),
		IsHighValue:      false,
		HighValueReasons: domain.ReasonList{},
		Status:           domain.QuotationStatusDraft,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func TestQuotationUpdate_TermChangeRecomputesDerivedFields(t *testing.T) {
	f := newQuotationFixture()
	existing := existingQuotation()

	f.quotationRepo.On("GetByID", mock.Anything, existing.ID.String()).Return(existing, nil)
	f.policyRepo.On("Get", mock.Anything).Return(standardPolicy(), nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.userRepo.On("ListByRoles", mock.Anything, domain.RoleAdmin, domain.RoleMD).
		Return([]*domain.User{{UID: "admin-1"}}, nil)
	f.notificationRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	newAmount := decimal.NewFromInt(1500000)
	req := &domain.UpdateQuotationRequest{LoanAmount: &newAmount}

	updated, err := f.service.Update(context.Background(), testActor, existing.ID.String(), req)

	assert.NoError(t, err)
	// EMI recomputed from merged terms: 1500000 @ 12% for 60 months
	assert.True(t, updated.EMI.Equal(decimal.NewFromInt(33367)), "got %s", updated.EMI)
	// Reclassified high-value, which triggers the fan-out
	assert.True(t, updated.IsHighValue)
	assert.Equal(t, domain.ReasonList{domain.ReasonAmountExceedsThreshold}, updated.HighValueReasons)
	f.notificationRepo.AssertNumberOfCalls(t, "Create", 1)
	// Untouched fields retained
	assert.Equal(t, "Ravi Kumar", updated.ClientName)
	assert.Equal(t, 60, updated.Tenure)
}

func TestQuotationUpdate_NotesOnlyLeavesDerivedFieldsIdentical(t *testing.T) {
	f := newQuotationFixture()
	existing := existingQuotation()
	priorEMI := existing.EMI
	priorReasons := existing.HighValueReasons

	f.quotationRepo.On("GetByID", mock.Anything, existing.ID.String()).Return(existing, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	notes := "client asked for weekend callback"
	req := &domain.UpdateQuotationRequest{Notes: &notes}

	updated, err := f.service.Update(context.Background(), testActor, existing.ID.String(), req)

	assert.NoError(t, err)
	assert.True(t, updated.EMI.Equal(priorEMI))
	assert.False(t, updated.IsHighValue)
	assert.Equal(t, priorReasons, updated.HighValueReasons)
	assert.Equal(t, notes, updated.Notes)
	// No reclassification, so no policy read and no fan-out
	f.policyRepo.AssertNotCalled(t, "Get")
	f.notificationRepo.AssertNotCalled(t, "Create")
}

func TestQuotationUpdate_NotFound(t *testing.T) {
	f := newQuotationFixture()

	f.quotationRepo.On("GetByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	notes := "x"
	_, err := f.service.Update(context.Background(), testActor, "missing", &domain.UpdateQuotationRequest{Notes: &notes})

	assert.Error(t, err)
	assert.True(t, customError.IsNotFound(err))
	f.quotationRepo.AssertNotCalled(t, "Update")
}

func TestQuotationUpdateStatus_SentStampsSentAt(t *testing.T) {
	f := newQuotationFixture()
	existing := existingQuotation()

	f.quotationRepo.On("GetByID", mock.Anything, existing.ID.String()).Return(existing, nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.quotationRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.service.UpdateStatus(context.Background(), testActor, existing.ID.String(), domain.QuotationStatusSent)

	assert.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusSent, updated.Status)
	assert.NotNil(t, updated.SentAt)
}

func TestQuotationUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newQuotationFixture()

	_, err := f.service.UpdateStatus(context.Background(), testActor, "any", "archived")

	assert.Error(t, err)
	assert.True(t, customError.IsValidation(err))
	f.quotationRepo.AssertNotCalled(t, "GetByID")
}

func TestQuotationDelete_AuditsAndRemoves(t *testing.T) {
	f := newQuotationFixture()
	existing := existingQuotation()

	f.quotationRepo.On("GetByID", mock.Anything, existing.ID.String()).Return(existing, nil)
	f.quotationRepo.On("Delete", mock.Anything, existing.ID.String()).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(entry *domain.AuditLog) bool {
		return entry.Action == domain.AuditDeletedQuotation
	})).Return(nil)

	err := f.service.Delete(context.Background(), testActor, existing.ID.String())

	assert.NoError(t, err)
	f.quotationRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}
