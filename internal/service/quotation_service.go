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
	"github.com/finlend/origination-engine/pkg/finance"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// QuotationService orchestrates the quotation lifecycle: EMI computation,
// high-value classification, number allocation and the high-value fan-out.
type QuotationService struct {
	quotationRepo repository.QuotationRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditRepository
	sequences     *SequenceGenerator
	classifier    *Classifier
	notifications *NotificationService
	cache         *entityCache
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	sequences *SequenceGenerator,
	classifier *Classifier,
	notifications *NotificationService,
	redisClient *redis.Client,
	cacheTTL time.Duration,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		sequences:     sequences,
		classifier:    classifier,
		notifications: notifications,
		cache:         newEntityCache(redisClient, cacheTTL),
	}
}

// validateTerms enforces the numeric ranges shared by quotations and loans.
// Rejected before any side effect.
func validateTerms(loanAmount, interestRate decimal.Decimal, tenure int) error {
	fields := map[string]string{}

	if !loanAmount.IsPositive() {
		fields["loan_amount"] = customError.ErrInvalidLoanAmount.Error()
	}
	if interestRate.IsNegative() || interestRate.GreaterThan(decimal.NewFromInt(100)) {
		fields["interest_rate"] = customError.ErrInvalidInterestRate.Error()
	}
	if tenure <= 0 {
		fields["tenure"] = customError.ErrInvalidTenure.Error()
	}

	if len(fields) > 0 {
		return customError.WrapValidation("invalid loan terms", fields)
	}
	return nil
}

// Create materializes a quotation: EMI via the calculator, classification
// against current policy, number from the sequence generator. A high-value
// outcome triggers the admin/md fan-out before returning.
func (s *QuotationService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateQuotationRequest) (*domain.Quotation, error) {
	if err := validateTerms(req.LoanAmount, req.InterestRate, req.Tenure); err != nil {
		return nil, err
	}
	if req.ProcessingFee.IsNegative() {
		return nil, customError.WrapFieldValidation("processing_fee", "processing fee cannot be negative")
	}

	emi := finance.CalculateEMI(req.LoanAmount, req.InterestRate, req.Tenure)
	classification := s.classifier.Classify(ctx, req.LoanAmount, req.InterestRate, req.Tenure)

	number, err := s.sequences.Next(ctx, domain.SequenceDomainQuotations)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	quotation := &domain.Quotation{
		ID:               uuid.New(),
		QuotationNumber:  number,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		AgentID:          actor.UID,
		AgentName:        s.agentName(ctx, actor),
		LoanType:         req.LoanType,
		LoanAmount:       req.LoanAmount,
		InterestRate:     req.InterestRate,
		Tenure:           req.Tenure,
		ProcessingFee:    req.ProcessingFee,
		EMI:              emi,
		IsHighValue:      classification.IsHighValue,
		HighValueReasons: classification.Reasons,
		Status:           domain.QuotationStatusDraft,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.quotationRepo.Create(ctx, quotation); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditCreatedQuotation, "quotation", quotation.ID.String(), nil))

	if quotation.IsHighValue {
		s.notifications.NotifyHighValueQuotation(ctx, actor, quotation)
	}

	s.cache.set(ctx, quotationCacheKey(quotation.ID.String()), quotation)

	return quotation, nil
}

// Get retrieves a quotation by id, read-through cached.
func (s *QuotationService) Get(ctx context.Context, id string) (*domain.Quotation, error) {
	var cached domain.Quotation
	if s.cache.get(ctx, quotationCacheKey(id), &cached) {
		return &cached, nil
	}

	quotation, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapQuotationNotFound(id)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.cache.set(ctx, quotationCacheKey(id), quotation)

	return quotation, nil
}

// List retrieves quotations matching the filter.
func (s *QuotationService) List(ctx context.Context, filter domain.QuotationFilter) ([]*domain.Quotation, error) {
	quotations, err := s.quotationRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return quotations, nil
}

// Update applies a partial patch. Whenever the patch touches loan amount,
// interest rate or tenure, EMI and the high-value classification are
// recomputed together from the merged terms; a patch that does not touch
// terms leaves both untouched.
func (s *QuotationService) Update(ctx context.Context, actor domain.Actor, id string, req *domain.UpdateQuotationRequest) (*domain.Quotation, error) {
	quotation, err := s.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	wasHighValue := quotation.IsHighValue
	changes := domain.Changes{}

	if req.ClientID != nil {
		quotation.ClientID = *req.ClientID
		changes["client_id"] = *req.ClientID
	}
	if req.ClientName != nil {
		quotation.ClientName = *req.ClientName
		changes["client_name"] = *req.ClientName
	}
	if req.LoanType != nil {
		if !domain.ValidLoanType(*req.LoanType) {
			return nil, customError.WrapFieldValidation("loan_type", "unknown loan type")
		}
		quotation.LoanType = *req.LoanType
		changes["loan_type"] = *req.LoanType
	}
	if req.LoanAmount != nil {
		quotation.LoanAmount = *req.LoanAmount
		changes["loan_amount"] = req.LoanAmount.String()
	}
	if req.InterestRate != nil {
		quotation.InterestRate = *req.InterestRate
		changes["interest_rate"] = req.InterestRate.String()
	}
	if req.Tenure != nil {
		quotation.Tenure = *req.Tenure
		changes["tenure"] = *req.Tenure
	}
	if req.ProcessingFee != nil {
		if req.ProcessingFee.IsNegative() {
			return nil, customError.WrapFieldValidation("processing_fee", "processing fee cannot be negative")
		}
		quotation.ProcessingFee = *req.ProcessingFee
		changes["processing_fee"] = req.ProcessingFee.String()
	}
	if req.Notes != nil {
		quotation.Notes = *req.Notes
		changes["notes"] = *req.Notes
	}

	if req.TouchesTerms() {
		if err := validateTerms(quotation.LoanAmount, quotation.InterestRate, quotation.Tenure); err != nil {
			return nil, err
		}

		quotation.EMI = finance.CalculateEMI(quotation.LoanAmount, quotation.InterestRate, quotation.Tenure)
		classification := s.classifier.Classify(ctx, quotation.LoanAmount, quotation.InterestRate, quotation.Tenure)
		quotation.IsHighValue = classification.IsHighValue
		quotation.HighValueReasons = classification.Reasons
	}

	quotation.UpdatedAt = time.Now()

	if err := s.quotationRepo.Update(ctx, quotation); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditUpdatedQuotation, "quotation", id, changes))

	if quotation.IsHighValue && !wasHighValue {
		s.notifications.NotifyHighValueQuotation(ctx, actor, quotation)
	}

	s.cache.invalidate(ctx, quotationCacheKey(id))

	return quotation, nil
}

// UpdateStatus moves a quotation through its lifecycle; entering "sent"
// stamps SentAt.
func (s *QuotationService) UpdateStatus(ctx context.Context, actor domain.Actor, id, status string) (*domain.Quotation, error) {
	if !domain.ValidQuotationStatus(status) {
		return nil, customError.WrapInvalidStatus(status)
	}

	quotation, err := s.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	quotation.Status = status
	quotation.UpdatedAt = time.Now()
	if status == domain.QuotationStatusSent && quotation.SentAt == nil {
		now := time.Now()
		quotation.SentAt = &now
	}

	if err := s.quotationRepo.Update(ctx, quotation); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditUpdatedQuotationStatus, "quotation", id,
		domain.Changes{"status": status}))

	s.cache.invalidate(ctx, quotationCacheKey(id))

	return quotation, nil
}

// Delete removes a quotation. Role gating (admin only) happens upstream.
func (s *QuotationService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.getForUpdate(ctx, id); err != nil {
		return err
	}

	if err := s.quotationRepo.Delete(ctx, id); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditDeletedQuotation, "quotation", id, nil))

	s.cache.invalidate(ctx, quotationCacheKey(id))

	return nil
}

// getForUpdate always reads storage, bypassing the cache, so merges never
// start from a stale snapshot.
func (s *QuotationService) getForUpdate(ctx context.Context, id string) (*domain.Quotation, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapQuotationNotFound(id)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return quotation, nil
}

func (s *QuotationService) agentName(ctx context.Context, actor domain.Actor) string {
	user, err := s.userRepo.GetByUID(ctx, actor.UID)
	if err == nil && user.DisplayName != "" {
		return user.DisplayName
	}
	return actor.DisplayName()
}

func (s *QuotationService) audit(ctx context.Context, entry *domain.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("audit write failed for %s %s: %v", entry.Action, entry.EntityID, err)
	}
}

func quotationCacheKey(id string) string {
	return "quotation:" + id
}
