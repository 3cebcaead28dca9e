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
)

// LoanService owns loan origination, the stage machine and top-up tracking.
type LoanService struct {
	loanRepo      repository.LoanRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditRepository
	policyRepo    repository.PolicyRepository
	sequences     *SequenceGenerator
	notifications *NotificationService
	cache         *entityCache
	now           func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	policyRepo repository.PolicyRepository,
	sequences *SequenceGenerator,
	notifications *NotificationService,
	redisClient *redis.Client,
	cacheTTL time.Duration,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		policyRepo:    policyRepo,
		sequences:     sequences,
		notifications: notifications,
		cache:         newEntityCache(redisClient, cacheTTL),
		now:           time.Now,
	}
}

// Create originates a loan: EMI from the calculator, number from the sequence
// generator, all six stages initialized incomplete, top-up eligibility set
// from policy.
func (s *LoanService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanRequest) (*domain.Loan, error) {
	if err := validateTerms(req.LoanAmount, req.InterestRate, req.Tenure); err != nil {
		return nil, err
	}

	emi := finance.CalculateEMI(req.LoanAmount, req.InterestRate, req.Tenure)

	number, err := s.sequences.Next(ctx, domain.SequenceDomainLoans)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	topUpEligible := now.AddDate(0, s.topUpEligibilityMonths(ctx), 0)
	stages := domain.InitialStages()

	loan := &domain.Loan{
		ID:                uuid.New(),
		LoanNumber:        number,
		ClientID:          req.ClientID,
		ClientName:        req.ClientName,
		AgentID:           actor.UID,
		AgentName:         s.agentName(ctx, actor),
		LoanType:          req.LoanType,
		LoanAmount:        req.LoanAmount,
		InterestRate:      req.InterestRate,
		Tenure:            req.Tenure,
		EMI:               emi,
		QuotationID:       req.QuotationID,
		CurrentStage:      domain.DeriveCurrentStage(stages),
		Stages:            stages,
		TopUpEligibleDate: &topUpEligible,
		TopUpNotified:     false,
		Status:            domain.LoanStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditCreatedLoan, "loan", loan.ID.String(), nil))

	s.cache.set(ctx, loanCacheKey(loan.ID.String()), loan)

	return loan, nil
}

// Get retrieves a loan by id, read-through cached.
func (s *LoanService) Get(ctx context.Context, id string) (*domain.Loan, error) {
	var cached domain.Loan
	if s.cache.get(ctx, loanCacheKey(id), &cached) {
		return &cached, nil
	}

	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.cache.set(ctx, loanCacheKey(id), loan)

	return loan, nil
}

// List retrieves loans matching the filter.
func (s *LoanService) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// UpdateStage marks one canonical stage complete or incomplete. Stages may be
// toggled in any order (administrative corrections are allowed); the current
// stage is always re-derived by the canonical-order scan, never set directly.
func (s *LoanService) UpdateStage(ctx context.Context, actor domain.Actor, id string, req *domain.UpdateLoanStageRequest) (*domain.Loan, error) {
	if !domain.ValidStage(req.Stage) {
		return nil, customError.WrapInvalidStage(req.Stage)
	}

	loan, err := s.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range loan.Stages {
		if loan.Stages[i].Stage == req.Stage {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, customError.WrapInvalidStage(req.Stage)
	}

	loan.Stages[idx].Completed = req.Completed
	if req.Completed {
		completedAt := s.now()
		loan.Stages[idx].CompletedAt = &completedAt
	} else {
		loan.Stages[idx].CompletedAt = nil
	}
	if req.Remarks != nil {
		loan.Stages[idx].Remarks = *req.Remarks
	}

	loan.CurrentStage = domain.DeriveCurrentStage(loan.Stages)
	loan.UpdatedAt = s.now()

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditUpdatedLoanStage, "loan", id, domain.Changes{
		"stage":     req.Stage,
		"completed": req.Completed,
		"remarks":   req.Remarks,
	}))

	s.cache.invalidate(ctx, loanCacheKey(id))

	return loan, nil
}

// Disburse records the money movement. It deliberately leaves status and
// stages alone: disbursement is orthogonal to paperwork tracking.
func (s *LoanService) Disburse(ctx context.Context, actor domain.Actor, id string, req *domain.DisburseLoanRequest) (*domain.Loan, error) {
	loan, err := s.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := loan.LoanAmount
	if req != nil && req.DisbursementAmount != nil {
		if !req.DisbursementAmount.IsPositive() {
			return nil, customError.WrapFieldValidation("disbursement_amount", "disbursement amount must be positive")
		}
		amount = *req.DisbursementAmount
	}

	now := s.now()
	loan.DisbursementDate = &now
	loan.DisbursementAmount = &amount
	loan.UpdatedAt = now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.audit(ctx, domain.NewAuditLog(actor, domain.AuditDisbursedLoan, "loan", id, domain.Changes{
		"disbursement_amount": amount.String(),
	}))

	s.cache.invalidate(ctx, loanCacheKey(id))

	return loan, nil
}

// ListTopUpEligible returns active loans whose eligibility date has arrived
// (inclusive) and which have not been notified. The query does not flag
// anything itself; callers mark loans notified only after acting on them.
func (s *LoanService) ListTopUpEligible(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListTopUpEligible(ctx, s.now())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// RunTopUpSweep notifies agents and admins about every eligible loan, then
// marks each loan notified. Marking happens per loan after its notifications
// are dispatched, so a mid-sweep failure re-notifies rather than silently
// skipping.
func (s *LoanService) RunTopUpSweep(ctx context.Context) (int, error) {
	loans, err := s.ListTopUpEligible(ctx)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, loan := range loans {
		s.notifications.NotifyTopUpEligible(ctx, loan)

		if err := s.loanRepo.MarkTopUpNotified(ctx, loan.ID.String()); err != nil {
			log.Printf("marking loan %s top-up notified failed: %v", loan.LoanNumber, err)
			continue
		}

		s.cache.invalidate(ctx, loanCacheKey(loan.ID.String()))
		notified++
	}

	return notified, nil
}

func (s *LoanService) getForUpdate(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LoanService) topUpEligibilityMonths(ctx context.Context) int {
	policy, err := s.policyRepo.Get(ctx)
	if err != nil {
		log.Printf("policy unavailable for top-up window, using default: %v", err)
		return domain.DefaultTopUpEligibilityMonths
	}
	if policy.TopUpEligibilityMonths <= 0 {
		return domain.DefaultTopUpEligibilityMonths
	}
	return policy.TopUpEligibilityMonths
}

func (s *LoanService) agentName(ctx context.Context, actor domain.Actor) string {
	user, err := s.userRepo.GetByUID(ctx, actor.UID)
	if err == nil && user.DisplayName != "" {
		return user.DisplayName
	}
	return actor.DisplayName()
}

func (s *LoanService) audit(ctx context.Context, entry *domain.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("audit write failed for %s %s: %v", entry.Action, entry.EntityID, err)
	}
}

func loanCacheKey(id string) string {
	return "loan:" + id
}
