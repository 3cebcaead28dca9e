package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/repository"
	customError "github.com/finlend/origination-engine/pkg/errors"

	"github.com/google/uuid"
)

// NotificationService fans notifications out to recipients. Dispatch is
// best-effort: a failed write is logged and never fails the operation that
// triggered it.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// NotifyHighValueQuotation alerts every admin and managing-director account
// that a high-value quotation was created or re-classified. Called
// synchronously before the create/update returns, so "created" implies
// "notifications dispatched".
func (s *NotificationService) NotifyHighValueQuotation(ctx context.Context, actor domain.Actor, quotation *domain.Quotation) {
	recipients, err := s.userRepo.ListByRoles(ctx, domain.RoleAdmin, domain.RoleMD)
	if err != nil {
		log.Printf("high-value fan-out: listing recipients failed: %v", err)
		return
	}

	message := fmt.Sprintf("%s created a high-value quotation %s for %s",
		actor.DisplayName(), quotation.QuotationNumber, quotation.LoanAmount.StringFixed(0))

	for _, recipient := range recipients {
		s.dispatch(ctx, &domain.Notification{
			ID:          uuid.New(),
			UserID:      recipient.UID,
			Type:        domain.NotificationHighValueQuotation,
			Title:       "High-Value Quotation Created",
			Message:     message,
			RelatedID:   quotation.ID.String(),
			RelatedType: "quotation",
			CreatedAt:   time.Now(),
		})
	}
}

// NotifyTopUpEligible tells the loan's agent and all admins that a loan has
// crossed its top-up eligibility date.
func (s *NotificationService) NotifyTopUpEligible(ctx context.Context, loan *domain.Loan) {
	message := fmt.Sprintf("Loan %s for %s is now eligible for a top-up", loan.LoanNumber, loan.ClientName)

	s.dispatch(ctx, &domain.Notification{
		ID:          uuid.New(),
		UserID:      loan.AgentID,
		Type:        domain.NotificationTopUpEligible,
		Title:       "Top-Up Eligible",
		Message:     message,
		RelatedID:   loan.ID.String(),
		RelatedType: "loan",
		CreatedAt:   time.Now(),
	})

	admins, err := s.userRepo.ListByRoles(ctx, domain.RoleAdmin)
	if err != nil {
		log.Printf("top-up fan-out: listing admins failed: %v", err)
		return
	}

	for _, admin := range admins {
		if admin.UID == loan.AgentID {
			continue
		}
		s.dispatch(ctx, &domain.Notification{
			ID:          uuid.New(),
			UserID:      admin.UID,
			Type:        domain.NotificationTopUpEligible,
			Title:       "Top-Up Eligible",
			Message:     message,
			RelatedID:   loan.ID.String(),
			RelatedType: "loan",
			CreatedAt:   time.Now(),
		})
	}
}

// ListForUser returns the acting user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return notifications, nil
}

// MarkRead flags one of the acting user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, n *domain.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("notification dispatch to %s failed: %v", n.UserID, err)
	}
}
