package repository

import (
	"context"
	"time"

	"github.com/finlend/origination-engine/internal/domain"
)

// QuotationRepository defines the interface for quotation data operations
type QuotationRepository interface {
	// Create creates a new quotation
	Create(ctx context.Context, quotation *domain.Quotation) error

	// GetByID retrieves a quotation by its id
	GetByID(ctx context.Context, id string) (*domain.Quotation, error)

	// List retrieves quotations matching the filter, newest first
	List(ctx context.Context, filter domain.QuotationFilter) ([]*domain.Quotation, error)

	// Update persists the full quotation
	Update(ctx context.Context, quotation *domain.Quotation) error

	// Delete removes a quotation
	Delete(ctx context.Context, id string) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its id
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// List retrieves loans matching the filter, newest first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// Update persists the full loan
	Update(ctx context.Context, loan *domain.Loan) error

	// ListTopUpEligible returns active loans whose top-up eligibility date has
	// arrived (inclusive) and which have not yet been notified
	ListTopUpEligible(ctx context.Context, now time.Time) ([]*domain.Loan, error)

	// MarkTopUpNotified flags a loan so the sweep does not renotify it
	MarkTopUpNotified(ctx context.Context, id string) error
}

// PolicyRepository defines the interface for the singleton policy document
type PolicyRepository interface {
	// Get retrieves the policy document; implementations return sql.ErrNoRows
	// when none exists yet
	Get(ctx context.Context) (*domain.PolicyConfig, error)

	// Upsert creates or replaces the policy document
	Upsert(ctx context.Context, policy *domain.PolicyConfig) error
}

// SequenceRepository provides the atomic counter primitive for number
// generation
type SequenceRepository interface {
	// Increment atomically advances the counter for domain within year and
	// returns the allocated count. The first allocation of a new year yields 1.
	Increment(ctx context.Context, domain string, year int) (int, error)
}

// NotificationRepository defines the interface for notification records
type NotificationRepository interface {
	// Create persists one notification
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser retrieves a user's notifications, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)

	// MarkRead flags a notification as read
	MarkRead(ctx context.Context, id string, userID string) error
}

// AuditRepository is the write-only audit side channel
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// UserRepository reads the user directory
type UserRepository interface {
	// GetByUID retrieves one user
	GetByUID(ctx context.Context, uid string) (*domain.User, error)

	// ListByRoles returns users holding any of the given roles
	ListByRoles(ctx context.Context, roles ...string) ([]*domain.User, error)
}
