package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationHighValueQuotation = "high_value_quotation"
	NotificationTopUpEligible      = "topup_eligible"
)

// Notification is a per-recipient in-app notification record.
type Notification struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Read        bool      `json:"read" db:"read"`
	RelatedID   string    `json:"related_id,omitempty" db:"related_id"`
	RelatedType string    `json:"related_type,omitempty" db:"related_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
