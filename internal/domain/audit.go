package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditCreatedQuotation       = "created_quotation"
	AuditUpdatedQuotation       = "updated_quotation"
	AuditUpdatedQuotationStatus = "updated_quotation_status"
	AuditDeletedQuotation       = "deleted_quotation"
	AuditCreatedLoan            = "created_loan"
	AuditUpdatedLoanStage       = "updated_loan_stage"
	AuditDisbursedLoan          = "disbursed_loan"
	AuditUpdatedPolicy          = "updated_policy"
)

// Changes is a JSONB-backed map of the fields touched by an action.
type Changes map[string]interface{}

func (c Changes) Value() (driver.Value, error) {
	if c == nil {
		c = Changes{}
	}
	return json.Marshal(c)
}

func (c *Changes) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = Changes{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported type %T for Changes", src)
	}
}

// AuditLog is a write-only audit record emitted on every create/update.
type AuditLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	UserName   string    `json:"user_name" db:"user_name"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Changes    Changes   `json:"changes,omitempty" db:"changes"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// NewAuditLog builds an audit record attributed to actor.
func NewAuditLog(actor Actor, action, entityType, entityID string, changes Changes) *AuditLog {
	return &AuditLog{
		ID:         uuid.New(),
		UserID:     actor.UID,
		UserName:   actor.DisplayName(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Timestamp:  time.Now(),
	}
}
