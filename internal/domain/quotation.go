package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation lifecycle statuses
const (
	QuotationStatusDraft     = "draft"
	QuotationStatusFinalized = "finalized"
	QuotationStatusSent      = "sent"
	QuotationStatusAccepted  = "accepted"
	QuotationStatusRejected  = "rejected"
)

// Loan product types shared by quotations and loans
const (
	LoanTypePersonal = "personal"
	LoanTypeBusiness = "business"
	LoanTypeVehicle  = "vehicle"
	LoanTypeHome     = "home"
	LoanTypeOther    = "other"
)

// High-value reason codes, in evaluation order
const (
	ReasonAmountExceedsThreshold = "amount_exceeds_threshold"
	ReasonLowInterestRate        = "low_interest_rate"
	ReasonLongTenure             = "long_tenure"
)

// ReasonList is a JSONB-backed list of high-value reason codes.
type ReasonList []string

func (r ReasonList) Value() (driver.Value, error) {
	if r == nil {
		r = ReasonList{}
	}
	return json.Marshal(r)
}

func (r *ReasonList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = ReasonList{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for ReasonList", src)
	}
}

// Quotation represents a proposed loan offer
type Quotation struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	QuotationNumber  string          `json:"quotation_number" db:"quotation_number"`
	ClientID         string          `json:"client_id" db:"client_id"`
	ClientName       string          `json:"client_name" db:"client_name"`
	AgentID          string          `json:"agent_id" db:"agent_id"`
	AgentName        string          `json:"agent_name" db:"agent_name"`
	LoanType         string          `json:"loan_type" db:"loan_type"`
	LoanAmount       decimal.Decimal `json:"loan_amount" db:"loan_amount"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	Tenure           int             `json:"tenure" db:"tenure"`
	ProcessingFee    decimal.Decimal `json:"processing_fee" db:"processing_fee"`
	EMI              decimal.Decimal `json:"emi" db:"emi"`
	IsHighValue      bool            `json:"is_high_value" db:"is_high_value"`
	HighValueReasons ReasonList      `json:"high_value_reasons" db:"high_value_reasons"`
	Status           string          `json:"status" db:"status"`
	Notes            string          `json:"notes" db:"notes"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	SentAt           *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
}

// ValidQuotationStatus reports whether s is a known lifecycle status.
func ValidQuotationStatus(s string) bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusFinalized, QuotationStatusSent,
		QuotationStatusAccepted, QuotationStatusRejected:
		return true
	}
	return false
}

// ValidLoanType reports whether t is a known loan product type.
func ValidLoanType(t string) bool {
	switch t {
	case LoanTypePersonal, LoanTypeBusiness, LoanTypeVehicle, LoanTypeHome, LoanTypeOther:
		return true
	}
	return false
}

// DTOs for requests and responses

type CreateQuotationRequest struct {
	ClientID      string          `json:"client_id" validate:"required"`
	ClientName    string          `json:"client_name" validate:"required"`
	LoanType      string          `json:"loan_type" validate:"required,oneof=personal business vehicle home other"`
	LoanAmount    decimal.Decimal `json:"loan_amount" validate:"required"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Tenure        int             `json:"tenure" validate:"required,gt=0"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	Notes         string          `json:"notes"`
}

// UpdateQuotationRequest is a partial update. Pointer fields distinguish
// "absent" from "zero valued" so that a patch setting interest_rate to 0
// still triggers EMI recomputation.
type UpdateQuotationRequest struct {
	ClientID      *string          `json:"client_id,omitempty"`
	ClientName    *string          `json:"client_name,omitempty"`
	LoanType      *string          `json:"loan_type,omitempty" validate:"omitempty,oneof=personal business vehicle home other"`
	LoanAmount    *decimal.Decimal `json:"loan_amount,omitempty"`
	InterestRate  *decimal.Decimal `json:"interest_rate,omitempty"`
	Tenure        *int             `json:"tenure,omitempty" validate:"omitempty,gt=0"`
	ProcessingFee *decimal.Decimal `json:"processing_fee,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// TouchesTerms reports whether the patch changes any field that EMI and the
// high-value classification are derived from.
func (r *UpdateQuotationRequest) TouchesTerms() bool {
	return r.LoanAmount != nil || r.InterestRate != nil || r.Tenure != nil
}

type UpdateQuotationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft finalized sent accepted rejected"`
}

type QuotationFilter struct {
	Status      string
	AgentID     string
	IsHighValue *bool
	Limit       int
}
