package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusClosed    = "closed"
	LoanStatusDefaulted = "defaulted"
)

// Canonical loan stages, in workflow order
const (
	StageApplicationSubmitted = "application_submitted"
	StageDocumentVerification = "document_verification"
	StageCreditAppraisal      = "credit_appraisal"
	StageSanction             = "sanction"
	StageAgreementSigned      = "agreement_signed"
	StageDisbursementReady    = "disbursement_ready"
)

// CanonicalStages lists the six loan stages in workflow order. The order is
// load-bearing: current-stage derivation scans this slice.
var CanonicalStages = []string{
	StageApplicationSubmitted,
	StageDocumentVerification,
	StageCreditAppraisal,
	StageSanction,
	StageAgreementSigned,
	StageDisbursementReady,
}

var stageLabels = map[string]string{
	StageApplicationSubmitted: "Application Submitted",
	StageDocumentVerification: "Document Verification",
	StageCreditAppraisal:      "Credit Appraisal",
	StageSanction:             "Sanction",
	StageAgreementSigned:      "Agreement Signed",
	StageDisbursementReady:    "Disbursement Ready",
}

// StageLabel returns the display label for a canonical stage.
func StageLabel(stage string) string {
	return stageLabels[stage]
}

// ValidStage reports whether stage is one of the six canonical values.
func ValidStage(stage string) bool {
	_, ok := stageLabels[stage]
	return ok
}

// StageDocument is a document attached to a stage.
type StageDocument struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// LoanStageDetail is one stage's state within a loan.
// Invariant: CompletedAt is set iff Completed is true.
type LoanStageDetail struct {
	Stage       string          `json:"stage"`
	Label       string          `json:"label"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
	Documents   []StageDocument `json:"documents,omitempty"`
}

// StageDetails is the JSONB-backed ordered list of the six stage entries.
type StageDetails []LoanStageDetail

func (s StageDetails) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StageDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for StageDetails", src)
	}
}

// InitialStages builds the six canonical stage entries, all incomplete.
func InitialStages() StageDetails {
	stages := make(StageDetails, 0, len(CanonicalStages))
	for _, stage := range CanonicalStages {
		stages = append(stages, LoanStageDetail{
			Stage: stage,
			Label: stageLabels[stage],
		})
	}
	return stages
}

// DeriveCurrentStage scans stages in canonical order and returns the last
// completed stage, or the first canonical stage if none are completed.
// Out-of-order completion is allowed; the scan order is what ranks stages,
// not completion timestamps.
func DeriveCurrentStage(stages StageDetails) string {
	completed := make(map[string]bool, len(stages))
	for _, s := range stages {
		if s.Completed {
			completed[s.Stage] = true
		}
	}

	current := CanonicalStages[0]
	for _, stage := range CanonicalStages {
		if completed[stage] {
			current = stage
		}
	}
	return current
}

// Loan represents an active or historical loan
type Loan struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	LoanNumber         string           `json:"loan_number" db:"loan_number"`
	ClientID           string           `json:"client_id" db:"client_id"`
	ClientName         string           `json:"client_name" db:"client_name"`
	AgentID            string           `json:"agent_id" db:"agent_id"`
	AgentName          string           `json:"agent_name" db:"agent_name"`
	LoanType           string           `json:"loan_type" db:"loan_type"`
	LoanAmount         decimal.Decimal  `json:"loan_amount" db:"loan_amount"`
	ApprovedAmount     *decimal.Decimal `json:"approved_amount,omitempty" db:"approved_amount"`
	InterestRate       decimal.Decimal  `json:"interest_rate" db:"interest_rate"`
	Tenure             int              `json:"tenure" db:"tenure"`
	EMI                decimal.Decimal  `json:"emi" db:"emi"`
	QuotationID        *string          `json:"quotation_id,omitempty" db:"quotation_id"`
	CurrentStage       string           `json:"current_stage" db:"current_stage"`
	Stages             StageDetails     `json:"stages" db:"stages"`
	DisbursementDate   *time.Time       `json:"disbursement_date,omitempty" db:"disbursement_date"`
	DisbursementAmount *decimal.Decimal `json:"disbursement_amount,omitempty" db:"disbursement_amount"`
	TopUpEligibleDate  *time.Time       `json:"top_up_eligible_date,omitempty" db:"top_up_eligible_date"`
	TopUpNotified      bool             `json:"top_up_notified" db:"top_up_notified"`
	Status             string           `json:"status" db:"status"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID     string          `json:"client_id" validate:"required"`
	ClientName   string          `json:"client_name" validate:"required"`
	LoanType     string          `json:"loan_type" validate:"required,oneof=personal business vehicle home other"`
	LoanAmount   decimal.Decimal `json:"loan_amount" validate:"required"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Tenure       int             `json:"tenure" validate:"required,gt=0"`
	QuotationID  *string         `json:"quotation_id,omitempty"`
}

type UpdateLoanStageRequest struct {
	Stage     string  `json:"stage" validate:"required"`
	Completed bool    `json:"completed"`
	Remarks   *string `json:"remarks,omitempty"`
}

type DisburseLoanRequest struct {
	DisbursementAmount *decimal.Decimal `json:"disbursement_amount,omitempty"`
}

type LoanFilter struct {
	Status   string
	AgentID  string
	ClientID string
	Limit    int
}
