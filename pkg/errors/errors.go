package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrQuotationNotFound   = errors.New("quotation not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrInvalidStage        = errors.New("invalid loan stage")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidLoanAmount   = errors.New("loan amount must be positive")
	ErrInvalidInterestRate = errors.New("interest rate must be between 0 and 100")
	ErrInvalidTenure       = errors.New("tenure must be a positive number of months")
	ErrSequenceExhausted   = errors.New("sequence allocation retries exhausted")
	ErrPolicyUnavailable   = errors.New("policy store unavailable")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
	Fields  map[string]string
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeQuotationNotFound = "QUOTATION_NOT_FOUND"
	ErrCodeLoanNotFound      = "LOAN_NOT_FOUND"
	ErrCodeInvalidStage      = "INVALID_STAGE"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// WrapValidation builds a validation error carrying field-level detail.
// Rejected before any state change.
func WrapValidation(message string, fields map[string]string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeValidation,
		Message: message,
		Fields:  fields,
	}
}

func WrapFieldValidation(field, message string) *BusinessError {
	return WrapValidation(message, map[string]string{field: message})
}

func WrapQuotationNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeQuotationNotFound,
		fmt.Sprintf("Quotation with ID %s not found", id),
		ErrQuotationNotFound,
	)
}

func WrapLoanNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", id),
		ErrLoanNotFound,
	)
}

func WrapInvalidStage(stage string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStage,
		fmt.Sprintf("%q is not a canonical loan stage", stage),
		ErrInvalidStage,
	)
}

func WrapInvalidStatus(status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStatus,
		fmt.Sprintf("%q is not a valid status", status),
		ErrInvalidStatus,
	)
}

// WrapDatabaseError marks a persistence failure as retryable infrastructure
// trouble. The HTTP layer maps it to a retryable 5xx.
func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuotationNotFound) ||
		errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrInvalidStage)
}

// IsValidation reports whether err is a validation-class BusinessError.
func IsValidation(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeValidation || be.Code == ErrCodeInvalidStatus
	}
	return false
}
