package squadledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("squadledger: not found")
	ErrInvalidInput = errors.New("squadledger: invalid input")

	// Receipt errors
	ErrReceiptNotFound  = errors.New("squadledger: receipt not found")
	ErrAmountMismatch   = errors.New("squadledger: debt amounts do not add up to receipt amount")
	ErrEmptySplit       = errors.New("squadledger: receipt has no debtors")
	ErrDuplicateDebtor  = errors.New("squadledger: duplicate debtor in split")
	ErrInvalidAmount    = errors.New("squadledger: amount must be positive")
	ErrCurrencyMismatch = errors.New("squadledger: currency does not match ledger currency")

	// Payment errors
	ErrPaymentNotFound = errors.New("squadledger: payment not found")
	ErrSelfPayment     = errors.New("squadledger: payer and recipient are the same user")

	// Access errors
	ErrNotAParticipant = errors.New("squadledger: user is not a participant")

	// Store errors
	ErrStoreNotReady     = errors.New("squadledger: store not ready")
	ErrStoreClosed       = errors.New("squadledger: store is closed")
	ErrTransactionFailed = errors.New("squadledger: transaction failed")
	ErrMigrationFailed   = errors.New("squadledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("squadledger: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "squadledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("squadledger: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrReceiptNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrEmptySplit) ||
		errors.Is(err, ErrDuplicateDebtor) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrSelfPayment)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
