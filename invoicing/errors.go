/*
errors.go - Centralized error types for the billing layer

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations wrap these; callers classify with errors.Is.
*/
package invoicing

import (
	"errors"
	"fmt"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateInvoice is returned when a session's invoices already
	// exist in the journal. Expected on concurrent or repeated approvals.
	ErrDuplicateInvoice = errors.New("invoice already journaled for session")

	// ErrSessionAlreadyAggregated is returned when a batch write includes
	// a session that is already a member of an existing line.
	ErrSessionAlreadyAggregated = errors.New("session already aggregated into a batch line")

	// ErrBatchLineFinal is returned when transitioning a line that already
	// left pending. Lines are immutable after their first transition.
	ErrBatchLineFinal = errors.New("batch line already transitioned")

	// ErrSessionNotFound is returned when a referenced session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfigNotFound is returned when a referenced service
	// configuration doesn't exist.
	ErrConfigNotFound = errors.New("service configuration not found")

	// ErrInvoiceNotFound is returned when a referenced invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrBatchLineNotFound is returned when a referenced line doesn't exist.
	ErrBatchLineNotFound = errors.New("batch line not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateInvoiceError identifies which (session, client) pair was already
// journaled.
type DuplicateInvoiceError struct {
	SessionID pricing.SessionID
	ClientID  pricing.ClientID
}

func (e *DuplicateInvoiceError) Error() string {
	return fmt.Sprintf("invoice already journaled: session %s client %s", e.SessionID, e.ClientID)
}

func (e *DuplicateInvoiceError) Unwrap() error {
	return ErrDuplicateInvoice
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to a conflicting or invalid
// request rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateInvoice) ||
		errors.Is(err, ErrSessionAlreadyAggregated) ||
		errors.Is(err, ErrBatchLineFinal) ||
		errors.Is(err, pricing.ErrInvalidInput)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrBatchLineNotFound)
}
