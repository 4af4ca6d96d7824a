/*
errors.go - Centralized error types for the pricing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine has a deliberately small error surface: missing optional
  configuration (no override, no schedule entry, no cap) is never an
  error and always has a defined fallback. The only errors here are
  caller bugs - inputs the submission workflow was supposed to validate.

USAGE:
  if errors.Is(err, pricing.ErrInvalidInput) {
      // programming error upstream, not a business condition
  }
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for inputs the caller was expected to
	// validate: non-positive duration, zero attendees. This is a caller
	// bug, not a recoverable business condition.
	ErrInvalidInput = errors.New("invalid pricing input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError describes which precondition the caller violated.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid pricing input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
