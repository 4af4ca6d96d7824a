/*
store.go - Persistence interfaces for the billing layer

PURPOSE:
  The engine is pure computation; these interfaces are the seam to the
  persistence collaborator. Implementations must provide the at-most-once
  guarantees the invariants depend on:

  - AppendInvoices: atomic per session; journal keys unique
  - AppendBatchLines: one transaction writes the line AND its session
    membership records, so a crash cannot leave a half-aggregated batch;
    a unique constraint on session membership makes double aggregation
    impossible even if two runs race

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (same patterns apply to PostgreSQL)
  - invoicing/store: in-memory, for tests and the demo scenario
*/
package invoicing

import (
	"context"
	"time"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// READ-SIDE SOURCES
// =============================================================================

// SessionSource supplies sessions to the batch aggregator.
type SessionSource interface {
	// ScholarshipCandidates returns billable scholarship-eligible sessions
	// dated on or before asOf that are not a member of any batch line.
	// The "not already a member" filter is what makes aggregation
	// idempotent.
	ScholarshipCandidates(ctx context.Context, orgID string, asOf time.Time) ([]Session, error)
}

// ConfigSource resolves service configurations by ID.
type ConfigSource interface {
	ServiceConfig(ctx context.Context, id pricing.ServiceConfigID) (pricing.ServiceConfig, error)
}

// =============================================================================
// WRITE-SIDE STORES
// =============================================================================

// InvoiceStore persists invoices. Append-only: no update of money fields,
// ever. Status transitions are the only mutation.
type InvoiceStore interface {
	// AppendInvoices persists a session's invoices atomically. Fails with
	// ErrDuplicateInvoice if any journal key already exists.
	AppendInvoices(ctx context.Context, invoices []Invoice) error

	// InvoiceExists checks whether a journal key has been used.
	InvoiceExists(ctx context.Context, journalKey string) (bool, error)

	// ListInvoicesByClient returns a client's invoices, newest first.
	ListInvoicesByClient(ctx context.Context, clientID pricing.ClientID) ([]Invoice, error)
}

// BatchStore persists batch lines and their session membership.
type BatchStore interface {
	// AppendBatchLines writes lines and membership records in one
	// transaction. Fails with ErrSessionAlreadyAggregated if any member
	// session is already in a line.
	AppendBatchLines(ctx context.Context, lines []BatchLine) error

	// ListBatchLines returns an organization's lines, newest month first.
	ListBatchLines(ctx context.Context, orgID string) ([]BatchLine, error)

	// TransitionBatchLine moves a pending line to sent or void. Lines are
	// immutable after their first transition; any further transition
	// fails with ErrBatchLineFinal.
	TransitionBatchLine(ctx context.Context, lineID string, status BatchLineStatus) error
}
