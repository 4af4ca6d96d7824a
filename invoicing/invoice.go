/*
Package invoicing turns priced sessions into client invoices and monthly
scholarship batch lines.

PURPOSE:
  The pricing package decides amounts; this package decides what gets
  billed to whom, and once. It owns:
  - Invoice: one client's charge for one session, journaled append-only
  - BatchLine: one client's monthly scholarship roll-up
  - BatchAggregator: monthly grouping of deferred scholarship sessions

KEY CONCEPTS IN THIS FILE (invoice.go):
  - Invoice: Immutable snapshot of a priced session for one client
  - Journal: Append-only invoice log with idempotency keys
  - BuildInvoices: Breakdown -> per-attendee invoices

CRITICAL INVARIANTS:
  1. AT-MOST-ONCE: The journal key (session+client) is unique; two
     concurrent approvals of the same session cannot produce two invoices.
  2. IMMUTABLE SNAPSHOT: Once persisted, an invoice's money fields never
     change. Policy/config changes never re-price existing invoices.
  3. NO DOUBLE BILLING: A scholarship session is either journaled as an
     invoice or rolled into exactly one batch line, never both.

SEE ALSO:
  - batch.go: Scholarship batch aggregation
  - store.go: Persistence interfaces
  - store/memory.go: In-memory implementation for tests
*/
package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// INVOICE - One client's charge for one session
// =============================================================================

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending" // created, awaiting delivery
	InvoiceSent    InvoiceStatus = "sent"    // handed to the delivery collaborator
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceVoid    InvoiceStatus = "void"
)

// Invoice is one client's charge for one session. Amount is this client's
// allocated share; the session-level breakdown fields are denormalized onto
// every invoice so a persisted invoice is a complete, immutable snapshot.
type Invoice struct {
	ID              string
	SessionID       pricing.SessionID
	ClientID        pricing.ClientID
	ServiceConfigID pricing.ServiceConfigID
	ContractorID    pricing.ContractorID
	SessionDate     time.Time

	// Amount is this client's share of the session total.
	Amount pricing.Money

	// Session-level breakdown, identical across a session's invoices.
	SessionTotal  pricing.Money
	OrgCut        pricing.Money
	Rent          pricing.Money
	ContractorPay pricing.Money

	Status    InvoiceStatus
	CreatedAt time.Time
}

// JournalKey is the idempotency key for this invoice: one per
// (session, client) pair, so re-approving a session is a no-op.
func (inv Invoice) JournalKey() string {
	return fmt.Sprintf("%s/%s", inv.SessionID, inv.ClientID)
}

// BuildInvoices converts a session's pricing breakdown into one invoice per
// attendee. Scholarship-billed sessions are deferred to batch aggregation
// and must not be passed here; callers check Session.ScholarshipEligible
// (or Breakdown.ScholarshipBilling) first.
func BuildInvoices(s Session, b *pricing.Breakdown, now time.Time) []Invoice {
	invoices := make([]Invoice, len(s.Attendees))
	for i, att := range s.Attendees {
		invoices[i] = Invoice{
			ID:              uuid.NewString(),
			SessionID:       s.ID,
			ClientID:        att.ClientID,
			ServiceConfigID: s.ServiceConfigID,
			ContractorID:    s.ContractorID,
			SessionDate:     s.Date,
			Amount:          b.PerAttendee[i],
			SessionTotal:    b.Total,
			OrgCut:          b.OrgCut,
			Rent:            b.Rent,
			ContractorPay:   b.ContractorPay,
			Status:          InvoicePending,
			CreatedAt:       now,
		}
	}
	return invoices
}

// =============================================================================
// JOURNAL - Append-only invoice log
// =============================================================================

// Journal wraps an InvoiceStore with idempotency enforcement. Invoices are
// append-only: corrections are issued as void + reissue, never edits.
type Journal struct {
	Store InvoiceStore
}

func NewJournal(store InvoiceStore) *Journal {
	return &Journal{Store: store}
}

// Append persists a session's invoices atomically. If any journal key
// already exists the whole batch is rejected with ErrDuplicateInvoice -
// the session was already billed.
func (j *Journal) Append(ctx context.Context, invoices []Invoice) error {
	for _, inv := range invoices {
		exists, err := j.Store.InvoiceExists(ctx, inv.JournalKey())
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateInvoiceError{SessionID: inv.SessionID, ClientID: inv.ClientID}
		}
	}
	return j.Store.AppendInvoices(ctx, invoices)
}
