/*
batch.go - Monthly scholarship batch aggregation

PURPOSE:
  Scholarship-eligible sessions are not invoiced at approval time; they
  are deferred and rolled into one flat-rate invoice line per client per
  calendar month. This file owns that roll-up.

GROUPING KEY:
  (client, billing month, service configuration). A client-month that
  mixes scholarship services with different flat rates gets one line per
  configuration, each priced at its own flat rate times its own count.

IDEMPOTENCE:
  Aggregate selects only sessions that are not already a member of any
  batch line, so re-running after lines exist produces nothing new. That
  filter is the whole mechanism - batch generation runs manually or on a
  daily schedule, never concurrently for one organization, so no separate
  locking is layered on top. Persisting a line and recording its member
  sessions must still happen in one store transaction (see BatchStore).

LIFECYCLE:
  Lines start pending. Transition to sent/void belongs to the invoice
  delivery collaborator; a line is immutable once transitioned.

SEE ALSO:
  - month.go: Billing month truncation
  - store.go: SessionSource / BatchStore contracts
*/
package invoicing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// BATCH LINE - One client-month scholarship roll-up
// =============================================================================

type BatchLineStatus string

const (
	BatchPending BatchLineStatus = "pending" // generated, awaiting review
	BatchSent    BatchLineStatus = "sent"    // delivered by the invoicing collaborator
	BatchVoid    BatchLineStatus = "void"
)

// BatchLine aggregates one client's scholarship sessions for one month under
// one service configuration. Total is always the configuration's flat rate
// times the number of member sessions. A session ID appears in at most one
// line, ever.
type BatchLine struct {
	ID              string
	OrganizationID  string
	ClientID        pricing.ClientID
	ServiceConfigID pricing.ServiceConfigID
	Month           BillingMonth
	SessionIDs      []pricing.SessionID
	Total           pricing.Money
	Status          BatchLineStatus
	CreatedAt       time.Time
}

// =============================================================================
// BATCH AGGREGATOR
// =============================================================================

// BatchAggregator rolls deferred scholarship sessions into monthly lines.
// It reads through interfaces and returns lines without persisting them;
// the caller commits the result via BatchStore in one transaction.
type BatchAggregator struct {
	Sessions SessionSource
	Configs  ConfigSource

	// Location is the organization's time zone for month truncation.
	// Nil means UTC.
	Location *time.Location
}

func NewBatchAggregator(sessions SessionSource, configs ConfigSource, loc *time.Location) *BatchAggregator {
	return &BatchAggregator{Sessions: sessions, Configs: configs, Location: loc}
}

type batchKey struct {
	client pricing.ClientID
	month  BillingMonth
	config pricing.ServiceConfigID
}

// Aggregate produces pending batch lines for every billable,
// scholarship-eligible, never-aggregated session dated on or before asOf.
// Running it twice in a row yields zero lines the second time, because the
// first run's membership records exclude those sessions from the candidate
// set.
func (a *BatchAggregator) Aggregate(ctx context.Context, orgID string, asOf time.Time) ([]BatchLine, error) {
	candidates, err := a.Sessions.ScholarshipCandidates(ctx, orgID, asOf)
	if err != nil {
		return nil, err
	}

	groups := make(map[batchKey][]pricing.SessionID)
	for _, s := range candidates {
		if !s.Status.Billable() {
			continue
		}
		clientID, ok := a.billedClient(ctx, s)
		if !ok {
			continue
		}
		key := batchKey{
			client: clientID,
			month:  MonthOf(s.Date, a.Location),
			config: s.ServiceConfigID,
		}
		groups[key] = append(groups[key], s.ID)
	}

	now := time.Now()
	lines := make([]BatchLine, 0, len(groups))
	for key, sessionIDs := range groups {
		cfg, err := a.Configs.ServiceConfig(ctx, key.config)
		if err != nil {
			return nil, err
		}
		sort.Slice(sessionIDs, func(i, j int) bool { return sessionIDs[i] < sessionIDs[j] })
		lines = append(lines, BatchLine{
			ID:              uuid.NewString(),
			OrganizationID:  orgID,
			ClientID:        key.client,
			ServiceConfigID: key.config,
			Month:           key.month,
			SessionIDs:      sessionIDs,
			Total:           cfg.ScholarshipFlatRate.MulInt(len(sessionIDs)).RoundCents(),
			Status:          BatchPending,
			CreatedAt:       now,
		})
	}

	// Deterministic output order for review screens and tests.
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ClientID != lines[j].ClientID {
			return lines[i].ClientID < lines[j].ClientID
		}
		if lines[i].Month != lines[j].Month {
			return lines[i].Month.Before(lines[j].Month)
		}
		return lines[i].ServiceConfigID < lines[j].ServiceConfigID
	})
	return lines, nil
}

// billedClient returns the single client a scholarship session bills.
// A session ID appears in at most one batch line ever, so the flat rate is
// charged once: to the first attendee when the service itself is
// scholarship-flagged, otherwise to the first attendee whose own
// arrangement is scholarship.
func (a *BatchAggregator) billedClient(ctx context.Context, s Session) (pricing.ClientID, bool) {
	if len(s.Attendees) == 0 {
		return "", false
	}

	cfg, err := a.Configs.ServiceConfig(ctx, s.ServiceConfigID)
	if err == nil && cfg.Scholarship {
		return s.Attendees[0].ClientID, true
	}

	for _, att := range s.Attendees {
		if att.PaymentMethod == pricing.PaymentScholarship {
			return att.ClientID, true
		}
	}
	return "", false
}
