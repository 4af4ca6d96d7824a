package invoicing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/invoicing/store"
	"github.com/weberl48/MTApp-sub000/pricing"
)

// =============================================================================
// INVOICE JOURNAL - At-most-once billing per session
// =============================================================================

func groupSession() invoicing.Session {
	return invoicing.Session{
		ID:              "s-100",
		OrganizationID:  testOrg,
		ServiceConfigID: "group-music",
		ContractorID:    "contractor-1",
		Date:            time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Attendees: []pricing.Attendee{
			{ClientID: "alice", PaymentMethod: pricing.PaymentPrivatePay},
			{ClientID: "bob", PaymentMethod: pricing.PaymentGroupHome},
			{ClientID: "carol", PaymentMethod: pricing.PaymentSelfDirected},
		},
		Status: invoicing.SessionApproved,
	}
}

func groupBreakdown(t *testing.T, s invoicing.Session) *pricing.Breakdown {
	t.Helper()
	b, err := pricing.NewCalculator().Calculate(pricing.SessionInput{
		Config: pricing.ServiceConfig{
			ID:            s.ServiceConfigID,
			BaseRate:      usd("50"),
			PerPersonRate: usd("20"),
		},
		ContractorID:    s.ContractorID,
		DurationMinutes: s.DurationMinutes,
		Attendees:       s.Attendees,
	})
	require.NoError(t, err)
	return b
}

func TestJournal_BuildInvoices_OnePerAttendee(t *testing.T) {
	s := groupSession()
	b := groupBreakdown(t, s)
	now := time.Now()

	invoices := invoicing.BuildInvoices(s, b, now)

	require.Len(t, invoices, 3)
	sum := pricing.ZeroMoney
	for i, inv := range invoices {
		assert.Equal(t, s.Attendees[i].ClientID, inv.ClientID)
		assert.Equal(t, invoicing.InvoicePending, inv.Status)
		assert.True(t, inv.SessionTotal.Equal(b.Total))
		sum = sum.Add(inv.Amount)
	}
	assert.True(t, sum.Equal(b.Total), "per-client amounts must sum to the session total")
}

func TestJournal_SecondApproval_Rejected(t *testing.T) {
	// GIVEN: A session already journaled
	// WHEN: Approving it again (retry, double click, racing handler)
	// THEN: ErrDuplicateInvoice; the journal never bills a session twice

	s := groupSession()
	b := groupBreakdown(t, s)
	journal := invoicing.NewJournal(store.NewMemory())
	ctx := context.Background()

	require.NoError(t, journal.Append(ctx, invoicing.BuildInvoices(s, b, time.Now())))

	err := journal.Append(ctx, invoicing.BuildInvoices(s, b, time.Now()))
	assert.ErrorIs(t, err, invoicing.ErrDuplicateInvoice)

	var dup *invoicing.DuplicateInvoiceError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, s.ID, dup.SessionID)
}

func TestJournal_RoundTrip_MoneyFieldsUnchanged(t *testing.T) {
	// Persisting then re-reading an invoice must not alter any money field.

	s := groupSession()
	b := groupBreakdown(t, s)
	m := store.NewMemory()
	ctx := context.Background()

	written := invoicing.BuildInvoices(s, b, time.Now())
	require.NoError(t, invoicing.NewJournal(m).Append(ctx, written))

	got, err := m.ListInvoicesByClient(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].Amount.Equal(written[0].Amount))
	assert.True(t, got[0].SessionTotal.Equal(written[0].SessionTotal))
	assert.True(t, got[0].OrgCut.Equal(written[0].OrgCut))
	assert.True(t, got[0].Rent.Equal(written[0].Rent))
	assert.True(t, got[0].ContractorPay.Equal(written[0].ContractorPay))
}

// =============================================================================
// BATCH LINE LIFECYCLE
// =============================================================================

func TestBatchLine_ImmutableAfterFirstTransition(t *testing.T) {
	m := store.NewMemory()
	m.PutConfig(scholarshipCfg("schol-music", "40"))
	m.PutSession(scholarshipSession("s-1", "schol-music", "alice",
		time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)))

	ctx := context.Background()
	lines, err := newAggregator(m, time.UTC).Aggregate(ctx, testOrg,
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NoError(t, m.AppendBatchLines(ctx, lines))

	require.NoError(t, m.TransitionBatchLine(ctx, lines[0].ID, invoicing.BatchSent))

	err = m.TransitionBatchLine(ctx, lines[0].ID, invoicing.BatchVoid)
	assert.ErrorIs(t, err, invoicing.ErrBatchLineFinal)
}
