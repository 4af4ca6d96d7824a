/*
sqlite_test.go - Tests for the SQLite store

Exercises the guarantees the billing invariants depend on:
  - money fields survive a round trip unchanged
  - journal keys reject double billing
  - a session can join at most one batch line
  - batch lines are immutable after their first transition
  - the scholarship candidate query excludes aggregated and unapproved
    sessions
*/
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weberl48/MTApp-sub000/invoicing"
	"github.com/weberl48/MTApp-sub000/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func scholarshipConfig() *pricing.ServiceConfig {
	return &pricing.ServiceConfig{
		ID:                  "adaptive-lessons",
		Name:                "Adaptive Lessons",
		BaseRate:            pricing.MustParseMoney("50.00"),
		Scholarship:         true,
		ScholarshipFlatRate: pricing.MustParseMoney("40.00"),
		OrgCutPercent:       decimal.NewFromInt(30),
		RentPercent:         decimal.NewFromInt(10),
	}
}

func testSession(id string, status invoicing.SessionStatus, date time.Time) invoicing.Session {
	return invoicing.Session{
		ID:              pricing.SessionID(id),
		OrganizationID:  "org-1",
		ServiceConfigID: "adaptive-lessons",
		ContractorID:    "contractor-1",
		Date:            date,
		DurationMinutes: 30,
		Attendees: []pricing.Attendee{
			{ClientID: "alice", PaymentMethod: pricing.PaymentScholarship},
		},
		Status: status,
	}
}

// =============================================================================
// SERVICE CONFIGS
// =============================================================================

func TestServiceConfigRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := scholarshipConfig()
	cfg.PerPersonRate = pricing.MustParseMoney("20.00")
	cap := pricing.MustParseMoney("150.00")
	cfg.TotalCap = &cap
	cfg.PaySchedule = map[int]pricing.Money{
		30: pricing.MustParseMoney("38.50"),
		60: pricing.MustParseMoney("65.00"),
	}

	require.NoError(t, store.SaveServiceConfig(ctx, cfg))

	got, err := store.ServiceConfig(ctx, cfg.ID)
	require.NoError(t, err)

	assert.Equal(t, cfg.Name, got.Name)
	assert.True(t, got.BaseRate.Equal(cfg.BaseRate))
	assert.True(t, got.PerPersonRate.Equal(cfg.PerPersonRate))
	assert.True(t, got.Scholarship)
	assert.True(t, got.ScholarshipFlatRate.Equal(cfg.ScholarshipFlatRate))
	require.NotNil(t, got.TotalCap)
	assert.True(t, got.TotalCap.Equal(cap))
	require.Len(t, got.PaySchedule, 2)
	assert.True(t, got.PaySchedule[30].Equal(pricing.MustParseMoney("38.50")))
}

func TestServiceConfigNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ServiceConfig(context.Background(), "nope")
	assert.ErrorIs(t, err, invoicing.ErrConfigNotFound)
}

func TestSaveServiceConfigOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := scholarshipConfig()
	require.NoError(t, store.SaveServiceConfig(ctx, cfg))

	cfg.ScholarshipFlatRate = pricing.MustParseMoney("45.00")
	require.NoError(t, store.SaveServiceConfig(ctx, cfg))

	got, err := store.ServiceConfig(ctx, cfg.ID)
	require.NoError(t, err)
	assert.True(t, got.ScholarshipFlatRate.Equal(pricing.MustParseMoney("45.00")))

	all, err := store.ListServiceConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// =============================================================================
// CONTRACTORS AND OVERRIDES
// =============================================================================

func TestPayIncreaseFor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveContractor(ctx, Contractor{
		ID: "c-plain", Name: "Plain",
	}))
	require.NoError(t, store.SaveContractor(ctx, Contractor{
		ID: "c-bonus", Name: "Bonus", FlatBonus: "10.00",
	}))

	inc, err := store.PayIncreaseFor(ctx, "c-plain")
	require.NoError(t, err)
	assert.Nil(t, inc)

	inc, err = store.PayIncreaseFor(ctx, "c-bonus")
	require.NoError(t, err)
	require.NotNil(t, inc)
	assert.True(t, inc.FlatBonus.Equal(pricing.MustParseMoney("10.00")))
}

func TestRateOverrideRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRateOverride(ctx, pricing.ContractorRateOverride{
		ContractorID:    "c-1",
		ServiceConfigID: "adaptive-lessons",
		CustomBasePay:   pricing.MustParseMoney("45.00"),
	}))

	got, err := store.RateOverrideFor(ctx, "c-1", "adaptive-lessons")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CustomBasePay.Equal(pricing.MustParseMoney("45.00")))

	// No override for a different service
	got, err = store.RateOverrideFor(ctx, "c-1", "other-service")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessionRoundTripPreservesAttendeeOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := testSession("s-1", invoicing.SessionApproved, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC))
	sess.Attendees = []pricing.Attendee{
		{ClientID: "zoe", PaymentMethod: pricing.PaymentScholarship},
		{ClientID: "alice", PaymentMethod: pricing.PaymentPrivatePay},
		{ClientID: "bob", PaymentMethod: pricing.PaymentGroupHome},
	}
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got.Attendees, 3)
	// Attendee order is load-bearing: the first attendee can decide who
	// a scholarship batch bills.
	assert.Equal(t, pricing.ClientID("zoe"), got.Attendees[0].ClientID)
	assert.Equal(t, pricing.ClientID("alice"), got.Attendees[1].ClientID)
	assert.Equal(t, pricing.ClientID("bob"), got.Attendees[2].ClientID)
	assert.Equal(t, invoicing.SessionApproved, got.Status)
	assert.Equal(t, 30, got.DurationMinutes)
}

func TestUpdateSessionStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := testSession("s-1", invoicing.SessionSubmitted, time.Now())
	require.NoError(t, store.SaveSession(ctx, sess))

	require.NoError(t, store.UpdateSessionStatus(ctx, "s-1", invoicing.SessionApproved))
	got, err := store.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, invoicing.SessionApproved, got.Status)

	err = store.UpdateSessionStatus(ctx, "missing", invoicing.SessionApproved)
	assert.ErrorIs(t, err, invoicing.ErrSessionNotFound)
}

func TestScholarshipCandidatesFiltering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveServiceConfig(ctx, scholarshipConfig()))

	// Approved and in range: candidate
	require.NoError(t, store.SaveSession(ctx,
		testSession("s-approved", invoicing.SessionApproved, asOf.AddDate(0, 0, -10))))
	// Still submitted: not billable
	require.NoError(t, store.SaveSession(ctx,
		testSession("s-submitted", invoicing.SessionSubmitted, asOf.AddDate(0, 0, -10))))
	// Dated after the cutoff
	require.NoError(t, store.SaveSession(ctx,
		testSession("s-future", invoicing.SessionApproved, asOf.AddDate(0, 0, 5))))

	got, err := store.ScholarshipCandidates(ctx, "org-1", asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pricing.SessionID("s-approved"), got[0].ID)
	require.Len(t, got[0].Attendees, 1)
}

func TestScholarshipCandidatesByAttendeeArrangement(t *testing.T) {
	// A session on a non-scholarship service still qualifies when an
	// attendee pays by scholarship arrangement.
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	cfg := scholarshipConfig()
	cfg.ID = "music-group"
	cfg.Scholarship = false
	cfg.ScholarshipFlatRate = pricing.ZeroMoney
	require.NoError(t, store.SaveServiceConfig(ctx, cfg))

	sess := testSession("s-1", invoicing.SessionApproved, asOf.AddDate(0, 0, -3))
	sess.ServiceConfigID = "music-group"
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.ScholarshipCandidates(ctx, "org-1", asOf)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Swap the attendee to private pay: no longer a candidate
	sess.Attendees[0].PaymentMethod = pricing.PaymentPrivatePay
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err = store.ScholarshipCandidates(ctx, "org-1", asOf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScholarshipCandidatesExcludeAggregated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveServiceConfig(ctx, scholarshipConfig()))
	require.NoError(t, store.SaveSession(ctx,
		testSession("s-1", invoicing.SessionApproved, asOf.AddDate(0, 0, -10))))

	month, err := invoicing.ParseBillingMonth("2026-03")
	require.NoError(t, err)
	require.NoError(t, store.AppendBatchLines(ctx, []invoicing.BatchLine{{
		ID:              "line-1",
		OrganizationID:  "org-1",
		ClientID:        "alice",
		ServiceConfigID: "adaptive-lessons",
		Month:           month,
		SessionIDs:      []pricing.SessionID{"s-1"},
		Total:           pricing.MustParseMoney("40.00"),
		Status:          invoicing.BatchPending,
		CreatedAt:       asOf,
	}}))

	got, err := store.ScholarshipCandidates(ctx, "org-1", asOf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// INVOICES
// =============================================================================

func testInvoice(id, sessionID, clientID string) invoicing.Invoice {
	return invoicing.Invoice{
		ID:              id,
		SessionID:       pricing.SessionID(sessionID),
		ClientID:        pricing.ClientID(clientID),
		ServiceConfigID: "adaptive-lessons",
		ContractorID:    "contractor-1",
		SessionDate:     time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		Amount:          pricing.MustParseMoney("36.67"),
		SessionTotal:    pricing.MustParseMoney("110.00"),
		OrgCut:          pricing.MustParseMoney("33.00"),
		Rent:            pricing.MustParseMoney("11.00"),
		ContractorPay:   pricing.MustParseMoney("66.00"),
		Status:          invoicing.InvoicePending,
		CreatedAt:       time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
	}
}

func TestInvoiceMoneyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := testInvoice("inv-1", "s-1", "alice")
	require.NoError(t, store.AppendInvoices(ctx, []invoicing.Invoice{inv}))

	got, err := store.ListInvoicesByClient(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].Amount.Equal(inv.Amount), "amount changed in storage")
	assert.True(t, got[0].SessionTotal.Equal(inv.SessionTotal))
	assert.True(t, got[0].OrgCut.Equal(inv.OrgCut))
	assert.True(t, got[0].Rent.Equal(inv.Rent))
	assert.True(t, got[0].ContractorPay.Equal(inv.ContractorPay))
	assert.Equal(t, invoicing.InvoicePending, got[0].Status)
}

func TestAppendInvoicesRejectsDuplicateJournalKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testInvoice("inv-1", "s-1", "alice")
	require.NoError(t, store.AppendInvoices(ctx, []invoicing.Invoice{first}))

	// Same session+client, different invoice ID: still a double billing
	second := testInvoice("inv-2", "s-1", "alice")
	err := store.AppendInvoices(ctx, []invoicing.Invoice{second})
	require.Error(t, err)
	assert.ErrorIs(t, err, invoicing.ErrDuplicateInvoice)

	var dup *invoicing.DuplicateInvoiceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, pricing.SessionID("s-1"), dup.SessionID)
	assert.Equal(t, pricing.ClientID("alice"), dup.ClientID)

	// The failed append left nothing behind
	got, err := store.ListInvoicesByClient(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendInvoicesAtomicAcrossSessionGroup(t *testing.T) {
	// GIVEN one invoice of a group session already exists
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendInvoices(ctx, []invoicing.Invoice{
		testInvoice("inv-1", "s-1", "bob"),
	}))

	// WHEN a batch containing a fresh client and the duplicate is appended
	err := store.AppendInvoices(ctx, []invoicing.Invoice{
		testInvoice("inv-2", "s-1", "alice"),
		testInvoice("inv-3", "s-1", "bob"),
	})

	// THEN the whole batch is rolled back, alice is not billed
	require.Error(t, err)
	got, err := store.ListInvoicesByClient(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInvoiceExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := testInvoice("inv-1", "s-1", "alice")
	require.NoError(t, store.AppendInvoices(ctx, []invoicing.Invoice{inv}))

	ok, err := store.InvoiceExists(ctx, inv.JournalKey())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.InvoiceExists(ctx, "s-2/alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// BATCH LINES
// =============================================================================

func testBatchLine(id string, sessionIDs ...string) invoicing.BatchLine {
	month, _ := invoicing.ParseBillingMonth("2026-03")
	ids := make([]pricing.SessionID, 0, len(sessionIDs))
	for _, s := range sessionIDs {
		ids = append(ids, pricing.SessionID(s))
	}
	return invoicing.BatchLine{
		ID:              id,
		OrganizationID:  "org-1",
		ClientID:        "alice",
		ServiceConfigID: "adaptive-lessons",
		Month:           month,
		SessionIDs:      ids,
		Total:           pricing.MustParseMoney("120.00"),
		Status:          invoicing.BatchPending,
		CreatedAt:       time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC),
	}
}

func TestBatchLineRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	line := testBatchLine("line-1", "s-1", "s-2", "s-3")
	require.NoError(t, store.AppendBatchLines(ctx, []invoicing.BatchLine{line}))

	got, err := store.ListBatchLines(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-03", got[0].Month.String())
	assert.True(t, got[0].Total.Equal(line.Total))
	assert.Equal(t, []pricing.SessionID{"s-1", "s-2", "s-3"}, got[0].SessionIDs)
}

func TestAppendBatchLinesRejectsDoubleAggregation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatchLines(ctx, []invoicing.BatchLine{
		testBatchLine("line-1", "s-1", "s-2"),
	}))

	// A second run that somehow selected s-2 again fails atomically
	err := store.AppendBatchLines(ctx, []invoicing.BatchLine{
		testBatchLine("line-2", "s-2", "s-3"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, invoicing.ErrSessionAlreadyAggregated)

	got, err := store.ListBatchLines(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed append must not leave a partial line")
}

func TestTransitionBatchLineIsFinal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendBatchLines(ctx, []invoicing.BatchLine{
		testBatchLine("line-1", "s-1"),
	}))

	require.NoError(t, store.TransitionBatchLine(ctx, "line-1", invoicing.BatchSent))

	err := store.TransitionBatchLine(ctx, "line-1", invoicing.BatchVoid)
	assert.ErrorIs(t, err, invoicing.ErrBatchLineFinal)

	err = store.TransitionBatchLine(ctx, "missing", invoicing.BatchSent)
	assert.ErrorIs(t, err, invoicing.ErrBatchLineNotFound)

	got, err := store.ListBatchLines(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, invoicing.BatchSent, got[0].Status)
}
