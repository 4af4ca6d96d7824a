/*
Package pricing provides the session revenue and pay calculation engine.

PURPOSE:
  This package contains the deterministic rules that turn a logged therapy
  session (service type, headcount, duration, contractor, client payment
  arrangement) into the amount billed, the organization's cut, facility-rent
  withholding, and the contractor's pay. It is pure computation: no I/O, no
  clocks, no ambient configuration. Every input arrives as an argument.

KEY CONCEPTS IN THIS FILE (types.go):
  - ServiceConfig: The organization's pricing rules for one service type
  - ContractorRateOverride: Per-contractor replacement of the base pay
  - ContractorPayIncrease: Flat per-session bonus for a contractor
  - SessionInput: Everything needed to price one session
  - Breakdown: The four money outputs, rounded to the cent

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Determinism: Same input, same breakdown, no global state
  3. Type Safety: Strong typing for IDs prevents mixing client/contractor IDs
  4. Asymmetry preserved: Scholarship billing overrides what the client is
     charged, never what the contractor earns. The two are computed
     independently so a policy change to one cannot silently affect the other.

USAGE:
  calc := pricing.NewCalculator()
  breakdown, err := calc.Calculate(pricing.SessionInput{
      Config:          cfg,
      ContractorID:    "contractor-7",
      DurationMinutes: 60,
      Attendees:       []pricing.Attendee{{ClientID: "client-1", PaymentMethod: pricing.PaymentPrivatePay}},
  })

SEE ALSO:
  - resolver.go: Effective contractor rate resolution (override precedence)
  - calculator.go: Total, split, and pay computation
  - allocator.go: Per-attendee invoice amount allocation
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ServiceConfigID string
type ContractorID string
type ClientID string
type SessionID string

// =============================================================================
// SERVICE CONFIGURATION - Pricing rules for one service type
// =============================================================================

// DefaultBaseDuration is the session length, in minutes, that BaseRate and
// the pay schedule baseline assume when a configuration does not say otherwise.
const DefaultBaseDuration = 30

// ServiceConfig is the organization's long-lived pricing configuration for a
// single service type. Admin-edited; the engine treats it as immutable input.
type ServiceConfig struct {
	ID   ServiceConfigID
	Name string

	// BaseRate is the price for one attendee at BaseDurationMinutes.
	BaseRate Money

	// PerPersonRate is the add-on per attendee for group sessions.
	// Zero means an individual service with no group scaling.
	PerPersonRate Money

	// OrgCutPercent (0-100) is the share of the billed total the
	// organization retains.
	OrgCutPercent decimal.Decimal

	// RentPercent (0-100) is the share of the billed total withheld for
	// facility rent. Computed from the total, independent of OrgCutPercent.
	RentPercent decimal.Decimal

	// ContractorCap, when set, is a ceiling on the contractor's pay for one
	// session. Applied before any flat bonus.
	ContractorCap *Money

	// TotalCap, when set, is a ceiling on the billed total for one session.
	TotalCap *Money

	// Scholarship marks every session on this configuration as billed at
	// ScholarshipFlatRate and routed to monthly batch invoicing.
	Scholarship         bool
	ScholarshipFlatRate Money

	// PaySchedule maps a duration (minutes) to an absolute contractor pay
	// amount at that duration. Sparse; durations without an entry fall back
	// to linear scaling.
	PaySchedule PaySchedule

	// BaseDurationMinutes is the duration BaseRate and the schedule baseline
	// assume. Zero means DefaultBaseDuration.
	BaseDurationMinutes int
}

// BaseDuration returns the configured base duration, defaulting to 30 minutes.
func (c ServiceConfig) BaseDuration() int {
	if c.BaseDurationMinutes <= 0 {
		return DefaultBaseDuration
	}
	return c.BaseDurationMinutes
}

// IsGroupService reports whether this service scales with headcount.
func (c ServiceConfig) IsGroupService() bool {
	return c.PerPersonRate.IsPositive()
}

// PaySchedule is a sparse mapping from session duration (minutes) to the
// contractor's absolute pay at that duration.
type PaySchedule map[int]Money

// At returns the scheduled pay for a duration, if an entry exists.
func (s PaySchedule) At(minutes int) (Money, bool) {
	m, ok := s[minutes]
	return m, ok
}

// =============================================================================
// CONTRACTOR RATE RECORDS
// =============================================================================

// ContractorRateOverride replaces the configuration-derived base-duration pay
// for one (contractor, service) pair. Optional; absence is the normal case.
type ContractorRateOverride struct {
	ContractorID    ContractorID
	ServiceConfigID ServiceConfigID
	CustomBasePay   Money
}

// ContractorPayIncrease is a flat bonus added to the computed pay for every
// session a contractor performs, regardless of service type. It is added
// after capping: a fixed per-session bonus, not part of the capped formula.
type ContractorPayIncrease struct {
	ContractorID ContractorID
	FlatBonus    Money
}

// =============================================================================
// CLIENT PAYMENT ARRANGEMENTS
// =============================================================================

type PaymentMethod string

const (
	PaymentPrivatePay   PaymentMethod = "private_pay"
	PaymentSelfDirected PaymentMethod = "self_directed"
	PaymentGroupHome    PaymentMethod = "group_home"
	PaymentScholarship  PaymentMethod = "scholarship"
	PaymentOther        PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is one of the known arrangements.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentPrivatePay, PaymentSelfDirected, PaymentGroupHome, PaymentScholarship, PaymentOther:
		return true
	}
	return false
}

// Attendee is one client present at a session, with their payment arrangement.
type Attendee struct {
	ClientID      ClientID
	PaymentMethod PaymentMethod
}

// =============================================================================
// SESSION PRICING INPUT - Ephemeral, constructed at calculation time
// =============================================================================

// SessionInput carries everything needed to price one session. The caller
// (session submission/approval workflow) fetches the configuration and any
// stored override/increase records before calling the engine.
type SessionInput struct {
	Config          ServiceConfig
	ContractorID    ContractorID
	DurationMinutes int
	Attendees       []Attendee

	// Override, when non-nil, replaces the base-duration contractor pay.
	Override *ContractorRateOverride

	// PayIncrease, when non-nil, adds a flat bonus to the contractor's pay.
	PayIncrease *ContractorPayIncrease
}

// ScholarshipBilling reports whether this session bills at the scholarship
// flat rate: the configuration is flagged, OR any attendee's payment
// arrangement is scholarship. Either condition alone is sufficient.
func (in SessionInput) ScholarshipBilling() bool {
	if in.Config.Scholarship {
		return true
	}
	for _, a := range in.Attendees {
		if a.PaymentMethod == PaymentScholarship {
			return true
		}
	}
	return false
}

// =============================================================================
// PRICING BREAKDOWN - Computed output, persisted into an invoice once accepted
// =============================================================================

// Breakdown is the priced result for one session. All money fields are
// rounded to the cent at construction; intermediate math is never rounded.
//
// In the non-scholarship case Total reconciles with OrgCut + Rent +
// ContractorPay to the cent. Under scholarship billing the contractor is
// still paid the normal formula while the client is billed the flat rate,
// so the three parts need not sum to Total: the organization absorbs the
// shortfall or keeps the surplus. That is a documented exception, not a bug.
type Breakdown struct {
	Total         Money
	OrgCut        Money
	Rent          Money
	ContractorPay Money

	// PerAttendee is each client's invoice share of Total, in attendee
	// order. The entries sum exactly to Total.
	PerAttendee []Money

	// ScholarshipBilling records which billing mode produced Total.
	ScholarshipBilling bool
}

// ReconcileTolerance is the rounding slack allowed between Total and the sum
// of its three parts: one cent, since each part is rounded independently.
var ReconcileTolerance = MustParseMoney("0.01")

// Reconciles reports whether OrgCut + Rent + ContractorPay matches Total
// within ReconcileTolerance. Under scholarship billing a mismatch is
// expected; otherwise it indicates a misconfigured split and should be
// surfaced for manual financial review before the breakdown is persisted.
func (b Breakdown) Reconciles() bool {
	sum := b.OrgCut.Add(b.Rent).Add(b.ContractorPay)
	diff := b.Total.Sub(sum)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	return !diff.GreaterThan(ReconcileTolerance)
}
