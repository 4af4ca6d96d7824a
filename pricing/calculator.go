/*
calculator.go - Session total, split, and contractor pay

PURPOSE:
  Computes the full pricing breakdown for one session: billed total,
  organization cut, rent withholding, contractor pay, and per-attendee
  invoice shares.

TOTAL RULE (non-scholarship):
  1. Solo exception: one attendee, or an individual service
     (PerPersonRate == 0), bills BaseRate scaled by duration. A single
     attendee is never charged the per-person add-on, even on a
     group-capable service.
  2. Group: (BaseRate + PerPersonRate * n) scaled by duration.
  3. TotalCap, when set, is a ceiling on the result.

SCHOLARSHIP OVERRIDE:
  When the session routes to scholarship billing, the billed total is
  replaced by ScholarshipFlatRate unconditionally - duration, headcount
  and TotalCap are all ignored. This is a full override, not a floor or
  ceiling. Contractor pay is NOT affected: the contractor earns exactly
  what an identical non-scholarship session would pay.

CONTRACTOR PAY RULE:
  1. rawPay = PayAtBase + DurationOffset (from the resolver)
  2. Group sessions scale rawPay by the same headcount factor as the
     billed total, then ContractorCap applies.
  3. The flat bonus is added after capping - it is a fixed per-session
     bonus, not part of the capped formula.

SPLIT RULE:
  OrgCut and Rent are each a straight percentage of the billed total,
  computed independently of each other and of contractor pay. In the
  non-scholarship case the three reconcile with the total to the cent;
  a mismatch there means a misconfigured split and should be flagged for
  manual financial review (see Breakdown.Reconciles), never silently
  persisted.

SEE ALSO:
  - resolver.go: Where PayAtBase and DurationOffset come from
  - allocator.go: How PerAttendee shares are produced
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator prices sessions. Stateless and safe for concurrent use.
type Calculator struct {
	resolver *RateResolver
}

func NewCalculator() *Calculator {
	return &Calculator{resolver: NewRateResolver()}
}

// Calculate prices one session. Inputs are assumed pre-validated by the
// caller; a non-positive duration or an empty attendee list is a programming
// error upstream and is rejected with ErrInvalidInput.
func (c *Calculator) Calculate(in SessionInput) (*Breakdown, error) {
	if in.DurationMinutes <= 0 {
		return nil, &InvalidInputError{Field: "duration", Reason: "must be positive"}
	}
	if len(in.Attendees) < 1 {
		return nil, &InvalidInputError{Field: "attendees", Reason: "must have at least one"}
	}

	resolved := c.resolver.Resolve(in.Config, in.Override, in.DurationMinutes)
	return c.calculate(in, resolved), nil
}

func (c *Calculator) calculate(in SessionInput, resolved ResolvedRate) *Breakdown {
	cfg := in.Config
	n := len(in.Attendees)
	scholarship := in.ScholarshipBilling()

	total := billedTotal(cfg, in.DurationMinutes, n, scholarship).RoundCents()
	pay := contractorPay(cfg, resolved, n, in.PayIncrease).RoundCents()

	hundred := decimal.NewFromInt(100)
	orgCut := total.Mul(cfg.OrgCutPercent).Div(hundred).RoundCents()
	rent := total.Mul(cfg.RentPercent).Div(hundred).RoundCents()

	return &Breakdown{
		Total:              total,
		OrgCut:             orgCut,
		Rent:               rent,
		ContractorPay:      pay,
		PerAttendee:        Allocate(total, n),
		ScholarshipBilling: scholarship,
	}
}

// billedTotal computes what the clients are charged, before rounding.
func billedTotal(cfg ServiceConfig, durationMinutes, attendees int, scholarship bool) Money {
	if scholarship {
		// Full override: duration, headcount and TotalCap are ignored.
		return cfg.ScholarshipFlatRate
	}

	ratio := durationRatio(cfg, durationMinutes)

	var raw Money
	if attendees == 1 || !cfg.IsGroupService() {
		// Solo exception: no per-person add-on for a single attendee.
		raw = cfg.BaseRate.Mul(ratio)
	} else {
		raw = cfg.BaseRate.Add(cfg.PerPersonRate.MulInt(attendees)).Mul(ratio)
	}

	if cfg.TotalCap != nil {
		raw = raw.Min(*cfg.TotalCap)
	}
	return raw
}

// contractorPay computes what the contractor earns, before rounding.
// Scholarship billing never reaches here: pay is identical either way.
func contractorPay(cfg ServiceConfig, resolved ResolvedRate, attendees int, increase *ContractorPayIncrease) Money {
	pay := resolved.Pay()

	// Group sessions scale pay with the same headcount factor as billing,
	// so pay grows with headcount the same way the total does.
	if cfg.IsGroupService() && attendees > 1 && !cfg.BaseRate.IsZero() {
		factor := cfg.BaseRate.Add(cfg.PerPersonRate.MulInt(attendees)).Value.Div(cfg.BaseRate.Value)
		pay = pay.Mul(factor)
	}

	if cfg.ContractorCap != nil {
		pay = pay.Min(*cfg.ContractorCap)
	}

	if increase != nil {
		pay = pay.Add(increase.FlatBonus)
	}
	return pay
}

func durationRatio(cfg ServiceConfig, durationMinutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(durationMinutes)).Div(decimal.NewFromInt(int64(cfg.BaseDuration())))
}
