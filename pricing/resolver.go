/*
resolver.go - Effective contractor rate resolution

PURPOSE:
  Resolves the contractor's pay at the configuration's base duration and
  the offset for the requested duration, applying override precedence:

    1. ContractorRateOverride.CustomBasePay   (admin set, per contractor+service)
    2. PaySchedule entry at the base duration (per service)
    3. Formula share of the base rate         (always available)

  Precedence is an ordered chain of optional lookups returning the first
  present value, so the order is explicit and each source is testable in
  isolation from the calculator.

DURATION OFFSET:
  The offset converts base-duration pay into pay for the actual duration:
    - duration == base: always 0, regardless of schedule
    - schedule has entries at both duration and base:
        schedule[duration] - schedule[base]
    - otherwise linear scaling: (duration/base - 1) * payAtBase

  A schedule entry at the duration without a baseline entry cannot define
  an offset, so it falls back to linear scaling.

NO ERROR CONDITIONS:
  Resolution never fails. Absence of an override or schedule entry is a
  normal case with a defined fallback, not a failure.

SEE ALSO:
  - calculator.go: Consumes the resolved rate
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESOLVED RATE - Output of rate resolution
// =============================================================================

// ResolvedRate is the effective pay rate for one contractor at one duration.
type ResolvedRate struct {
	// PayAtBase is the contractor's pay for a session of the
	// configuration's base duration.
	PayAtBase Money

	// DurationOffset is the adjustment for the actual duration, added to
	// PayAtBase. Zero when the session is exactly the base duration.
	DurationOffset Money
}

// Pay returns the duration-adjusted pay before group scaling and capping.
func (r ResolvedRate) Pay() Money {
	return r.PayAtBase.Add(r.DurationOffset)
}

// =============================================================================
// RATE SOURCES - First-match chain
// =============================================================================

// rateSource yields the base-duration pay if this source defines one.
type rateSource func(cfg ServiceConfig, override *ContractorRateOverride) (Money, bool)

// overridePay: an admin-set custom base pay for this contractor+service pair.
func overridePay(_ ServiceConfig, override *ContractorRateOverride) (Money, bool) {
	if override == nil {
		return Money{}, false
	}
	return override.CustomBasePay, true
}

// schedulePay: the pay schedule's entry at the base duration, when present.
func schedulePay(cfg ServiceConfig, _ *ContractorRateOverride) (Money, bool) {
	return cfg.PaySchedule.At(cfg.BaseDuration())
}

// formulaPay: the contractor's share of the base rate once the organization
// cut and rent withholding are taken out. This is the "default 30-minute pay"
// shown to admins, and the terminal source - it always resolves.
func formulaPay(cfg ServiceConfig, _ *ContractorRateOverride) (Money, bool) {
	share := decimal.NewFromInt(100).Sub(cfg.OrgCutPercent).Sub(cfg.RentPercent)
	return cfg.BaseRate.Mul(share).DivInt(100), true
}

// =============================================================================
// RATE RESOLVER
// =============================================================================

// RateResolver resolves effective contractor rates. Stateless and safe for
// concurrent use.
type RateResolver struct {
	sources []rateSource
}

func NewRateResolver() *RateResolver {
	return &RateResolver{
		sources: []rateSource{overridePay, schedulePay, formulaPay},
	}
}

// Resolve returns the effective rate for a contractor performing a session of
// durationMinutes under cfg. override may be nil.
func (r *RateResolver) Resolve(cfg ServiceConfig, override *ContractorRateOverride, durationMinutes int) ResolvedRate {
	payAtBase := r.payAtBase(cfg, override)
	return ResolvedRate{
		PayAtBase:      payAtBase,
		DurationOffset: durationOffset(cfg, payAtBase, durationMinutes),
	}
}

func (r *RateResolver) payAtBase(cfg ServiceConfig, override *ContractorRateOverride) Money {
	for _, source := range r.sources {
		if pay, ok := source(cfg, override); ok {
			return pay
		}
	}
	// Unreachable: formulaPay always resolves.
	return ZeroMoney
}

func durationOffset(cfg ServiceConfig, payAtBase Money, durationMinutes int) Money {
	base := cfg.BaseDuration()
	if durationMinutes == base {
		return ZeroMoney
	}

	at, okAt := cfg.PaySchedule.At(durationMinutes)
	baseline, okBase := cfg.PaySchedule.At(base)
	if okAt && okBase {
		return at.Sub(baseline)
	}

	// Linear scaling: (duration/base - 1) * payAtBase.
	ratio := decimal.NewFromInt(int64(durationMinutes)).Div(decimal.NewFromInt(int64(base)))
	return payAtBase.Mul(ratio).Sub(payAtBase)
}
