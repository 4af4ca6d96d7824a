package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal currency amount
// =============================================================================

// Money is a currency amount. It wraps decimal.Decimal so that money math is
// exact; values are only rounded to the cent at the point they become a
// breakdown or invoice field, never earlier.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

// MustParseMoney parses a decimal string, panicking on malformed input.
// For literals in fixtures and seed data; runtime input goes through
// ParseMoney.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("pricing: invalid money literal " + s)
	}
	return Money{Value: d}
}

// ParseMoney parses a decimal string such as "38.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

var ZeroMoney = Money{Value: decimal.Zero}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money             { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Div(s decimal.Decimal) Money    { return Money{Value: m.Value.Div(s)} }
func (m Money) DivInt(n int) Money             { return Money{Value: m.Value.Div(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// RoundCents rounds to 2 decimal places, half away from zero. This is the
// single rounding convention for the engine; it is applied exactly once per
// value, when the value becomes a persisted field.
func (m Money) RoundCents() Money {
	return Money{Value: m.Value.Round(2)}
}

// Float64 returns the amount as a float64 for display/DTO purposes only.
// Never feed the result back into money math.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// String formats the amount with two decimal places, e.g. "71.50".
func (m Money) String() string {
	return m.Value.StringFixed(2)
}
