/*
allocator.go - Per-attendee invoice amount allocation

PURPOSE:
  Splits a group session's billed total into per-client invoice amounts.
  Each attendee of a group session is invoiced their own share; the shares
  must sum exactly to the total, to the cent, no matter how the division
  rounds, and no share may ever be negative.

ALGORITHM:
  Largest remainder: every share starts at the equal split rounded DOWN to
  the cent, then the leftover cents are handed out one at a time from the
  front. Rounding down is what keeps every share non-negative; rounding to
  nearest can overshoot the total on small amounts and would force the
  final share below zero to compensate.
*/
package pricing

var cent = MustParseMoney("0.01")

// Allocate splits total into n per-attendee amounts that sum exactly to
// total, each amount >= 0 for any total >= 0. n < 1 returns nil; the
// calculator rejects that input before allocation is reached.
func Allocate(total Money, n int) []Money {
	if n < 1 {
		return nil
	}
	total = total.RoundCents()
	if n == 1 {
		return []Money{total}
	}

	base := Money{Value: total.DivInt(n).Value.RoundFloor(2)}

	// total and base both carry two decimals, so the leftover is a whole
	// number of cents, 0 <= leftover < n.
	leftover := int(total.Sub(base.MulInt(n)).MulInt(100).Value.IntPart())

	shares := make([]Money, n)
	for i := range shares {
		shares[i] = base
		if i < leftover {
			shares[i] = base.Add(cent)
		}
	}
	return shares
}
