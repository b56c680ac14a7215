package models

import "github.com/shopspring/decimal"

// ResolvePrice picks the effective price out of every price a payload
// exposes for one product (list, active, discounted). The lowest one wins and
// the highest one is reported as the pre-discount price when it differs.
// Negative candidates are clamped to zero.
func ResolvePrice(candidates ...decimal.Decimal) (decimal.Decimal, *decimal.Decimal) {
	if len(candidates) == 0 {
		return decimal.Zero, nil
	}

	low := clamp(candidates[0])
	high := low
	for _, c := range candidates[1:] {
		c = clamp(c)
		if c.LessThan(low) {
			low = c
		}
		if c.GreaterThan(high) {
			high = c
		}
	}

	if high.Equal(low) {
		return low, nil
	}
	return low, &high
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
