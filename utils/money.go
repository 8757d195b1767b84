package utils

import "math"

// Money moves through the settlement path as integer minor units (cents, fils)
// so that commission splits never leak rounding drift. Floats only appear at
// the storage/API boundary.

// ToCents converts a major-unit amount to minor units, rounding half away
// from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts minor units back to a major-unit amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Round2 rounds a major-unit amount to 2 decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// SplitCommission splits revenue (minor units) into the platform commission
// and the partner net at the given fractional rate. The two parts always sum
// to revenue exactly: the commission is rounded and the net takes the rest.
func SplitCommission(revenueCents int64, rate float64) (commissionCents, partnerNetCents int64) {
	commissionCents = int64(math.Round(float64(revenueCents) * rate))
	if commissionCents < 0 {
		commissionCents = 0
	}
	if commissionCents > revenueCents {
		commissionCents = revenueCents
	}
	return commissionCents, revenueCents - commissionCents
}
