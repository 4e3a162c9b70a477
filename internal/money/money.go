package money

import "math"

// Cents is the number of cents in one currency unit.
const Cents = 100

// Round2 rounds v to two decimal places. Every monetary mutation goes through
// it so repeated accrual cannot drift below cent granularity.
func Round2(v float64) float64 {
	return math.Round(v*Cents) / Cents
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NonNegative returns v, or zero when v is negative.
func NonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
