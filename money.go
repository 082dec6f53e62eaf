package pokergame

import "math"

// Chip amounts are dollars carried as float64 and normalized to cents before
// every comparison or store. A NaN or infinite amount means engine bookkeeping
// is broken, which is fatal rather than user-facing.

// RoundToCent normalizes an amount to the nearest cent.
func RoundToCent(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FloorToIncrement rounds an amount down to a multiple of the pot increment.
// Increments of zero or below fall back to cent precision.
func FloorToIncrement(amount, increment float64) float64 {
	if increment <= 0 {
		increment = 0.01
	}
	return RoundToCent(math.Floor(amount/increment) * increment)
}

func validAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fatalf(ErrInvalidAmount, "%f", amount)
	}
	return nil
}

// centEqual compares two amounts at cent precision.
func centEqual(a, b float64) bool {
	return RoundToCent(a) == RoundToCent(b)
}
