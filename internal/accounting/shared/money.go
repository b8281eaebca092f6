package shared

import "math"

// BalanceTolerance absorbs float rounding drift when comparing debit and credit totals.
const BalanceTolerance = 0.01

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Balanced reports whether two totals agree within BalanceTolerance.
func Balanced(debit, credit float64) bool {
	return math.Abs(Round2(debit)-Round2(credit)) <= BalanceTolerance
}
