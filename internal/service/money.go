package service

import "math"

// round2 keeps prices at two-decimal precision, matching what the payment
// providers hash and display.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
