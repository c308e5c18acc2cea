package emutils

import "math"

// Round to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Consumption figures are shown with 2 decimals.
func Round2(v float64) float64 {
	return Round(v, 2)
}

// Percentages are shown with 1 decimal.
func Round1(v float64) float64 {
	return Round(v, 1)
}

// No negative values
func NonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Float64Ptr is used for optional JSON fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

func StringPtr(s string) *string {
	return &s
}
