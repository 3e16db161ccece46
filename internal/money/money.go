// Package money holds the two-decimal rounding used for every stored amount.
package money

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero on the decimal representation of v,
// so 2.675 becomes 2.68 rather than the binary-float 2.67.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Format2 renders v with exactly two decimals, e.g. "7.50".
func Format2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// LineTotal is round(price * qty, 2).
func LineTotal(price float64, qty int) float64 {
	f, _ := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).Round(2).Float64()
	return f
}

// Percent is round(amount * rate / 100, 2).
func Percent(amount, rate float64) float64 {
	f, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return f
}

// NonNegative clamps v at zero and rounds it to two decimals.
func NonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return Round2(v)
}
