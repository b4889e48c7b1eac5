package pricing

import "github.com/shopspring/decimal"

// FormatAmount renders a monetary value with two decimals. Rounding to cents
// happens only here, at presentation time.
func FormatAmount(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}
