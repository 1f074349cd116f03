package xirr

import (
	"fmt"
	"math"
)

// Placeholder is shown instead of a rate that could not be computed.
const Placeholder = "—"

// FormatRate renders r as a percentage with two decimals, or Placeholder when
// r is NaN or infinite.
func FormatRate(r float64) string {
	if !isFinite(r) {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", r*100)
}

// FormatShort abbreviates an amount with K, M or B suffixes, e.g. "₹12.50K".
func FormatShort(n float64, symbol string) string {
	if !isFinite(n) {
		return Placeholder
	}
	abs := math.Abs(n)
	sign := ""
	if n < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s%s%.2fB", sign, symbol, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%s%.2fM", sign, symbol, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%s%.2fK", sign, symbol, abs/1e3)
	default:
		return fmt.Sprintf("%s%s%.0f", sign, symbol, math.Round(abs))
	}
}
