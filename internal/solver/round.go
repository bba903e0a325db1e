package solver

import (
	"fmt"
	"math"
)

// Round10 rounds x to 10 decimal places with round(x*1e10)/1e10
// semantics. Values near the precision limit are subject to float64
// representation error; that is accepted, not corrected.
func Round10(x float64) float64 {
	return math.Round(x*1e10) / 1e10
}

// FormatAnswer serializes an answer with exactly 10 decimal digits.
func FormatAnswer(x float64) string {
	return fmt.Sprintf("%.10f", x)
}
