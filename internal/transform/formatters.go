package transform

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Formatter renders one numeric cell for display. Formatters are pure.
type Formatter func(float64) string

// NotAvailable is rendered for nil cells and non-finite numbers (HR/9 of a
// pitcher without an out recorded).
const NotAvailable = "-"

// Identity renders the number in its shortest form: 30 -> "30", 45.1 -> "45.1".
func Identity(v float64) string {
	if !isFinite(v) {
		return NotAvailable
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Percentage renders a ratio as a percentage with one decimal: 0.256 -> "25.6%".
func Percentage(v float64) string {
	if !isFinite(v) {
		return NotAvailable
	}
	return roundDecimal(v, 2, 1) + "%"
}

// Rate renders a rate stat with three decimals and no leading zero:
// 0.345 -> ".345", 1.023 -> "1.023". A negative value keeps its sign and
// drops only the zero after it: -0.123 -> "-.123".
func Rate(v float64) string {
	if !isFinite(v) {
		return NotAvailable
	}
	s := roundDecimal(v, 0, 3)
	switch {
	case strings.HasPrefix(s, "0."):
		return s[1:]
	case strings.HasPrefix(s, "-0."):
		return "-" + s[2:]
	}
	return s
}

// Fixed renders with a fixed number of decimals: Fixed(2)(4.5) -> "4.50".
func Fixed(places int) Formatter {
	return func(v float64) string {
		if !isFinite(v) {
			return NotAvailable
		}
		return roundDecimal(v, 0, places)
	}
}

// roundDecimal multiplies v by 10^shift and rounds to places decimals, half
// away from zero. The arithmetic runs on the shortest decimal form of v so
// that 0.3005 rounds like the decimal it was written as, not like its
// binary neighbour 0.30049999...
func roundDecimal(v float64, shift, places int) string {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return strconv.FormatFloat(v*math.Pow10(shift), 'f', places, 64)
	}
	if shift > 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(shift)), nil)
		r.Mul(r, new(big.Rat).SetInt(scale))
	}
	s := r.FloatString(places)
	if strings.Trim(s, "-0.") == "" {
		s = strings.TrimPrefix(s, "-")
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
