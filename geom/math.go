package geom

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi]. It never panics: when lo > hi, hi wins, and a NaN v maps to lo.
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v != v {
		v = lo
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ToPercent formats a fraction as a CSS percentage with three decimals. Non-finite values format as 0.
func ToPercent(v float64) string {
	if !isFinite(v) {
		v = 0
	}
	s := fmt.Sprintf("%.3f%%", v*100)
	if s == "-0.000%" {
		return "0.000%"
	}
	return s
}

// SafeDiv returns a/b, or 0 if b is zero or the quotient isn't finite.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if !isFinite(q) {
		return 0
	}
	return q
}
