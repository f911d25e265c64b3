// Package units formats durations and counts for labels and tooltips.
package units

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// RoundDuration drops precision that doesn't matter at a duration's magnitude.
func RoundDuration(d time.Duration) time.Duration {
	switch {
	case d < time.Millisecond:
		return d
	case d < time.Second:
		return d.Round(time.Microsecond)
	default:
		return d.Round(time.Millisecond)
	}
}

func Duration(d time.Duration) string { return RoundDuration(d).String() }

// Seconds converts a floating-point number of seconds, the unit of trace timestamps, into a duration.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Milliseconds is like Seconds for milliseconds.
func Milliseconds(ms float64) time.Duration {
	return Seconds(ms / 1000)
}

// Count formats n with thousands separators.
func Count[T ~int | ~int64 | ~uint64](n T) string {
	return printer.Sprintf("%d", n)
}

// Float formats f with thousands separators and the given number of decimals.
func Float(f float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", max(decimals, 0)), f)
}
