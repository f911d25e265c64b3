package spantree

import (
	"fmt"
	"math"

	"github.com/spanlens/spanlens/geom"
)

// TimestampTolerance is how close, in seconds, two timestamps have to be to count as equal.
const TimestampTolerance = 1e-6

// EqualTimestampsWidth is the width, as a fraction of the view window, given to spans whose start and end are equal.
const EqualTimestampsWidth = 0.00001

type BoundsKind uint8

const (
	// TraceTimestampsEqual means the trace has no duration, so no span can be placed.
	TraceTimestampsEqual BoundsKind = iota + 1
	// InvalidViewWindow means the view window is empty or reversed.
	InvalidViewWindow
	TimestampsEqual
	TimestampsReversed
	TimestampsStable
)

func (k BoundsKind) String() string {
	switch k {
	case TraceTimestampsEqual:
		return "TRACE_TIMESTAMPS_EQUAL"
	case InvalidViewWindow:
		return "INVALID_VIEW_WINDOW"
	case TimestampsEqual:
		return "TIMESTAMPS_EQUAL"
	case TimestampsReversed:
		return "TIMESTAMPS_REVERSED"
	case TimestampsStable:
		return "TIMESTAMPS_STABLE"
	default:
		return fmt.Sprintf("BoundsKind(%d)", uint8(k))
	}
}

// Bounds locates a span within the view window. Start and End are fractions of the view window and may lie outside
// [0,1] for spans that are partially or entirely out of view. They're only meaningful for the TimestampsEqual,
// TimestampsReversed and TimestampsStable kinds.
type Bounds struct {
	Kind    BoundsKind
	Start   float64
	End     float64
	Visible bool
}

func (b Bounds) Width() float64 { return b.End - b.Start }

// BoundsFunc computes the bounds of a span given its start and end timestamps.
type BoundsFunc func(start, end float64) Bounds

// BoundsGenerator returns a function that places spans of the trace [traceStart, traceEnd] within the view window
// [viewStart, viewEnd], given as fractions of the trace. The ratios shared by all spans are computed once.
func BoundsGenerator(traceStart, traceEnd, viewStart, viewEnd float64) BoundsFunc {
	traceDuration := traceEnd - traceStart
	viewDuration := traceDuration * (viewEnd - viewStart)
	windowStart := traceStart + viewStart*traceDuration

	if !(traceDuration >= TimestampTolerance) {
		return func(float64, float64) Bounds { return Bounds{Kind: TraceTimestampsEqual, Visible: true} }
	}
	if !(viewDuration > 0) {
		return func(float64, float64) Bounds { return Bounds{Kind: InvalidViewWindow, Visible: true} }
	}

	return func(start, end float64) Bounds {
		s := (start - windowStart) / viewDuration
		e := (end - windowStart) / viewDuration
		switch {
		case math.Abs(end-start) < TimestampTolerance:
			return Bounds{
				Kind:    TimestampsEqual,
				Start:   s,
				End:     s + EqualTimestampsWidth,
				Visible: s+EqualTimestampsWidth > 0 && s < 1,
			}
		case end < start:
			return Bounds{
				Kind:    TimestampsReversed,
				Start:   e,
				End:     s,
				Visible: s > 0 && e < 1,
			}
		default:
			return Bounds{
				Kind:    TimestampsStable,
				Start:   s,
				End:     e,
				Visible: e > 0 && s < 1,
			}
		}
	}
}

// Bar is how a span bar is drawn. Left and Width are CSS percentages of the view window. They're empty when the
// span can't be placed.
type Bar struct {
	Left    string
	Width   string
	Warning string
	Visible bool
}

func (b Bar) Placed() bool { return b.Left != "" }

// BarGeometry turns bounds into a bar. It panics on an unknown kind.
func BarGeometry(b Bounds) Bar {
	switch b.Kind {
	case TraceTimestampsEqual:
		return Bar{Warning: "Trace times are equal", Visible: b.Visible}
	case InvalidViewWindow:
		return Bar{Warning: "Invalid view window", Visible: b.Visible}
	case TimestampsEqual:
		return Bar{
			Left:    geom.ToPercent(b.Start),
			Width:   geom.ToPercent(EqualTimestampsWidth),
			Warning: "Equal start and end times",
			Visible: b.Visible,
		}
	case TimestampsReversed:
		return Bar{
			Left:    geom.ToPercent(b.Start),
			Width:   geom.ToPercent(b.Width()),
			Warning: "Incorrect start and end times",
			Visible: b.Visible,
		}
	case TimestampsStable:
		return Bar{
			Left:    geom.ToPercent(b.Start),
			Width:   geom.ToPercent(b.Width()),
			Visible: b.Visible,
		}
	default:
		panic(fmt.Sprintf("unhandled bounds kind %s", b.Kind))
	}
}
