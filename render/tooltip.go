package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/spanlens/spanlens/chart"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/units"
)

// FormatWeight formats a flamegraph weight in its unit.
func FormatWeight(unit string, w float64) string {
	switch unit {
	case "nanoseconds", "ns":
		return units.Duration(time.Duration(w))
	case "microseconds":
		return units.Duration(time.Duration(w * float64(time.Microsecond)))
	case "milliseconds", "ms":
		return units.Duration(units.Milliseconds(w))
	case "count", "samples", "":
		return units.Count(int64(w))
	case "bytes":
		return units.Count(int64(w)) + " B"
	default:
		return units.Float(w, 2) + " " + unit
	}
}

func isTime(unit string) bool {
	switch unit {
	case "nanoseconds", "ns", "microseconds", "milliseconds", "ms":
		return true
	default:
		return false
	}
}

// FrameTooltip describes a flamegraph node.
func FrameTooltip(fg *flamegraph.Flamegraph, n *flamegraph.Node) string {
	label := "Weight"
	if isTime(fg.Unit) {
		label = "Duration"
	}
	l := fmt.Sprintf("Name: %s\nStack depth: %d\n%s: %s (%s self)\nImmediate children: %d",
		n.Frame.String(), n.Depth, label, FormatWeight(fg.Unit, n.Weight), FormatWeight(fg.Unit, n.SelfWeight), len(n.Children))
	if fg.TotalWeight > 0 {
		l += "\nShare: " + geom.ToPercent(n.Weight/fg.TotalWeight)
	}
	if loc := n.Frame.Location(); loc != "" {
		l += "\nLocation: " + loc
	}
	return l
}

// SpanTooltip describes a span tree node.
func SpanTooltip(n *spantree.Node) string {
	if n.IsGap {
		return "Missing instrumentation\nDuration: " + units.Duration(n.Span.Duration())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Op: %s", n.Span.Op)
	if n.Span.Description != "" {
		fmt.Fprintf(&sb, "\nDescription: %s", n.Span.Description)
	}
	fmt.Fprintf(&sb, "\nDuration: %s\nImmediate children: %d", units.Duration(n.Span.Duration()), len(n.Children))
	if n.Span.Status != "" {
		fmt.Fprintf(&sb, "\nStatus: %s", n.Span.Status)
	}
	if n.Detached {
		sb.WriteString("\nParent chain contains a cycle")
	}
	return sb.String()
}

// SeriesTooltip describes the values of all series of c at x nanoseconds.
func SeriesTooltip(c *chart.Chart, x float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "At: %s", units.Duration(time.Duration(x)))
	for i, s := range c.Series {
		v, ok := c.ValueAt(i, x)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n%s: %s", s.Name, units.Float(v, 2))
		if s.Unit != "" {
			sb.WriteString(" " + s.Unit)
		}
	}
	return sb.String()
}

// UIFrameTooltip describes slow and frozen frames.
func UIFrameTooltip(frames []chart.UIFrame) string {
	var lines []string
	for _, f := range frames {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Kind, units.Duration(f.Duration())))
	}
	return strings.Join(lines, "\n")
}
