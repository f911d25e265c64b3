package spantree

import (
	"math"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/exp/slices"
)

// ChartSpan is a span placed on the span chart. Start and End are milliseconds since the start of the trace.
type ChartSpan struct {
	Node  *Node
	Start float64
	End   float64
	Depth int
}

func (s *ChartSpan) Duration() float64 { return s.End - s.Start }

// Chart lays out a span tree for drawing alongside a flamegraph: x is milliseconds since the trace start and y is
// the depth in the tree.
type Chart struct {
	Spans    []*ChartSpan
	Duration float64
	Depth    int

	// levels holds the spans of each depth, sorted by start.
	levels [][]*ChartSpan
}

func NewChart(t *Tree) *Chart {
	start := t.Trace.TraceStartTimestamp
	c := &Chart{
		Duration: (t.Trace.TraceEndTimestamp - start) * 1000,
		levels:   make([][]*ChartSpan, t.MaxDepth+1),
	}
	for _, n := range t.Nodes {
		if n.IsGap {
			continue
		}
		s := &ChartSpan{
			Node:  n,
			Start: (min(n.Span.StartTimestamp, n.Span.Timestamp) - start) * 1000,
			End:   (max(n.Span.StartTimestamp, n.Span.Timestamp) - start) * 1000,
			Depth: n.Depth,
		}
		c.Spans = append(c.Spans, s)
		c.levels[n.Depth] = append(c.levels[n.Depth], s)
		c.Depth = max(c.Depth, n.Depth)
	}
	for _, l := range c.levels {
		slices.SortStableFunc(l, func(a, b *ChartSpan) int {
			switch {
			case a.Start < b.Start:
				return -1
			case a.Start > b.Start:
				return 1
			default:
				return 0
			}
		})
	}
	if !(c.Duration > 0) {
		c.Duration = 0
	}
	return c
}

func (c *Chart) ConfigSpace() geom.Rect {
	return geom.NewRect(0, 0, c.Duration, float64(c.Depth+1))
}

// Level returns the spans at the given depth, sorted by start.
func (c *Chart) Level(depth int) []*ChartSpan {
	if depth < 0 || depth >= len(c.levels) {
		return nil
	}
	return c.levels[depth]
}

// HitTest returns the span under the config-space point p, or nil.
func (c *Chart) HitTest(p geom.Point) *ChartSpan {
	if !(p.Y >= 0) {
		return nil
	}
	level := c.Level(int(math.Floor(p.Y)))
	// Index of the first span that starts after p.
	i, _ := slices.BinarySearchFunc(level, p.X, func(s *ChartSpan, x float64) int {
		if s.Start <= x {
			return -1
		}
		return 1
	})
	// Siblings may overlap; prefer the one that started last.
	for j := i - 1; j >= 0; j-- {
		if s := level[j]; p.X < s.End {
			return s
		}
	}
	return nil
}
