// Package canvas models a drawing surface whose logical size (device-independent pixels) differs from its physical
// size (device pixels) by the display's pixel ratio.
package canvas

import (
	"github.com/spanlens/spanlens/geom"

	"gioui.org/unit"
)

type Canvas struct {
	width, height float64
	metric        unit.Metric
}

// New returns a canvas of the given logical size. A zero metric is treated as a pixel ratio of 1.
func New(width, height float64, m unit.Metric) *Canvas {
	c := &Canvas{}
	c.SetMetric(m)
	c.Resize(width, height)
	return c
}

// Resize sets the logical size. Negative sizes are treated as 0.
func (c *Canvas) Resize(width, height float64) {
	c.width = max(width, 0)
	c.height = max(height, 0)
}

func (c *Canvas) SetMetric(m unit.Metric) {
	if m.PxPerDp <= 0 {
		m.PxPerDp = 1
	}
	if m.PxPerSp <= 0 {
		m.PxPerSp = m.PxPerDp
	}
	c.metric = m
}

func (c *Canvas) Metric() unit.Metric { return c.metric }

// DPR returns the number of physical pixels per logical pixel.
func (c *Canvas) DPR() float64 { return float64(c.metric.PxPerDp) }

// LogicalSpace returns the canvas bounds in logical pixels.
func (c *Canvas) LogicalSpace() geom.Rect {
	return geom.NewRect(0, 0, c.width, c.height)
}

// PhysicalSpace returns the canvas bounds in physical pixels.
func (c *Canvas) PhysicalSpace() geom.Rect {
	dpr := c.DPR()
	return geom.NewRect(0, 0, c.width*dpr, c.height*dpr)
}

func (c *Canvas) LogicalToPhysical(p geom.Point) geom.Point {
	return p.Mul(c.DPR())
}

func (c *Canvas) PhysicalToLogical(p geom.Point) geom.Point {
	return p.Mul(1 / c.DPR())
}

// Dp converts a length in logical pixels to physical pixels, rounding like unit.Metric.Dp does.
func (c *Canvas) Dp(v float64) int {
	return c.metric.Dp(unit.Dp(v))
}
