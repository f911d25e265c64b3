package view

import (
	"github.com/spanlens/spanlens/geom"
)

// ZoomStrategy decides how ZoomToRect treats a target that is already (partially) visible.
type ZoomStrategy uint8

const (
	// ZoomExact makes the target fill the view horizontally.
	ZoomExact ZoomStrategy = iota
	// ZoomMin only moves the view as far as needed to show the target, zooming only if it doesn't fit.
	ZoomMin
)

// ZoomAt returns a transform that scales the config view horizontally around the config-space point at. Factors
// below 1 zoom in.
func ZoomAt(at geom.Point, factor float64) geom.Affine {
	if factor <= 0 || factor != factor {
		return geom.Identity()
	}
	return geom.ScalingAt(geom.Pt(at.X, 0), factor, 1)
}

// ZoomAtCursor is like ZoomAt, but takes the position in logical pixels.
func (v *View) ZoomAtCursor(logical geom.Point, factor float64) geom.Affine {
	return ZoomAt(v.ConfigViewCursor(logical), factor)
}

// PanBy returns a transform that moves the config view by a delta given in physical pixels. Positive deltas move the
// view to the right and towards deeper rows.
func (v *View) PanBy(physical geom.Point) geom.Affine {
	ps := v.canvas.PhysicalSpace()
	dx := physical.X * geom.SafeDiv(v.configView.Width, ps.Width)
	dy := physical.Y * geom.SafeDiv(v.configView.Height, ps.Height)
	if v.opts.Inverted {
		dy = -dy
	}
	return geom.Translation(dx, dy)
}

// ZoomToRect computes the config view that brings target into view. The result still has to go through
// SetConfigView.
func (v *View) ZoomToRect(target geom.Rect, strategy ZoomStrategy) geom.Rect {
	cur := v.configView
	next := cur

	switch strategy {
	case ZoomExact:
		next.X = target.X
		next.Width = target.Width
	case ZoomMin:
		switch {
		case target.X >= cur.X && target.Right() <= cur.Right():
			// Already fully visible
		case target.Width <= cur.Width:
			next.X = geom.Clamp(cur.X, target.Right()-cur.Width, target.X)
		default:
			next.X = target.X
			next.Width = target.Width
		}
	default:
		panic("unhandled zoom strategy")
	}

	if v.opts.Mode != StretchToFit && (target.Y < cur.Y || target.Bottom() > cur.Bottom()) {
		// Center the target row vertically.
		next.Y = target.CenterY() - cur.Height/2
	}
	return next
}
