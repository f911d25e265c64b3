// Package view maps between a model's config space (time × depth, in the model's own units) and a canvas's pixel
// space.
//
// A View owns exactly one config view, the visible sub-rectangle of config space. Views never share it: views that
// display the same time range are kept in lockstep by re-applying the same rect or transform to each of them (see
// package scheduler), which lets every view keep its own vertical position.
package view

import (
	"fmt"

	"github.com/spanlens/spanlens/canvas"
	"github.com/spanlens/spanlens/geom"
)

// Model is anything with a logical coordinate domain: flamegraphs, span charts, measurement charts, UI frames.
type Model interface {
	ConfigSpace() geom.Rect
}

type Mode uint8

const (
	// AnchorTop shows depth 0 at the top of the canvas and as many rows as fit.
	AnchorTop Mode = iota
	// AnchorBottom keeps the deepest rows in view, aligned to the bottom of the canvas.
	AnchorBottom
	// StretchToFit always shows the full height of config space.
	StretchToFit
)

func (m Mode) String() string {
	switch m {
	case AnchorTop:
		return "anchor top"
	case AnchorBottom:
		return "anchor bottom"
	case StretchToFit:
		return "stretch to fit"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

type Options struct {
	// MinWidth is the narrowest config view, in config units. It keeps users from zooming past the resolution of
	// the data, e.g. a single sample.
	MinWidth float64
	// BarHeight is the height of one config-space row in logical pixels. It's ignored in StretchToFit mode.
	BarHeight float64
	// DepthOffset adds empty rows to config space, e.g. to leave room for an overlay.
	DepthOffset float64
	// Inverted draws depth 0 at the bottom of the canvas.
	Inverted bool
	Mode     Mode
	// ConfigSpaceTransform maps model coordinates into config space. The zero value is the identity.
	ConfigSpaceTransform geom.Affine
}

// Constraints override the view's own minimums for a single SetConfigView call. This is used when another view
// dictates the x range and this view must follow it even if its own minimum width is larger.
type Constraints struct {
	MinWidth     float64
	MinHeight    float64
	HasMinWidth  bool
	HasMinHeight bool
}

func MinWidth(w float64) Constraints { return Constraints{MinWidth: w, HasMinWidth: true} }

type View struct {
	canvas *canvas.Canvas
	model  Model
	opts   Options

	configSpace geom.Rect
	configView  geom.Rect

	history []geom.Rect
}

func New(c *canvas.Canvas, m Model, opts Options) *View {
	if opts.ConfigSpaceTransform == (geom.Affine{}) {
		opts.ConfigSpaceTransform = geom.Identity()
	}
	v := &View{
		canvas: c,
		model:  m,
		opts:   opts,
	}
	v.initConfigSpace()
	v.ResetConfigView()
	return v
}

func (v *View) Canvas() *canvas.Canvas { return v.canvas }
func (v *View) Model() Model           { return v.model }
func (v *View) Options() Options       { return v.opts }
func (v *View) ConfigSpace() geom.Rect { return v.configSpace }
func (v *View) ConfigView() geom.Rect  { return v.configView }
func (v *View) MinWidth() float64      { return v.opts.MinWidth }

// SetModel replaces the model. A new model has a new config space, and the previous zoom would no longer mean
// anything, so the view is reset and its history dropped.
func (v *View) SetModel(m Model) {
	v.model = m
	v.history = v.history[:0]
	v.initConfigSpace()
	v.ResetConfigView()
}

// visibleRows returns how many config-space rows fit on the canvas.
func (v *View) visibleRows() float64 {
	if v.opts.BarHeight <= 0 {
		return v.configSpace.Height
	}
	return geom.SafeDiv(v.canvas.LogicalSpace().Height, v.opts.BarHeight)
}

func (v *View) initConfigSpace() {
	ms := v.opts.ConfigSpaceTransform.TransformRect(v.model.ConfigSpace())
	if !ms.IsFinite() {
		ms = geom.Rect{}
	}
	height := ms.Height + v.opts.DepthOffset
	switch v.opts.Mode {
	case StretchToFit:
		v.configSpace = geom.NewRect(ms.X, ms.Y, ms.Width, height)
	case AnchorTop, AnchorBottom:
		if v.opts.BarHeight > 0 {
			height = max(height, geom.SafeDiv(v.canvas.LogicalSpace().Height, v.opts.BarHeight))
		}
		v.configSpace = geom.NewRect(ms.X, ms.Y, ms.Width, height)
	default:
		panic(fmt.Sprintf("unhandled view mode %s", v.opts.Mode))
	}
}

// ResetConfigView shows the full width of config space. Vertically, StretchToFit shows everything, while the anchored
// modes show as many rows as fit on the canvas, which is all of config space whenever the model fits.
func (v *View) ResetConfigView() {
	cs := v.configSpace
	rows := min(v.visibleRows(), cs.Height)
	switch v.opts.Mode {
	case StretchToFit:
		v.configView = cs
	case AnchorTop:
		v.configView = geom.NewRect(cs.X, cs.Y, cs.Width, rows)
	case AnchorBottom:
		v.configView = geom.NewRect(cs.X, cs.Bottom()-rows, cs.Width, rows)
	default:
		panic(fmt.Sprintf("unhandled view mode %s", v.opts.Mode))
	}
}

// ResizeConfigSpace must be called after the canvas has been resized. It keeps the visible x range and adjusts the
// visible rows to the new canvas height.
func (v *View) ResizeConfigSpace(c *canvas.Canvas) {
	v.canvas = c
	prev := v.configView
	v.initConfigSpace()

	cs := v.configSpace
	rows := min(v.visibleRows(), cs.Height)
	switch v.opts.Mode {
	case StretchToFit:
		v.SetConfigView(prev.WithY(cs.Y).WithHeight(cs.Height))
	case AnchorTop:
		v.SetConfigView(prev.WithHeight(rows))
	case AnchorBottom:
		v.SetConfigView(prev.WithY(prev.Bottom() - rows).WithHeight(rows))
	default:
		panic(fmt.Sprintf("unhandled view mode %s", v.opts.Mode))
	}
}

// SetConfigView replaces the visible rect. The rect is clamped to the view's minimum width (or the override in cons)
// and to config space. Non-finite rects are ignored.
func (v *View) SetConfigView(r geom.Rect, cons ...Constraints) {
	if !r.IsFinite() {
		return
	}
	minWidth := v.opts.MinWidth
	minHeight := 0.0
	for _, c := range cons {
		if c.HasMinWidth {
			minWidth = c.MinWidth
		}
		if c.HasMinHeight {
			minHeight = c.MinHeight
		}
	}

	cs := v.configSpace
	width := geom.Clamp(r.Width, minWidth, cs.Width)
	height := geom.Clamp(r.Height, minHeight, cs.Height)
	x := geom.Clamp(r.X, cs.X, cs.Right()-width)
	y := geom.Clamp(r.Y, cs.Y, cs.Bottom()-height)
	v.configView = geom.NewRect(x, y, width, height)
}

// TransformConfigView applies m to the config view and re-clamps it.
func (v *View) TransformConfigView(m geom.Affine, cons ...Constraints) {
	v.SetConfigView(m.TransformRect(v.configView), cons...)
}

func (v *View) fromRect(r geom.Rect) geom.Affine {
	ps := v.canvas.PhysicalSpace()
	sx := geom.SafeDiv(ps.Width, r.Width)
	sy := geom.SafeDiv(ps.Height, r.Height)
	if v.opts.Inverted {
		return geom.Affine{A: sx, C: -r.X * sx, E: -sy, F: ps.Height + r.Y*sy}
	}
	return geom.Affine{A: sx, C: -r.X * sx, E: sy, F: -r.Y * sy}
}

// toRect inverts fromRect. A degenerate rect has no inverse; every pixel then maps to the rect's origin.
func (v *View) toRect(r geom.Rect) geom.Affine {
	inv, ok := v.fromRect(r).Invert()
	if !ok {
		return geom.Affine{C: r.X, F: r.Y}
	}
	return inv
}

// FromConfigView maps config coordinates to physical pixels such that the config view fills the canvas.
func (v *View) FromConfigView() geom.Affine { return v.fromRect(v.configView) }

// FromConfigSpace maps config coordinates to physical pixels such that all of config space fills the canvas.
func (v *View) FromConfigSpace() geom.Affine { return v.fromRect(v.configSpace) }

// FromTransformedConfigView maps model coordinates to physical pixels.
func (v *View) FromTransformedConfigView() geom.Affine {
	return v.FromConfigView().Mul(v.opts.ConfigSpaceTransform)
}

func (v *View) ToConfigView() geom.Affine  { return v.toRect(v.configView) }
func (v *View) ToConfigSpace() geom.Affine { return v.toRect(v.configSpace) }

// ConfigViewCursor converts a position in logical pixels to config coordinates under the current config view.
func (v *View) ConfigViewCursor(logical geom.Point) geom.Point {
	return v.ToConfigView().Transform(v.canvas.LogicalToPhysical(logical))
}

// ConfigSpaceCursor converts a position in logical pixels to config coordinates as if all of config space was
// visible, which is how minimaps address the data.
func (v *View) ConfigSpaceCursor(logical geom.Point) geom.Point {
	return v.ToConfigSpace().Transform(v.canvas.LogicalToPhysical(logical))
}

// ModelCursor converts a position in logical pixels to model coordinates, undoing the config space transform.
func (v *View) ModelCursor(logical geom.Point) geom.Point {
	p := v.ConfigViewCursor(logical)
	inv, ok := v.opts.ConfigSpaceTransform.Invert()
	if !ok {
		return p
	}
	return inv.Transform(p)
}

// ConfigToPhysical maps a rect in config coordinates to physical pixels.
func (v *View) ConfigToPhysical(r geom.Rect) geom.Rect {
	return v.FromConfigView().TransformRect(r)
}
