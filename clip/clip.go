// Package clip builds Gio clip paths from float rectangles.
package clip

import (
	"github.com/spanlens/spanlens/geom"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
)

type FRect struct {
	Min f32.Point
	Max f32.Point
}

func FromRect(r geom.Rect) FRect {
	return FRect{
		Min: f32.Pt(float32(r.Left()), float32(r.Top())),
		Max: f32.Pt(float32(r.Right()), float32(r.Bottom())),
	}
}

func (r FRect) Empty() bool { return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y }

// Overlaps reports whether the rectangles share any area. Touching edges don't count.
func (r FRect) Overlaps(o FRect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X && r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

func (r FRect) Path(ops *op.Ops) clip.PathSpec {
	var p clip.Path
	p.Begin(ops)
	r.IntoPath(&p)
	return p.End()
}

// IntoPath appends the rectangle clockwise.
func (r FRect) IntoPath(p *clip.Path) {
	p.MoveTo(r.Min)
	p.LineTo(f32.Pt(r.Max.X, r.Min.Y))
	p.LineTo(r.Max)
	p.LineTo(f32.Pt(r.Min.X, r.Max.Y))
	p.LineTo(r.Min)
}

// IntoPathR appends the rectangle counter-clockwise, which cuts a hole into a clockwise rectangle.
func (r FRect) IntoPathR(p *clip.Path) {
	p.MoveTo(r.Min)
	p.LineTo(f32.Pt(r.Min.X, r.Max.Y))
	p.LineTo(r.Max)
	p.LineTo(f32.Pt(r.Max.X, r.Min.Y))
	p.LineTo(r.Min)
}

func (r FRect) Op(ops *op.Ops) clip.Op {
	return clip.Outline{Path: r.Path(ops)}.Op()
}

// Outline is the border of a rectangle, drawn inside of it.
type Outline struct {
	Rect  FRect
	Width float32
}

func (out Outline) Op(ops *op.Ops) clip.Op {
	var p clip.Path
	p.Begin(ops)
	out.Rect.IntoPath(&p)
	inner := FRect{
		Min: f32.Pt(out.Rect.Min.X+out.Width, out.Rect.Min.Y+out.Width),
		Max: f32.Pt(out.Rect.Max.X-out.Width, out.Rect.Max.Y-out.Width),
	}
	if !inner.Empty() {
		inner.IntoPathR(&p)
	}
	p.Close()

	return clip.Outline{Path: p.End()}.Op()
}

// Batch accumulates many rectangles into a single path, so that all of them can be filled with one paint operation.
// The zero value is ready to use after Begin.
type Batch struct {
	path  clip.Path
	count int
}

func (b *Batch) Begin(ops *op.Ops) {
	b.path.Begin(ops)
	b.count = 0
}

func (b *Batch) Add(r FRect) {
	if r.Empty() {
		return
	}
	r.IntoPath(&b.path)
	b.count++
}

func (b *Batch) Len() int { return b.count }

func (b *Batch) End() clip.Op {
	return clip.Outline{Path: b.path.End()}.Op()
}

// Polyline returns the stroke of a series of points.
func Polyline(ops *op.Ops, pts []f32.Point, width float32) clip.Op {
	var p clip.Path
	p.Begin(ops)
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(pt)
		} else {
			p.LineTo(pt)
		}
	}
	return clip.Stroke{Path: p.End(), Width: width}.Op()
}
