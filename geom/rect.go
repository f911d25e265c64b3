// Package geom implements the value types shared by views, managers and renderers: points, axis-aligned
// rectangles and affine transforms, plus the few scalar helpers that bound every drag and zoom.
package geom

import (
	"fmt"
	"math"
)

type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Rect is an axis-aligned rectangle described by its origin and size. Rects are values; every method returns a new
// Rect.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func NewRect(x, y, w, h float64) Rect { return Rect{x, y, w, h} }

// RectFromPoints returns the smallest rect containing both points.
func RectFromPoints(a, b Point) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

func (r Rect) Left() float64    { return r.X }
func (r Rect) Right() float64   { return r.X + r.Width }
func (r Rect) Top() float64     { return r.Y }
func (r Rect) Bottom() float64  { return r.Y + r.Height }
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }
func (r Rect) Origin() Point    { return Point{r.X, r.Y} }
func (r Rect) Size() Point      { return Point{r.Width, r.Height} }

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool { return !(r.Width > 0 && r.Height > 0) }

// IsFinite reports whether all components are finite numbers.
func (r Rect) IsFinite() bool {
	return isFinite(r.X) && isFinite(r.Y) && isFinite(r.Width) && isFinite(r.Height)
}

func (r Rect) Equal(o Rect) bool {
	return r.X == o.X && r.Y == o.Y && r.Width == o.Width && r.Height == o.Height
}

// Contains reports whether p lies inside the half-open rect [Left, Right) × [Top, Bottom).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// ContainsX is like Contains but only considers the x axis.
func (r Rect) ContainsX(x float64) bool {
	return x >= r.X && x < r.Right()
}

func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Right() <= r.Right() && o.Y >= r.Y && o.Bottom() <= r.Bottom()
}

// Overlaps reports whether the two rects share any area or touch along an edge.
func (r Rect) Overlaps(o Rect) bool {
	return r.X <= o.Right() && o.X <= r.Right() && r.Y <= o.Bottom() && o.Y <= r.Bottom()
}

// Intersect returns the overlapping region of r and o. If they don't overlap, the result has zero size and is
// positioned at the clamped origin.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

func (r Rect) WithX(x float64) Rect      { r.X = x; return r }
func (r Rect) WithY(y float64) Rect      { r.Y = y; return r }
func (r Rect) WithWidth(w float64) Rect  { r.Width = w; return r }
func (r Rect) WithHeight(h float64) Rect { r.Height = h; return r }

func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Transform applies m to both corners of r and returns the normalized result.
func (r Rect) Transform(m Affine) Rect {
	return m.TransformRect(r)
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(x=%g y=%g w=%g h=%g)", r.X, r.Y, r.Width, r.Height)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
