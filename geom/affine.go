package geom

import (
	"math"

	"gioui.org/f32"
)

// Affine is a 2D affine transform. The coefficients are ordered like f32.Affine2D:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
//
// Views only ever produce translations and non-uniform scales, but the type doesn't depend on that.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

func Identity() Affine { return Affine{A: 1, E: 1} }

func Translation(dx, dy float64) Affine { return Affine{A: 1, C: dx, E: 1, F: dy} }

func Scaling(sx, sy float64) Affine { return Affine{A: sx, E: sy} }

// ScalingAt returns a scale by (sx, sy) around origin.
func ScalingAt(origin Point, sx, sy float64) Affine {
	return Translation(origin.X, origin.Y).Mul(Scaling(sx, sy)).Mul(Translation(-origin.X, -origin.Y))
}

// Mul returns the transform that applies o first and then m.
func (m Affine) Mul(o Affine) Affine {
	return Affine{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// Then returns the transform that applies m first and then o.
func (m Affine) Then(o Affine) Affine { return o.Mul(m) }

func (m Affine) Translate(dx, dy float64) Affine { return m.Then(Translation(dx, dy)) }

func (m Affine) Scale(sx, sy float64) Affine { return m.Then(Scaling(sx, sy)) }

func (m Affine) Determinant() float64 { return m.A*m.E - m.B*m.D }

// Invert returns the inverse of m. If m is singular, or inverting it would produce non-finite coefficients, Invert
// returns the identity and false.
func (m Affine) Invert() (Affine, bool) {
	det := m.Determinant()
	if det == 0 || !isFinite(det) {
		return Identity(), false
	}
	inv := Affine{
		A: m.E / det,
		B: -m.B / det,
		D: -m.D / det,
		E: m.A / det,
	}
	inv.C = -(inv.A*m.C + inv.B*m.F)
	inv.F = -(inv.D*m.C + inv.E*m.F)
	if !inv.IsFinite() {
		return Identity(), false
	}
	return inv, true
}

func (m Affine) IsFinite() bool {
	return isFinite(m.A) && isFinite(m.B) && isFinite(m.C) && isFinite(m.D) && isFinite(m.E) && isFinite(m.F)
}

func (m Affine) Transform(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformRect maps the corners of r through m and returns the bounding rect of the result. For the
// translation-and-scale transforms used by views this is exact; negative scales flip the rect, which is normalized
// back to a positive size.
func (m Affine) TransformRect(r Rect) Rect {
	a := m.Transform(Point{r.X, r.Y})
	b := m.Transform(Point{r.Right(), r.Bottom()})
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// F32 converts m to Gio's float32 transform.
func (m Affine) F32() f32.Affine2D {
	return f32.NewAffine2D(float32(m.A), float32(m.B), float32(m.C), float32(m.D), float32(m.E), float32(m.F))
}

// F32Point converts p to Gio's float32 point.
func (p Point) F32() f32.Point {
	return f32.Pt(float32(p.X), float32(p.Y))
}
