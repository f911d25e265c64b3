package render

import (
	"image"
	"image/color"
	"math"

	"github.com/spanlens/spanlens/clip"
	"github.com/spanlens/spanlens/geom"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/mattn/go-runewidth"
	"golang.org/x/exp/slices"
)

// GioSurface records drawing operations into Gio ops, for embedding renderers in a Gio window.
//
// We have an order of magnitude more rectangles than colors, which is why fills are batched by color and only emitted
// when something other than a fill is drawn, or when Flush is called. A fill that would end up beneath an overlapping
// fill of a color batched after its own flushes the batches first, so fills always paint in call order.
type GioSurface struct {
	ops      *op.Ops
	size     geom.Point
	metric   unit.Metric
	shaper   *text.Shaper
	TextSize unit.Sp

	fills  map[color.NRGBA][]clip.FRect
	bounds map[color.NRGBA]geom.Rect
	colors []color.NRGBA
	batch  clip.Batch
}

// NewGioSurface returns a surface of the given size in pixels. Text is only drawn if shaper is not nil.
func NewGioSurface(ops *op.Ops, size image.Point, m unit.Metric, shaper *text.Shaper) *GioSurface {
	return &GioSurface{
		ops:      ops,
		size:     geom.Pt(float64(size.X), float64(size.Y)),
		metric:   m,
		shaper:   shaper,
		TextSize: 12,
		fills:    map[color.NRGBA][]clip.FRect{},
		bounds:   map[color.NRGBA]geom.Rect{},
	}
}

func (s *GioSurface) Size() geom.Point { return s.size }

func (s *GioSurface) Clear(c color.NRGBA) {
	s.reset()
	s.FillRect(geom.NewRect(0, 0, s.size.X, s.size.Y), c)
}

func (s *GioSurface) reset() {
	for k := range s.fills {
		delete(s.fills, k)
	}
	for k := range s.bounds {
		delete(s.bounds, k)
	}
	s.colors = s.colors[:0]
}

func (s *GioSurface) FillRect(r geom.Rect, c color.NRGBA) {
	if !r.IsFinite() || r.IsEmpty() {
		return
	}
	fr := clip.FromRect(r)
	if s.coveredLater(fr, r, c) {
		s.Flush()
	}
	rects, ok := s.fills[c]
	if ok {
		s.bounds[c] = s.bounds[c].Union(r)
	} else {
		s.colors = append(s.colors, c)
		s.bounds[c] = r
	}
	s.fills[c] = append(rects, fr)
}

// coveredLater reports whether a fill of r in color c would be painted beneath an overlapping fill of a color that was
// first used after c.
func (s *GioSurface) coveredLater(fr clip.FRect, r geom.Rect, c color.NRGBA) bool {
	i := slices.Index(s.colors, c)
	if i == -1 {
		return false
	}
	for _, later := range s.colors[i+1:] {
		if s.bounds[later].Intersect(r).IsEmpty() {
			continue
		}
		for _, o := range s.fills[later] {
			if fr.Overlaps(o) {
				return true
			}
		}
	}
	return false
}

// Flush emits all batched fills.
func (s *GioSurface) Flush() {
	for _, c := range s.colors {
		rects := s.fills[c]
		s.batch.Begin(s.ops)
		for _, r := range rects {
			s.batch.Add(r)
		}
		if s.batch.Len() > 0 {
			paint.FillShape(s.ops, c, s.batch.End())
		} else {
			s.batch.End()
		}
	}
	s.reset()
}

func (s *GioSurface) StrokeRect(r geom.Rect, width float64, c color.NRGBA) {
	if r.IsEmpty() || width <= 0 {
		return
	}
	s.Flush()
	out := clip.Outline{Rect: clip.FromRect(r), Width: float32(width)}
	paint.FillShape(s.ops, c, out.Op(s.ops))
}

func (s *GioSurface) Polyline(pts []geom.Point, width float64, c color.NRGBA) {
	if len(pts) < 2 {
		return
	}
	s.Flush()
	fpts := make([]f32.Point, len(pts))
	for i, p := range pts {
		fpts[i] = p.F32()
	}
	paint.FillShape(s.ops, c, clip.Polyline(s.ops, fpts, float32(max(width, 1))))
}

func (s *GioSurface) Text(p geom.Point, str string, c color.NRGBA) {
	if s.shaper == nil || str == "" {
		return
	}
	s.Flush()
	gtx := layout.Context{
		Ops:         s.ops,
		Metric:      s.metric,
		Constraints: layout.Constraints{Max: image.Pt(int(s.size.X), int(s.size.Y))},
	}
	defer op.Offset(image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))).Push(s.ops).Pop()
	m := op.Record(s.ops)
	paint.ColorOp{Color: c}.Add(s.ops)
	material := m.Stop()
	widget.Label{MaxLines: 1}.Layout(gtx, s.shaper, font.Font{}, s.TextSize, str, material)
}

// MeasureText estimates the width of str. The estimate assumes glyphs that are 0.6 em wide, which is accurate for
// monospace fonts and slightly pessimistic for proportional ones.
func (s *GioSurface) MeasureText(str string) float64 {
	return 0.6 * float64(s.metric.Sp(s.TextSize)) * float64(runewidth.StringWidth(str))
}

func (s *GioSurface) LineHeight() float64 {
	return 1.2 * float64(s.metric.Sp(s.TextSize))
}
