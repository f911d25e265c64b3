// Package render draws flamegraphs, span charts, measurement charts and span waterfalls onto surfaces.
//
// Renderers never own their surface. They're handed one when they're created and hook their drawing into a
// scheduler.CanvasScheduler: the base layer is drawn by a before-frame callback and overlays such as labels and
// highlights by after-frame callbacks, so that every overlay sees the base layer of the same frame.
//
// All coordinates passed to a Surface are physical pixels.
package render

import (
	"image/color"

	"github.com/spanlens/spanlens/geom"

	"github.com/mattn/go-runewidth"
)

type Surface interface {
	// Size returns the size of the surface in physical pixels.
	Size() geom.Point
	Clear(c color.NRGBA)
	FillRect(r geom.Rect, c color.NRGBA)
	// StrokeRect draws the border of r, inside of r.
	StrokeRect(r geom.Rect, width float64, c color.NRGBA)
	Polyline(pts []geom.Point, width float64, c color.NRGBA)
	// Text draws a single line of text with its top left corner at p.
	Text(p geom.Point, s string, c color.NRGBA)
	MeasureText(s string) float64
	LineHeight() float64
}

type OpKind uint8

const (
	OpClear OpKind = iota
	OpFill
	OpStroke
	OpPolyline
	OpText
)

// Op is a single recorded drawing operation.
type Op struct {
	Kind   OpKind
	Rect   geom.Rect
	Points []geom.Point
	Width  float64
	Text   string
	Color  color.NRGBA
}

// Recorder is a Surface that remembers what was drawn on it. Text metrics mimic a 7x13 monospace font.
type Recorder struct {
	Width, Height float64
	Ops           []Op
}

func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() geom.Point { return geom.Pt(r.Width, r.Height) }

// Clear discards all previously recorded operations.
func (r *Recorder) Clear(c color.NRGBA) {
	r.Ops = append(r.Ops[:0], Op{Kind: OpClear, Color: c})
}

func (r *Recorder) FillRect(rect geom.Rect, c color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpFill, Rect: rect, Color: c})
}

func (r *Recorder) StrokeRect(rect geom.Rect, width float64, c color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpStroke, Rect: rect, Width: width, Color: c})
}

func (r *Recorder) Polyline(pts []geom.Point, width float64, c color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpPolyline, Points: append([]geom.Point(nil), pts...), Width: width, Color: c})
}

func (r *Recorder) Text(p geom.Point, s string, c color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpText, Rect: geom.NewRect(p.X, p.Y, r.MeasureText(s), r.LineHeight()), Text: s, Color: c})
}

func (r *Recorder) MeasureText(s string) float64 { return 7 * float64(runewidth.StringWidth(s)) }
func (r *Recorder) LineHeight() float64          { return 13 }

// Filter returns the recorded operations of the given kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns the strings drawn so far, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Filter(OpText) {
		out = append(out, op.Text)
	}
	return out
}

const ellipsis = "…"

// fitText shortens s so that it fits into width, replacing the cut off part with an ellipsis. It returns the empty
// string if not even the first rune and the ellipsis fit.
func fitText(s Surface, text string, width float64) string {
	if width <= 0 || text == "" {
		return ""
	}
	if s.MeasureText(text) <= width {
		return text
	}
	// Binary search for the longest prefix, in runes, that fits together with the ellipsis.
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.MeasureText(string(runes[:mid])+ellipsis) <= width {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return ""
	}
	return string(runes[:lo]) + ellipsis
}
