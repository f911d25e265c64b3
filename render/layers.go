package render

import (
	"image/color"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"
)

// Stats counts what the last frame drew.
type Stats struct {
	Drawn  int
	Culled int
	Labels int
}

// placed is an item that the base layer drew, remembered so that overlays drawn later in the same frame don't have
// to redo the layout.
type placed[T any] struct {
	item  T
	rect  geom.Rect
	color color.NRGBA
}

// inset shrinks r by gap on the right and bottom, so that neighboring rectangles don't touch. Rectangles too small to
// give up the space are returned unchanged.
func inset(r geom.Rect, gap float64) geom.Rect {
	if r.Width > 2*gap {
		r.Width -= gap
	}
	if r.Height > 2*gap {
		r.Height -= gap
	}
	return r
}

// drawLabels draws a label into every rectangle wide enough to fit more than just an ellipsis.
func drawLabels[T any](labels *labelCache, items []placed[T], padding float64, label func(T) string) int {
	s := labels.surface
	minWidth := s.MeasureText(" "+ellipsis+" ") + 2*padding
	lh := s.LineHeight()
	n := 0
	for _, p := range items {
		if p.rect.Width < minWidth || p.rect.Height < lh {
			continue
		}
		txt := labels.fit(label(p.item), p.rect.Width-2*padding)
		if txt == "" {
			continue
		}
		s.Text(geom.Pt(p.rect.X+padding, p.rect.Y+(p.rect.Height-lh)/2), txt, mycolor.TextOn(p.color))
		n++
	}
	return n
}

// visibleX reports whether r intersects the surface horizontally.
func visibleX(r geom.Rect, size geom.Point) bool {
	return r.Right() >= 0 && r.Left() <= size.X
}

func visibleY(r geom.Rect, size geom.Point) bool {
	return r.Bottom() > 0 && r.Top() < size.Y
}

func bounds(s Surface) geom.Rect {
	sz := s.Size()
	return geom.NewRect(0, 0, sz.X, sz.Y)
}

// centerText draws txt in the middle of the surface.
func centerText(s Surface, txt string, c color.NRGBA) {
	sz := s.Size()
	s.Text(geom.Pt(max((sz.X-s.MeasureText(txt))/2, 0), max((sz.Y-s.LineHeight())/2, 0)), txt, c)
}
