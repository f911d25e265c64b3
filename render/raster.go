package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/stuff/math/mathutil"
)

// RasterSurface draws into an in-memory RGBA image, for exporting views as PNG files.
type RasterSurface struct {
	Image *image.RGBA
	Face  font.Face
}

func NewRasterSurface(width, height int) *RasterSurface {
	return &RasterSurface{
		Image: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		Face:  basicfont.Face7x13,
	}
}

func (s *RasterSurface) Size() geom.Point {
	b := s.Image.Bounds()
	return geom.Pt(float64(b.Dx()), float64(b.Dy()))
}

func (s *RasterSurface) Clear(c color.NRGBA) {
	draw.Draw(s.Image, s.Image.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// pixelRect rounds r to whole pixels. Anything with a positive width or height covers at least one pixel.
func pixelRect(r geom.Rect) image.Rectangle {
	x0, y0 := int(math.Round(r.Left())), int(math.Round(r.Top()))
	x1, y1 := int(math.Round(r.Right())), int(math.Round(r.Bottom()))
	if x1 == x0 && r.Width > 0 {
		x1++
	}
	if y1 == y0 && r.Height > 0 {
		y1++
	}
	return image.Rect(x0, y0, x1, y1)
}

func (s *RasterSurface) FillRect(r geom.Rect, c color.NRGBA) {
	if !r.IsFinite() || r.IsEmpty() {
		return
	}
	draw.Draw(s.Image, pixelRect(r), image.NewUniform(c), image.Point{}, draw.Over)
}

func (s *RasterSurface) StrokeRect(r geom.Rect, width float64, c color.NRGBA) {
	for _, edge := range outlineEdges(r, width) {
		s.FillRect(edge, c)
	}
}

// outlineEdges splits the border of r into four non-overlapping rectangles.
func outlineEdges(r geom.Rect, width float64) []geom.Rect {
	if r.IsEmpty() || width <= 0 {
		return nil
	}
	w := min(width, r.Width/2, r.Height/2)
	return []geom.Rect{
		geom.NewRect(r.X, r.Y, r.Width, w),
		geom.NewRect(r.X, r.Bottom()-w, r.Width, w),
		geom.NewRect(r.X, r.Y+w, w, r.Height-2*w),
		geom.NewRect(r.Right()-w, r.Y+w, w, r.Height-2*w),
	}
}

// Polyline draws each segment as a sequence of squares, one per pixel step along the segment's major axis.
func (s *RasterSurface) Polyline(pts []geom.Point, width float64, c color.NRGBA) {
	width = max(width, 1)
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Ceil(max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
		for j := 0; j <= steps; j++ {
			t := 0.0
			if steps > 0 {
				t = float64(j) / float64(steps)
			}
			x := mathutil.Lerp(a.X, b.X, t)
			y := mathutil.Lerp(a.Y, b.Y, t)
			s.FillRect(geom.NewRect(x-width/2, y-width/2, width, width), c)
		}
	}
}

func (s *RasterSurface) Text(p geom.Point, str string, c color.NRGBA) {
	d := font.Drawer{
		Dst:  s.Image,
		Src:  image.NewUniform(c),
		Face: s.Face,
		Dot:  fixed.P(int(math.Round(p.X)), int(math.Round(p.Y))+s.Face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(str)
}

func (s *RasterSurface) MeasureText(str string) float64 {
	return float64(font.MeasureString(s.Face, str)) / 64
}

func (s *RasterSurface) LineHeight() float64 {
	return float64(s.Face.Metrics().Height.Ceil())
}

func (s *RasterSurface) WritePNG(w io.Writer) error {
	return png.Encode(w, s.Image)
}
