package render

import (
	"image/color"
	"math"
	"strings"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"honnef.co/go/stuff/math/mathutil"
)

// Cell is one character cell of a TermSurface. A wide rune occupies its own cell and the following one, which then
// has Rune 0.
type Cell struct {
	Rune rune
	FG   color.NRGBA
	BG   color.NRGBA
}

// TermSurface draws onto a grid of terminal cells. One cell is one pixel, so renderers should be driven by a canvas
// whose size is the size of the terminal.
type TermSurface struct {
	cols, rows int
	cells      []Cell
}

func NewTermSurface(cols, rows int) *TermSurface {
	s := &TermSurface{}
	s.Resize(cols, rows)
	return s
}

func (s *TermSurface) Resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.cells = make([]Cell, s.cols*s.rows)
	s.Clear(color.NRGBA{})
}

func (s *TermSurface) Size() geom.Point { return geom.Pt(float64(s.cols), float64(s.rows)) }

// At returns the cell at column x and row y.
func (s *TermSurface) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= s.cols || y >= s.rows {
		return Cell{}
	}
	return s.cells[y*s.cols+x]
}

func (s *TermSurface) set(x, y int, fn func(*Cell)) {
	if x < 0 || y < 0 || x >= s.cols || y >= s.rows {
		return
	}
	fn(&s.cells[y*s.cols+x])
}

func (s *TermSurface) Clear(c color.NRGBA) {
	for i := range s.cells {
		s.cells[i] = Cell{Rune: ' ', BG: c, FG: mycolor.TextOn(c)}
	}
}

func (s *TermSurface) FillRect(r geom.Rect, c color.NRGBA) {
	if !r.IsFinite() || r.IsEmpty() {
		return
	}
	pr := pixelRect(r)
	for y := max(pr.Min.Y, 0); y < min(pr.Max.Y, s.rows); y++ {
		for x := max(pr.Min.X, 0); x < min(pr.Max.X, s.cols); x++ {
			s.set(x, y, func(cell *Cell) {
				cell.BG = composite(cell.BG, c)
				cell.Rune = ' '
			})
		}
	}
}

// composite blends c over dst. Terminals have no transparency, so the result is always opaque.
func composite(dst, c color.NRGBA) color.NRGBA {
	if c.A == 0xFF {
		return c
	}
	a := float64(c.A) / 0xFF
	mix := func(d, s uint8) uint8 { return uint8(math.Round(float64(d)*(1-a) + float64(s)*a)) }
	return color.NRGBA{R: mix(dst.R, c.R), G: mix(dst.G, c.G), B: mix(dst.B, c.B), A: 0xFF}
}

// StrokeRect draws box-drawing characters along the border of r, or brackets around a single row. The width is
// ignored; cells can't be subdivided.
func (s *TermSurface) StrokeRect(r geom.Rect, _ float64, c color.NRGBA) {
	if !r.IsFinite() || r.IsEmpty() {
		return
	}
	pr := pixelRect(r)
	x0, y0, x1, y1 := pr.Min.X, pr.Min.Y, pr.Max.X-1, pr.Max.Y-1
	put := func(x, y int, ch rune) {
		s.set(x, y, func(cell *Cell) {
			cell.Rune = ch
			cell.FG = c
		})
	}
	if y0 == y1 {
		// A single row only gets brackets, which leaves its label readable.
		put(x0, y0, '[')
		if x1 > x0 {
			put(x1, y0, ']')
		}
		return
	}
	if x0 == x1 {
		for y := y0; y <= y1; y++ {
			put(x0, y, '│')
		}
		return
	}
	for x := x0 + 1; x < x1; x++ {
		put(x, y0, '─')
		put(x, y1, '─')
	}
	for y := y0 + 1; y < y1; y++ {
		put(x0, y, '│')
		put(x1, y, '│')
	}
	put(x0, y0, '┌')
	put(x1, y0, '┐')
	put(x0, y1, '└')
	put(x1, y1, '┘')
}

func (s *TermSurface) Polyline(pts []geom.Point, _ float64, c color.NRGBA) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Ceil(max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
		for j := 0; j <= steps; j++ {
			t := 0.0
			if steps > 0 {
				t = float64(j) / float64(steps)
			}
			x := int(math.Floor(mathutil.Lerp(a.X, b.X, t)))
			y := int(math.Floor(mathutil.Lerp(a.Y, b.Y, t)))
			s.set(x, y, func(cell *Cell) {
				cell.Rune = '•'
				cell.FG = c
			})
		}
	}
}

func (s *TermSurface) Text(p geom.Point, str string, c color.NRGBA) {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	if y < 0 || y >= s.rows {
		return
	}
	str = runewidth.Truncate(str, s.cols-x, "")
	for _, r := range str {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		s.set(x, y, func(cell *Cell) {
			cell.Rune = r
			cell.FG = c
		})
		for i := 1; i < w; i++ {
			s.set(x+i, y, func(cell *Cell) {
				cell.Rune = 0
				cell.FG = c
			})
		}
		x += w
	}
}

func (s *TermSurface) MeasureText(str string) float64 { return float64(runewidth.StringWidth(str)) }
func (s *TermSurface) LineHeight() float64            { return 1 }

// Line returns row y as plain text.
func (s *TermSurface) Line(y int) string {
	var sb strings.Builder
	for x := 0; x < s.cols; x++ {
		if r := s.At(x, y).Rune; r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Render returns the grid as styled terminal output, one line per row. Runs of cells with the same colors share a
// style.
func (s *TermSurface) Render() string {
	var sb strings.Builder
	for y := 0; y < s.rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		var run strings.Builder
		var runFG, runBG color.NRGBA
		flush := func() {
			if run.Len() == 0 {
				return
			}
			st := lipgloss.NewStyle().
				Foreground(lipgloss.Color(mycolor.Hex(runFG))).
				Background(lipgloss.Color(mycolor.Hex(runBG)))
			sb.WriteString(st.Render(run.String()))
			run.Reset()
		}
		for x := 0; x < s.cols; x++ {
			cell := s.At(x, y)
			if cell.Rune == 0 {
				continue
			}
			if run.Len() > 0 && (cell.FG != runFG || cell.BG != runBG) {
				flush()
			}
			runFG, runBG = cell.FG, cell.BG
			run.WriteRune(cell.Rune)
		}
		flush()
	}
	return sb.String()
}
