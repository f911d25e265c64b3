package render

import (
	"time"

	"github.com/spanlens/spanlens/chart"
	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/units"
	"github.com/spanlens/spanlens/view"
)

// gridLines is the number of horizontal grid lines, including the ones at the bottom and top of the view.
const gridLines = 5

// ChartRenderer draws the series of a measurement chart as lines. Charts grow upwards, so the view should be
// inverted.
type ChartRenderer struct {
	surface Surface
	view    *view.View
	chart   *chart.Chart
	theme   mycolor.Theme

	// cursor is the x position of the hover line, in nanoseconds.
	cursor    float64
	hasCursor bool

	stats  Stats
	detach []func()
}

func NewChartRenderer(s Surface, v *view.View, c *chart.Chart, th mycolor.Theme) *ChartRenderer {
	return &ChartRenderer{surface: s, view: v, chart: c, theme: th}
}

func (r *ChartRenderer) Attach(sched *scheduler.CanvasScheduler) (detach func()) {
	r.detach = append(r.detach,
		sched.RegisterBeforeFrameCallback(r.DrawBase),
		sched.RegisterAfterFrameCallback(r.DrawLabels),
		sched.RegisterAfterFrameCallback(r.DrawHighlight),
	)
	return r.Detach
}

func (r *ChartRenderer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

func (r *ChartRenderer) Stats() Stats { return r.stats }

// SetCursor moves the hover line to the logical point p.
func (r *ChartRenderer) SetCursor(p geom.Point) {
	r.cursor = r.view.ModelCursor(p).X
	r.hasCursor = true
}

func (r *ChartRenderer) HideCursor() { r.hasCursor = false }

// Tooltip describes the series under the cursor.
func (r *ChartRenderer) Tooltip() string {
	if !r.hasCursor {
		return ""
	}
	return SeriesTooltip(r.chart, r.cursor)
}

func (r *ChartRenderer) DrawBase() {
	r.surface.Clear(r.theme.Background)
	r.stats = Stats{}
	size := r.surface.Size()
	m := r.view.FromTransformedConfigView()

	cv := r.view.ConfigView()
	for i := 0; i < gridLines; i++ {
		y := m.Transform(geom.Pt(0, cv.Y+cv.Height*float64(i)/(gridLines-1))).Y
		r.surface.FillRect(geom.NewRect(0, y, size.X, 1), r.theme.Grid)
	}

	for i := range r.chart.Series {
		pts := r.chart.Points(i)
		var line []geom.Point
		for j, p := range pts {
			pp := m.Transform(p)
			// Keep one point on either side of the surface, so that lines enter and leave at the right angle.
			if pp.X < 0 && j+1 < len(pts) && m.Transform(pts[j+1]).X < 0 {
				r.stats.Culled++
				continue
			}
			line = append(line, pp)
			if pp.X > size.X {
				r.stats.Culled += len(pts) - j - 1
				break
			}
		}
		if len(line) == 0 {
			continue
		}
		if len(line) == 1 {
			r.surface.FillRect(geom.NewRect(line[0].X-1, line[0].Y-1, 2, 2), r.theme.SeriesColor(i))
		} else {
			r.surface.Polyline(line, 1.5, r.theme.SeriesColor(i))
		}
		r.stats.Drawn++
	}
}

func (r *ChartRenderer) DrawLabels() {
	if len(r.chart.Series) == 0 {
		centerText(r.surface, "No measurements", r.theme.Muted)
		return
	}
	lh := r.surface.LineHeight()
	for i, s := range r.chart.Series {
		label := s.Name + " (max " + units.Float(s.Max, 2)
		if s.Unit != "" {
			label += " " + s.Unit
		}
		label += ")"
		r.surface.Text(geom.Pt(4, float64(i)*lh), label, r.theme.SeriesColor(i))
	}
	r.stats.Labels = len(r.chart.Series)
}

func (r *ChartRenderer) DrawHighlight() {
	if !r.hasCursor {
		return
	}
	size := r.surface.Size()
	m := r.view.FromTransformedConfigView()
	x := m.Transform(geom.Pt(r.cursor, 0)).X
	if x < 0 || x > size.X {
		return
	}
	r.surface.FillRect(geom.NewRect(x, 0, 1, size.Y), r.theme.Foreground)
	for i := range r.chart.Series {
		v, ok := r.chart.ValueAt(i, r.cursor)
		if !ok {
			continue
		}
		p := m.Transform(geom.Pt(r.cursor, v))
		r.surface.FillRect(geom.NewRect(p.X-2, p.Y-2, 4, 4), r.theme.SeriesColor(i))
	}
	at := units.Duration(time.Duration(r.cursor))
	r.surface.Text(geom.Pt(min(x+4, max(size.X-r.surface.MeasureText(at), 0)), size.Y-r.surface.LineHeight()), at, r.theme.Foreground)
}

// UIFramesRenderer marks slow and frozen frames on the time axis.
type UIFramesRenderer struct {
	surface Surface
	view    *view.View
	frames  *chart.UIFrames
	theme   mycolor.Theme

	stats  Stats
	detach []func()
}

func NewUIFramesRenderer(s Surface, v *view.View, f *chart.UIFrames, th mycolor.Theme) *UIFramesRenderer {
	return &UIFramesRenderer{surface: s, view: v, frames: f, theme: th}
}

func (r *UIFramesRenderer) Attach(sched *scheduler.CanvasScheduler) (detach func()) {
	r.detach = append(r.detach,
		sched.RegisterBeforeFrameCallback(r.DrawBase),
		sched.RegisterAfterFrameCallback(r.DrawLabels),
	)
	return r.Detach
}

func (r *UIFramesRenderer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

func (r *UIFramesRenderer) Stats() Stats { return r.stats }

// FramesAt returns the frames under the logical point p.
func (r *UIFramesRenderer) FramesAt(p geom.Point) []chart.UIFrame {
	return r.frames.FramesAt(r.view.ModelCursor(p).X)
}

func (r *UIFramesRenderer) DrawBase() {
	r.surface.Clear(r.theme.Background)
	r.stats = Stats{}
	size := r.surface.Size()
	m := r.view.FromTransformedConfigView()
	for _, f := range r.frames.Frames {
		pr := m.TransformRect(geom.NewRect(float64(f.Start), 0, float64(f.Duration()), 1))
		pr.Width = max(pr.Width, 1)
		if !visibleX(pr, size) {
			r.stats.Culled++
			continue
		}
		c := r.theme.SlowFrame
		if f.Kind == chart.FrozenFrame {
			c = r.theme.FrozenFrame
		}
		r.surface.FillRect(pr.Intersect(bounds(r.surface)), c)
		r.stats.Drawn++
	}
}

func (r *UIFramesRenderer) DrawLabels() {
	slow, frozen := r.frames.Counts()
	label := units.Count(slow) + " slow, " + units.Count(frozen) + " frozen"
	size := r.surface.Size()
	r.surface.Text(geom.Pt(max(size.X-r.surface.MeasureText(label)-4, 0), 0), label, r.theme.Muted)
	r.stats.Labels = 1
}
