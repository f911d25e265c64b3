package render

import (
	"math"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/view"
)

// SpanChartRenderer draws the spans of a trace on the same time axis as a flamechart.
type SpanChartRenderer struct {
	surface Surface
	view    *view.View
	chart   *spantree.Chart
	theme   mycolor.Theme
	opts    FlamegraphOptions

	placed      []placed[*spantree.ChartSpan]
	labels      *labelCache
	stats       Stats
	highlighted map[string]bool

	detach []func()
}

func NewSpanChartRenderer(s Surface, v *view.View, c *spantree.Chart, th mycolor.Theme, opts FlamegraphOptions) *SpanChartRenderer {
	return &SpanChartRenderer{surface: s, labels: newLabelCache(s), view: v, chart: c, theme: th, opts: opts}
}

func (r *SpanChartRenderer) Attach(sched *scheduler.CanvasScheduler) (detach func()) {
	r.detach = append(r.detach,
		sched.RegisterBeforeFrameCallback(r.DrawBase),
		sched.RegisterAfterFrameCallback(r.DrawLabels),
		sched.RegisterAfterFrameCallback(r.DrawHighlight),
		sched.On(scheduler.KindHighlightSpan, func(ev scheduler.Event, _ scheduler.Source) {
			r.Highlight(ev.(scheduler.HighlightSpan).SpanIDs...)
			sched.Draw()
		}),
	)
	return r.Detach
}

func (r *SpanChartRenderer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

func (r *SpanChartRenderer) Stats() Stats { return r.stats }

// Highlight outlines the spans with the given IDs. No IDs clear the highlight.
func (r *SpanChartRenderer) Highlight(ids ...string) {
	r.highlighted = nil
	if len(ids) == 0 {
		return
	}
	r.highlighted = make(map[string]bool, len(ids))
	for _, id := range ids {
		r.highlighted[id] = true
	}
}

// SpanAt returns the span under the logical point p.
func (r *SpanChartRenderer) SpanAt(p geom.Point) *spantree.ChartSpan {
	return r.chart.HitTest(r.view.ConfigViewCursor(p))
}

func spanRect(s *spantree.ChartSpan) geom.Rect {
	return geom.NewRect(s.Start, float64(s.Depth), s.Duration(), 1)
}

func (r *SpanChartRenderer) DrawBase() {
	r.surface.Clear(r.theme.Background)
	r.placed = r.placed[:0]
	r.stats = Stats{}

	size := r.surface.Size()
	area := bounds(r.surface)
	m := r.view.FromConfigView()
	cv := r.view.ConfigView()
	for d := max(int(math.Floor(cv.Top())), 0); d < int(math.Ceil(cv.Bottom())); d++ {
		for _, s := range r.chart.Level(d) {
			pr := m.TransformRect(spanRect(s))
			// Zero-duration spans still get a sliver, so that they can be found.
			pr.Width = max(pr.Width, 1)
			if !visibleX(pr, size) || !visibleY(pr, size) {
				r.stats.Culled++
				continue
			}
			c := mycolor.ForOp(s.Node.Span.Op)
			dr := inset(pr.Intersect(area), r.opts.Gap)
			r.surface.FillRect(dr, c)
			r.placed = append(r.placed, placed[*spantree.ChartSpan]{item: s, rect: dr, color: c})
			r.stats.Drawn++
		}
	}
}

func spanLabel(s spantree.Span) string {
	if s.Description == "" {
		return s.Op
	}
	return s.Op + ": " + s.Description
}

func (r *SpanChartRenderer) DrawLabels() {
	if len(r.chart.Spans) == 0 {
		centerText(r.surface, "No spans", r.theme.Muted)
		return
	}
	r.stats.Labels = drawLabels(r.labels, r.placed, r.opts.Padding, func(s *spantree.ChartSpan) string {
		return spanLabel(s.Node.Span)
	})
}

func (r *SpanChartRenderer) DrawHighlight() {
	if r.highlighted == nil {
		return
	}
	for _, p := range r.placed {
		if r.highlighted[p.item.Node.Span.SpanID] {
			r.surface.StrokeRect(p.rect, 2, mycolor.WithAlpha(r.theme.Selection, 0xFF))
		}
	}
}
