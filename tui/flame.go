package tui

import (
	"strings"
	"time"

	"github.com/spanlens/spanlens/canvas"
	"github.com/spanlens/spanlens/chart"
	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/render"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/view"

	"gioui.org/unit"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	chartRows    = 5
	uiFramesRows = 1
	// zoomStep is the factor applied by one zoom key press or wheel step.
	zoomStep = 0.75
	// panStep is how far one pan key press moves, as a fraction of the visible width.
	panStep = 0.1
)

var sorts = []flamegraph.Sort{flamegraph.SortCallOrder, flamegraph.SortAlphabetical, flamegraph.SortLeftHeavy}

// lane is one horizontal strip of the screen with its own canvas, view and surface.
type lane struct {
	canvas  *canvas.Canvas
	view    *view.View
	surface *render.TermSurface
	rows    int
	detach  func()
}

func newLane(m view.Model, cols, rows int, opts view.Options) *lane {
	c := canvas.New(float64(cols), float64(rows), unit.Metric{PxPerDp: 1, PxPerSp: 1})
	return &lane{
		canvas:  c,
		view:    view.New(c, m, opts),
		surface: render.NewTermSurface(cols, rows),
		rows:    rows,
	}
}

func (l *lane) resize(cols, rows int) {
	l.rows = rows
	l.canvas.Resize(float64(cols), float64(rows))
	l.view.ResizeConfigSpace(l.canvas)
	l.surface.Resize(cols, rows)
}

// flamePane shows a flamegraph, and for chronological profiles with measurements, the measurement charts and UI
// frames above it, all sharing the time axis.
type flamePane struct {
	sched       *scheduler.CanvasScheduler
	lanes       *scheduler.Lanes
	nav         navigator
	theme       mycolor.Theme
	chromaStyle string

	fg       *flamegraph.Flamegraph
	flame    *lane
	renderer *render.FlamegraphRenderer

	chart         *lane
	chartRenderer *render.ChartRenderer
	ui            *lane
	uiRenderer    *render.UIFramesRenderer

	selected *flamegraph.Node
	hovered  *flamegraph.Node
	hoverTip string
	query    string
	sort     int
}

type flameOptions struct {
	Theme             mycolor.Theme
	BarHeight         float64
	AnimationDuration time.Duration
	Sort              flamegraph.Sort
	ChromaStyle       string
	Measurements      chart.Measurements
	Duration          time.Duration
}

func newFlamePane(sched *scheduler.CanvasScheduler, fg *flamegraph.Flamegraph, cols, rows int, opts flameOptions) *flamePane {
	p := &flamePane{
		sched:       sched,
		lanes:       scheduler.NewLanes(sched),
		theme:       opts.Theme,
		chromaStyle: opts.ChromaStyle,
		fg:          fg,
	}
	for i, s := range sorts {
		if s == opts.Sort {
			p.sort = i
		}
	}

	timed := fg.Chronological && fg.Unit == "nanoseconds" && opts.Duration > 0
	if c := chart.New(opts.Measurements, opts.Duration); timed && len(c.Series) > 0 && rows > 2*chartRows {
		p.chart = newLane(c, cols, chartRows, view.Options{Mode: view.StretchToFit, Inverted: true, MinWidth: 1})
		p.chartRenderer = render.NewChartRenderer(p.chart.surface, p.chart.view, c, opts.Theme)
		p.chart.detach = p.chartRenderer.Attach(sched)
	}
	if timed {
		if u := chart.NewUIFrames(opts.Measurements, opts.Duration); len(u.Frames) > 0 && rows > 2*uiFramesRows {
			p.ui = newLane(u, cols, uiFramesRows, view.Options{Mode: view.StretchToFit, MinWidth: 1})
			p.uiRenderer = render.NewUIFramesRenderer(p.ui.surface, p.ui.view, u, opts.Theme)
			p.ui.detach = p.uiRenderer.Attach(sched)
		}
	}

	barHeight := opts.BarHeight
	if barHeight <= 0 {
		barHeight = 1
	}
	p.flame = newLane(fg, cols, p.flameRows(rows), view.Options{
		// One sample, or one nanosecond, is the finest resolution of any profile.
		MinWidth:  1,
		BarHeight: barHeight,
		Mode:      view.AnchorTop,
	})
	ro := render.DefaultFlamegraphOptions()
	ro.Gap = 0
	ro.Padding = 0
	p.renderer = render.NewFlamegraphRenderer(p.flame.surface, p.flame.view, fg, opts.Theme, ro)
	p.flame.detach = p.renderer.Attach(sched)
	p.nav = navigator{sched: sched, lane: p.flame, duration: opts.AnimationDuration}

	// The flamegraph leads; the charts follow its x range.
	p.lanes.Add(p.flame.view, scheduler.SyncX)
	for _, l := range p.extraLanes() {
		p.lanes.Add(l.view, scheduler.SyncX)
	}
	if len(fg.Roots) > 0 && !fg.Empty {
		p.selectNode(fg.Roots[0], false)
	}
	sched.Draw()
	return p
}

func (p *flamePane) extraLanes() []*lane {
	var out []*lane
	if p.chart != nil {
		out = append(out, p.chart)
	}
	if p.ui != nil {
		out = append(out, p.ui)
	}
	return out
}

func (p *flamePane) flameRows(rows int) int {
	for _, l := range p.extraLanes() {
		rows -= l.rows
	}
	return max(rows, 1)
}

func (p *flamePane) Resize(cols, rows int) {
	for _, l := range p.extraLanes() {
		l.resize(cols, l.rows)
	}
	p.flame.resize(cols, p.flameRows(rows))
	p.sched.Draw()
}

func (p *flamePane) Close() {
	p.nav.anim.Cancel()
	p.lanes.Close()
	for _, l := range append(p.extraLanes(), p.flame) {
		if l.detach != nil {
			l.detach()
		}
	}
}

func (p *flamePane) Tick(now time.Time) { p.nav.tick(now) }

// Zoom zooms around the selected frame if it's visible, or the center of the view otherwise.
func (p *flamePane) Zoom(now time.Time, factor float64) {
	cv := p.flame.view.ConfigView()
	x := cv.CenterX()
	if p.selected != nil {
		if r := p.selected.Rect(); cv.ContainsX(r.CenterX()) {
			x = r.CenterX()
		}
	}
	p.nav.zoom(now, x, factor)
}

func (p *flamePane) Pan(dx float64)     { p.nav.pan(dx) }
func (p *flamePane) Reset()             { p.nav.reset() }
func (p *flamePane) Undo(now time.Time) { p.nav.undo(now) }

// Activate zooms to the selected frame.
func (p *flamePane) Activate(now time.Time) {
	if p.selected == nil {
		return
	}
	p.nav.anim.Cancel()
	p.sched.Dispatch(scheduler.ZoomAtFrame{Bounds: p.selected.Rect(), Strategy: view.ZoomExact}, p.flame.view)
}

// Move walks the selection: up to the parent, down to the first child, sideways to siblings.
func (p *flamePane) Move(dx, dy int) {
	n := p.selected
	if n == nil {
		return
	}
	switch {
	case dy < 0 && n.Parent != nil:
		n = n.Parent
	case dy > 0 && len(n.Children) > 0:
		n = n.Children[0]
	case dx != 0:
		siblings := p.fg.Roots
		if n.Parent != nil {
			siblings = n.Parent.Children
		}
		for i, s := range siblings {
			if s == n {
				if j := i + dx; j >= 0 && j < len(siblings) {
					n = siblings[j]
				}
				break
			}
		}
	}
	p.selectNode(n, true)
}

func (p *flamePane) selectNode(n *flamegraph.Node, reveal bool) {
	p.selected = n
	p.sched.Dispatch(scheduler.HighlightFrame{Name: n.Frame.Name, Package: n.Frame.Package, Mode: scheduler.HighlightSelected}, p.flame.view)
	if reveal {
		p.nav.reveal(n.Rect())
	}
}

func (p *flamePane) Search(query string) {
	p.query = query
	p.sched.Dispatch(scheduler.Search{Query: query}, p.flame.view)
}

func (p *flamePane) NextSort() {
	if p.fg.Chronological {
		return
	}
	p.sort = (p.sort + 1) % len(sorts)
	p.sched.Dispatch(scheduler.SetSort{Sort: sorts[p.sort].String()}, p.flame.view)
}

// Mouse handles a mouse event at cell (x, y) of the pane.
func (p *flamePane) Mouse(msg tea.MouseMsg, x, y int) {
	pt := geom.Pt(float64(x)+0.5, float64(y)+0.5)
	top := 0
	for _, l := range p.extraLanes() {
		if y < top+l.rows {
			p.hoverLane(l, pt.Sub(geom.Pt(0, float64(top))))
			return
		}
		top += l.rows
	}
	pt = pt.Sub(geom.Pt(0, float64(top)))
	p.hoverTip = ""
	if p.chartRenderer != nil {
		p.chartRenderer.HideCursor()
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		p.nav.zoomAtCursor(pt, zoomStep)
	case msg.Button == tea.MouseButtonWheelDown:
		p.nav.zoomAtCursor(pt, 1/zoomStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if n := p.renderer.NodeAt(pt); n != nil {
			p.selectNode(n, false)
		}
	case msg.Action == tea.MouseActionMotion:
		n := p.renderer.NodeAt(pt)
		if n == p.hovered {
			return
		}
		p.hovered = n
		ev := scheduler.HighlightFrame{Mode: scheduler.HighlightHover}
		if n != nil {
			ev.Name, ev.Package = n.Frame.Name, n.Frame.Package
		}
		p.sched.Dispatch(ev, p.flame.view)
	}
}

func (p *flamePane) hoverLane(l *lane, pt geom.Point) {
	switch l {
	case p.chart:
		p.chartRenderer.SetCursor(pt)
		p.hoverTip = p.chartRenderer.Tooltip()
	case p.ui:
		p.hoverTip = render.UIFrameTooltip(p.uiRenderer.FramesAt(pt))
	}
	p.sched.Draw()
}

func (p *flamePane) Title() string {
	name := p.fg.Name
	if name == "" {
		name = "profile"
	}
	kind := "flamegraph, " + sorts[p.sort].String()
	if p.fg.Chronological {
		kind = "flamechart"
	}
	return name + " (" + kind + ")"
}

func (p *flamePane) Status() string {
	parts := []string{"visible " + geom.ToPercent(p.nav.visible())}
	if p.query != "" {
		parts = append(parts, "search "+p.query+": "+render.FormatWeight("count", float64(p.renderer.Matches()))+" frames")
	}
	if p.hoverTip != "" {
		parts = append(parts, strings.ReplaceAll(p.hoverTip, "\n", ", "))
	}
	return strings.Join(parts, " | ")
}

func (p *flamePane) Detail() string {
	if p.selected == nil || p.fg.Empty {
		return ""
	}
	d := render.FrameTooltip(p.fg, p.selected)
	if src := sourceExcerpt(p.selected.Frame.File, p.selected.Frame.Line, p.chromaStyle); src != "" {
		d += "\n\n" + src
	}
	return d
}

func (p *flamePane) View() string {
	var parts []string
	for _, l := range append(p.extraLanes(), p.flame) {
		parts = append(parts, l.surface.Render())
	}
	return strings.Join(parts, "\n")
}
