package tui

import (
	"math"
	"strings"
	"time"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/interaction"
	"github.com/spanlens/spanlens/render"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

const (
	// minimapRows is the height of the waterfall's overview. Panes with fewer than minimapMinRows rows have none.
	minimapRows    = 3
	minimapMinRows = 8
	// dividerStep is how far one key press moves the divider.
	dividerStep = 0.05
	// scrollStep is how many cells one key press or wheel step scrolls the name column.
	scrollStep = 4
	// wheelRows is how many rows one wheel step scrolls the waterfall.
	wheelRows = 3
)

type spanMode uint8

const (
	modeWaterfall spanMode = iota
	modeChart
)

// spanPane shows the spans of a transaction, either as a waterfall with a minimap or as a span chart.
type spanPane struct {
	sched       *scheduler.CanvasScheduler
	theme       mycolor.Theme
	chromaStyle string
	tree        *spantree.Tree
	mode        spanMode
	cols, rows  int

	surface   *render.TermSurface
	waterfall *render.WaterfallRenderer
	opts      render.WaterfallOptions
	detach    func()

	window    *interaction.Window
	suppress  *interaction.Suppressor
	drag      *interaction.DragManager
	divider   *interaction.DividerManager
	scrollbar *interaction.ScrollbarManager
	guide     *interaction.CursorGuide
	names     *interaction.ScrollPane
	// windows are earlier view windows, most recent last.
	windows []window

	chart         *lane
	chartData     *spantree.Chart
	chartRenderer *render.SpanChartRenderer
	chartSpans    map[*spantree.Node]*spantree.ChartSpan
	lanes         *scheduler.Lanes
	nav           navigator

	selected *spantree.Node
	hoverTip string
	closers  []func()
}

type window struct{ start, end float64 }

type spanOptions struct {
	Theme             mycolor.Theme
	AnimationDuration time.Duration
	MinZoomWidth      float64
	ChromaStyle       string
}

func newSpanPane(sched *scheduler.CanvasScheduler, frames scheduler.FrameRequester, tree *spantree.Tree, cols, rows int, opts spanOptions) *spanPane {
	p := &spanPane{
		sched:       sched,
		theme:       opts.Theme,
		chromaStyle: opts.ChromaStyle,
		tree:        tree,
		cols:        cols,
		rows:        rows,
		surface:     render.NewTermSurface(cols, rows),
		window:      &interaction.Window{},
		suppress:    interaction.NewSuppressor(&interaction.Body{}),
	}
	p.opts = render.WaterfallOptions{RowHeight: 1, Indent: 2, Padding: 1}
	if rows > minimapMinRows {
		p.opts.MinimapHeight = minimapRows
	}
	p.waterfall = render.NewWaterfallRenderer(p.surface, tree, opts.Theme, p.opts)

	p.drag = interaction.NewDragManager(p.window, p.suppress, p.minimapRef)
	p.divider = interaction.NewDividerManager(p.window, p.suppress, p.rowsRef)
	p.scrollbar = interaction.NewScrollbarManager(frames, p.window, p.suppress, p.trackRef, p.thumbRef)
	p.guide = interaction.NewCursorGuide(p.window, p.timelineRef, p.traceDuration(), p.drag)
	names, _ := p.waterfall.Columns()
	p.names = interaction.NewScrollPane(p.labelWidth(), names.Width)
	p.closers = append(p.closers,
		p.scrollbar.AddPane(p.names),
		p.drag.Close,
		p.divider.Close,
		p.scrollbar.Close,
	)

	p.chartData = spantree.NewChart(tree)
	p.chartSpans = make(map[*spantree.Node]*spantree.ChartSpan, len(p.chartData.Spans))
	for _, s := range p.chartData.Spans {
		p.chartSpans[s.Node] = s
	}
	p.chart = newLane(p.chartData, cols, rows, view.Options{
		MinWidth:  opts.MinZoomWidth,
		BarHeight: 1,
		Mode:      view.AnchorTop,
	})
	ro := render.DefaultFlamegraphOptions()
	ro.Gap = 0
	ro.Padding = 0
	p.chartRenderer = render.NewSpanChartRenderer(p.chart.surface, p.chart.view, p.chartData, opts.Theme, ro)
	p.lanes = scheduler.NewLanes(sched)
	p.lanes.Add(p.chart.view, scheduler.SyncX)
	p.nav = navigator{sched: sched, lane: p.chart, duration: opts.AnimationDuration}

	p.attach()
	if tree.Root != nil {
		p.selectNode(tree.Root, false)
	}
	sched.Draw()
	return p
}

func boxOf(r geom.Rect) geom.Box {
	return geom.Box{
		Bounds:       r,
		ClientWidth:  r.Width,
		ClientHeight: r.Height,
		ScrollWidth:  r.Width,
		ScrollHeight: r.Height,
	}
}

func (p *spanPane) minimapRef() (geom.Box, bool) {
	if p.opts.MinimapHeight <= 0 || p.mode != modeWaterfall {
		return geom.Box{}, false
	}
	size := p.surface.Size()
	return boxOf(geom.NewRect(0, 0, size.X, p.opts.MinimapHeight)), true
}

func (p *spanPane) rowsRef() (geom.Box, bool) {
	if p.mode != modeWaterfall {
		return geom.Box{}, false
	}
	size := p.surface.Size()
	return boxOf(geom.NewRect(0, p.opts.MinimapHeight, size.X, max(size.Y-p.opts.MinimapHeight, 0))), true
}

func (p *spanPane) timelineRef() (geom.Box, bool) {
	if p.mode != modeWaterfall {
		return geom.Box{}, false
	}
	_, timeline := p.waterfall.Columns()
	return boxOf(timeline), true
}

// trackRef is the bottom line of the name column.
func (p *spanPane) trackRef() (geom.Box, bool) {
	if p.mode != modeWaterfall {
		return geom.Box{}, false
	}
	names, _ := p.waterfall.Columns()
	return boxOf(geom.NewRect(names.X, names.Bottom()-1, names.Width, 1)), true
}

func (p *spanPane) thumbRef() (geom.Box, bool) {
	track, ok := p.trackRef()
	if !ok {
		return geom.Box{}, false
	}
	t := p.scrollbar.State().Thumb
	r := track.Bounds
	return boxOf(geom.NewRect(r.X+t.Left*r.Width, r.Y, max(t.Width*r.Width, 1), r.Height)), true
}

func (p *spanPane) traceDuration() time.Duration {
	if p.tree.Trace == nil {
		return 0
	}
	return p.tree.Trace.Duration()
}

// labelWidth is the width the name column needs to show every label in full.
func (p *spanPane) labelWidth() float64 {
	w := 0.0
	for _, n := range p.tree.Nodes {
		label := n.Span.Op
		if n.Span.Description != "" {
			label += ": " + n.Span.Description
		}
		// Two cells for the disclosure triangle and one for padding on either side.
		w = max(w, float64(n.Depth)*p.opts.Indent+float64(runewidth.StringWidth(label))+2+2*p.opts.Padding)
	}
	return w
}

// syncNames matches the name pane to the name column after the divider moved.
func (p *spanPane) syncNames() {
	names, _ := p.waterfall.Columns()
	p.names.SetClientWidth(names.Width)
}

func (p *spanPane) attach() {
	switch p.mode {
	case modeWaterfall:
		p.detach = p.waterfall.Attach(p.sched, render.Managers{
			Drag:      p.drag,
			Divider:   p.divider,
			Scrollbar: p.scrollbar,
			Guide:     p.guide,
		})
	case modeChart:
		p.detach = p.chartRenderer.Attach(p.sched)
	}
}

// Switch toggles between the waterfall and the span chart.
func (p *spanPane) Switch() {
	p.detach()
	p.guide.Hide()
	p.hoverTip = ""
	if p.mode == modeWaterfall {
		p.mode = modeChart
	} else {
		p.mode = modeWaterfall
	}
	p.attach()
	if p.selected != nil {
		p.selectNode(p.selected, true)
	}
	p.sched.Draw()
}

func (p *spanPane) Resize(cols, rows int) {
	p.cols, p.rows = cols, rows
	p.surface.Resize(cols, rows)
	p.chart.resize(cols, rows)
	p.syncNames()
	p.sched.Draw()
}

func (p *spanPane) Close() {
	p.nav.anim.Cancel()
	p.detach()
	p.lanes.Close()
	for _, fn := range p.closers {
		fn()
	}
}

func (p *spanPane) Tick(now time.Time) {
	if p.mode == modeChart {
		p.nav.tick(now)
	}
}

// fraction returns the position of a timestamp within the trace, from 0 to 1.
func (p *spanPane) fraction(ts float64) float64 {
	t := p.tree.Trace
	return geom.Clamp(geom.SafeDiv(ts-t.TraceStartTimestamp, t.TraceEndTimestamp-t.TraceStartTimestamp), 0, 1)
}

func (p *spanPane) setWindow(start, end float64) {
	s, e := p.drag.ViewWindow()
	p.windows = append(p.windows, window{s, e})
	p.drag.SetViewWindow(start, end)
}

// Zoom narrows or widens the minimap's view window around the selected span, or the span chart's view.
func (p *spanPane) Zoom(now time.Time, factor float64) {
	if p.mode == modeChart {
		cv := p.chart.view.ConfigView()
		x := cv.CenterX()
		if s := p.chartSpans[p.selected]; s != nil && cv.ContainsX((s.Start+s.End)/2) {
			x = (s.Start + s.End) / 2
		}
		p.nav.zoom(now, x, factor)
		return
	}
	start, end := p.drag.ViewWindow()
	at := (start + end) / 2
	if n := p.selected; n != nil {
		if c := p.fraction((n.Span.StartTimestamp + n.Span.Timestamp) / 2); c >= start && c <= end {
			at = c
		}
	}
	w := geom.Clamp((end-start)*factor, interaction.MinimumWindowSize, 1)
	s := geom.Clamp(at-(at-start)*geom.SafeDiv(w, end-start), 0, 1-w)
	p.setWindow(s, s+w)
}

func (p *spanPane) Pan(dx float64) {
	if p.mode == modeChart {
		p.nav.pan(dx)
		return
	}
	start, end := p.drag.ViewWindow()
	w := end - start
	s := geom.Clamp(start+dx*w, 0, 1-w)
	p.drag.SetViewWindow(s, s+w)
}

func (p *spanPane) Reset() {
	if p.mode == modeChart {
		p.nav.reset()
		return
	}
	p.setWindow(0, 1)
}

func (p *spanPane) Undo(now time.Time) {
	if p.mode == modeChart {
		p.nav.undo(now)
		return
	}
	if len(p.windows) == 0 {
		return
	}
	w := p.windows[len(p.windows)-1]
	p.windows = p.windows[:len(p.windows)-1]
	p.drag.SetViewWindow(w.start, w.end)
}

// Activate collapses or expands the selected span in the waterfall, and zooms to it in the span chart.
func (p *spanPane) Activate(now time.Time) {
	n := p.selected
	if n == nil {
		return
	}
	if p.mode == modeChart {
		if s := p.chartSpans[n]; s != nil {
			p.nav.anim.Cancel()
			r := geom.NewRect(s.Start, float64(s.Depth), max(s.Duration(), 0), 1)
			p.sched.Dispatch(scheduler.ZoomAtSpan{Bounds: r, Strategy: view.ZoomExact}, p.chart.view)
		}
		return
	}
	if len(n.Children) > 0 {
		p.waterfall.Toggle(n.Span.SpanID)
		p.reveal()
		p.sched.Draw()
	}
}

// ZoomToSelection narrows the minimap's view window to the selected span.
func (p *spanPane) ZoomToSelection() {
	n := p.selected
	if n == nil || p.mode != modeWaterfall {
		return
	}
	p.setWindow(p.fraction(n.Span.StartTimestamp), p.fraction(n.Span.Timestamp))
}

func (p *spanPane) rowOf(n *spantree.Node) int {
	for i, r := range p.waterfall.Rows() {
		if r == n {
			return i
		}
	}
	return -1
}

// Move walks the selection. In the waterfall, up and down move between rows, left collapses or moves to the
// parent and right expands or moves to the first child. In the span chart, it moves like in a flamegraph.
func (p *spanPane) Move(dx, dy int) {
	n := p.selected
	if n == nil {
		return
	}
	if p.mode == modeChart {
		p.selectNode(treeStep(n, dx, dy), true)
		return
	}

	rows := p.waterfall.Rows()
	collapsed := p.waterfall.Collapsed(n.Span.SpanID)
	switch {
	case dy != 0:
		if i := p.rowOf(n); i >= 0 {
			n = rows[geom.Clamp(i+dy, 0, len(rows)-1)]
		}
	case dx < 0 && len(n.Children) > 0 && !collapsed:
		p.waterfall.Toggle(n.Span.SpanID)
	case dx < 0 && n.Parent != nil:
		n = n.Parent
	case dx > 0 && collapsed:
		p.waterfall.Toggle(n.Span.SpanID)
	case dx > 0 && len(n.Children) > 0:
		n = n.Children[0]
	}
	p.selectNode(n, true)
}

// treeStep returns the node next to n: up to the parent, down to the first child, sideways to siblings.
func treeStep(n *spantree.Node, dx, dy int) *spantree.Node {
	switch {
	case dy < 0 && n.Parent != nil:
		return n.Parent
	case dy > 0 && len(n.Children) > 0:
		return n.Children[0]
	case dx != 0 && n.Parent != nil:
		siblings := n.Parent.Children
		for i, s := range siblings {
			if s == n {
				if j := i + dx; j >= 0 && j < len(siblings) {
					return siblings[j]
				}
				break
			}
		}
	}
	return n
}

func (p *spanPane) selectNode(n *spantree.Node, reveal bool) {
	p.selected = n
	var ids []string
	if n.Span.SpanID != "" && !n.IsGap {
		ids = []string{n.Span.SpanID}
	}
	p.sched.Dispatch(scheduler.HighlightSpan{SpanIDs: ids}, p.chart.view)
	if !reveal {
		return
	}
	switch p.mode {
	case modeWaterfall:
		p.reveal()
	case modeChart:
		if s := p.chartSpans[n]; s != nil {
			p.nav.reveal(geom.NewRect(s.Start, float64(s.Depth), s.Duration(), 1))
		}
	}
	p.sched.Draw()
}

// reveal scrolls the waterfall so that the selected row is visible.
func (p *spanPane) reveal() {
	i := p.rowOf(p.selected)
	if i < 0 {
		return
	}
	first := p.waterfall.State().FirstRow
	visible := max(int(float64(p.rows)-p.opts.MinimapHeight), 1)
	switch {
	case i < first:
		p.waterfall.ScrollRows(i - first)
	case i >= first+visible:
		p.waterfall.ScrollRows(i - first - visible + 1)
	}
}

// MoveDivider moves the divider between the name column and the timeline by delta.
func (p *spanPane) MoveDivider(delta float64) {
	if p.mode != modeWaterfall {
		return
	}
	p.divider.SetPosition(p.divider.Position() + delta*dividerStep)
	p.syncNames()
}

// ScrollNames scrolls the name column horizontally by delta steps.
func (p *spanPane) ScrollNames(delta float64) {
	if p.mode != modeWaterfall {
		return
	}
	p.syncNames()
	p.scrollbar.OnWheel(interaction.PointerEvent{Kind: interaction.Wheel, DeltaX: delta * scrollStep})
}

// Mouse handles a mouse event at cell (x, y) of the pane.
func (p *spanPane) Mouse(msg tea.MouseMsg, x, y int) {
	pt := geom.Pt(float64(x)+0.5, float64(y)+0.5)
	if p.mode == modeChart {
		p.chartMouse(msg, pt)
		return
	}

	ev := interaction.PointerEvent{PageX: pt.X, PageY: pt.Y}
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		dir := 1
		if msg.Button == tea.MouseButtonWheelUp {
			dir = -1
		}
		if msg.Shift {
			p.ScrollNames(float64(dir))
			return
		}
		p.waterfall.ScrollRows(dir * wheelRows)
		p.sched.Draw()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		ev.Kind = interaction.PointerDown
		p.press(ev)
	case msg.Action == tea.MouseActionRelease:
		ev.Kind = interaction.PointerUp
		p.window.Emit(ev)
		// A divider drag may have ended.
		p.syncNames()
	case msg.Action == tea.MouseActionMotion:
		ev.Kind = interaction.PointerMove
		p.window.Emit(ev)
		p.hover(ev)
	}
}

func (p *spanPane) onDivider(x float64) bool {
	names, _ := p.waterfall.Columns()
	return math.Abs(x-names.Right()) <= 0.5
}

func (p *spanPane) press(ev interaction.PointerEvent) {
	pt := geom.Pt(ev.PageX, ev.PageY)
	if mm, ok := p.minimapRef(); ok && mm.Bounds.Contains(pt) {
		start, end := p.drag.ViewWindow()
		switch {
		case math.Abs(pt.X-start*mm.Bounds.Width) <= 1:
			p.drag.OnDragStart(interaction.HandleLeft, ev)
		case math.Abs(pt.X-end*mm.Bounds.Width) <= 1:
			p.drag.OnDragStart(interaction.HandleRight, ev)
		default:
			s, e := p.drag.ViewWindow()
			p.windows = append(p.windows, window{s, e})
			p.drag.OnSelectStart(ev)
		}
		return
	}
	if thumb, ok := p.thumbRef(); ok && p.scrollbar.State().Thumb.Visible() && thumb.Bounds.Contains(pt) {
		p.scrollbar.OnThumbDragStart(ev)
		return
	}
	if p.onDivider(pt.X) {
		p.divider.OnDragStart(ev)
		return
	}
	if n := p.waterfall.RowAt(pt.Y); n != nil {
		p.selectNode(n, false)
	}
}

func (p *spanPane) hover(ev interaction.PointerEvent) {
	pt := geom.Pt(ev.PageX, ev.PageY)
	if tl, ok := p.timelineRef(); ok && tl.Bounds.Contains(pt) {
		p.guide.OnMove(ev)
	} else {
		p.guide.Hide()
	}
	if p.onDivider(pt.X) && pt.Y >= p.opts.MinimapHeight {
		p.divider.OnHoverEnter()
	} else {
		p.divider.OnHoverLeave()
	}
}

func (p *spanPane) chartMouse(msg tea.MouseMsg, pt geom.Point) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		p.nav.zoomAtCursor(pt, zoomStep)
	case msg.Button == tea.MouseButtonWheelDown:
		p.nav.zoomAtCursor(pt, 1/zoomStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if s := p.chartRenderer.SpanAt(pt); s != nil {
			p.selectNode(s.Node, false)
		}
	case msg.Action == tea.MouseActionMotion:
		p.hoverTip = ""
		if s := p.chartRenderer.SpanAt(pt); s != nil {
			p.hoverTip = render.SpanTooltip(s.Node)
		}
	}
}

func (p *spanPane) Title() string {
	name := "transaction"
	if p.tree.Trace != nil && p.tree.Trace.Op != "" {
		name = p.tree.Trace.Op
	}
	if p.mode == modeChart {
		return name + " (span chart)"
	}
	return name + " (waterfall)"
}

func (p *spanPane) Status() string {
	var parts []string
	switch p.mode {
	case modeWaterfall:
		start, end := p.drag.ViewWindow()
		parts = append(parts,
			"window "+geom.ToPercent(start)+"-"+geom.ToPercent(end),
			render.FormatWeight("count", float64(len(p.waterfall.Rows())))+" rows",
		)
		if g := p.guide.State(); g.Visible {
			parts = append(parts, "at "+g.Label)
		}
	case modeChart:
		parts = append(parts, "visible "+geom.ToPercent(p.nav.visible()))
		if p.hoverTip != "" {
			parts = append(parts, strings.ReplaceAll(p.hoverTip, "\n", ", "))
		}
	}
	if n := p.tree.Hidden; n > 0 {
		parts = append(parts, render.FormatWeight("count", float64(n))+" hidden")
	}
	if n := p.tree.Duplicates; n > 0 {
		parts = append(parts, render.FormatWeight("count", float64(n))+" duplicate IDs")
	}
	return strings.Join(parts, " | ")
}

func (p *spanPane) Detail() string {
	n := p.selected
	if n == nil {
		return ""
	}
	d := render.SpanTooltip(n)
	if data := spanData(n.Span, p.chromaStyle); data != "" {
		d += "\n\n" + data
	}
	return d
}

func (p *spanPane) View() string {
	if p.mode == modeChart {
		return p.chart.surface.Render()
	}
	return p.surface.Render()
}
