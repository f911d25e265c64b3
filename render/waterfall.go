package render

import (
	"image/color"
	"math"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/interaction"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/units"
)

type WaterfallOptions struct {
	// RowHeight is the height of one span row, in physical pixels.
	RowHeight float64
	// MinimapHeight is the height of the overview at the top. Zero hides the minimap.
	MinimapHeight float64
	// Indent is how far each level of the tree is indented in the name column.
	Indent  float64
	Padding float64
}

func DefaultWaterfallOptions() WaterfallOptions {
	return WaterfallOptions{RowHeight: 20, MinimapHeight: 60, Indent: 12, Padding: 4}
}

// WaterfallState is everything the interaction managers contribute to a waterfall.
type WaterfallState struct {
	Minimap interaction.MinimapState
	Divider interaction.DividerState
	Scroll  interaction.ScrollbarState
	Guide   interaction.GuideState
	// FirstRow is the index of the topmost visible row.
	FirstRow int
	Selected string
}

// WaterfallRenderer draws a span tree as rows: the name column on the left, and on the right each span's bar placed
// within the minimap's view window.
type WaterfallRenderer struct {
	surface Surface
	labels  *labelCache
	tree    *spantree.Tree
	theme   mycolor.Theme
	opts    WaterfallOptions

	state     WaterfallState
	collapsed map[string]bool
	rows      []*spantree.Node

	stats  Stats
	detach []func()
}

func NewWaterfallRenderer(s Surface, t *spantree.Tree, th mycolor.Theme, opts WaterfallOptions) *WaterfallRenderer {
	r := &WaterfallRenderer{
		surface:   s,
		labels:    newLabelCache(s),
		tree:      t,
		theme:     th,
		opts:      opts,
		collapsed: map[string]bool{},
		state: WaterfallState{
			Minimap: interaction.InitialMinimapState(),
			Divider: interaction.DividerState{
				Position:     interaction.DefaultDividerPosition,
				DragPosition: interaction.DefaultDividerPosition,
			},
		},
	}
	r.layoutRows()
	return r
}

// Managers are the interaction managers a waterfall follows. Any of them may be nil.
type Managers struct {
	Drag      *interaction.DragManager
	Divider   *interaction.DividerManager
	Scrollbar *interaction.ScrollbarManager
	Guide     *interaction.CursorGuide
}

// Attach draws the waterfall on every frame of sched, redrawing whenever one of the managers changes state.
func (r *WaterfallRenderer) Attach(sched *scheduler.CanvasScheduler, m Managers) (detach func()) {
	r.detach = append(r.detach,
		sched.RegisterBeforeFrameCallback(r.DrawBase),
		sched.RegisterAfterFrameCallback(r.DrawOverlay),
		sched.On(scheduler.KindHighlightSpan, func(ev scheduler.Event, _ scheduler.Source) {
			ids := ev.(scheduler.HighlightSpan).SpanIDs
			r.state.Selected = ""
			if len(ids) > 0 {
				r.state.Selected = ids[0]
			}
			sched.Draw()
		}),
	)
	if m.Drag != nil {
		r.state.Minimap = m.Drag.State()
		r.detach = append(r.detach, m.Drag.Subscribe(func(s interaction.MinimapState) {
			r.state.Minimap = s
			sched.Draw()
		}))
	}
	if m.Divider != nil {
		r.state.Divider = m.Divider.State()
		r.detach = append(r.detach, m.Divider.Subscribe(func(s interaction.DividerState) {
			r.state.Divider = s
			sched.Draw()
		}))
	}
	if m.Scrollbar != nil {
		r.state.Scroll = m.Scrollbar.State()
		r.detach = append(r.detach, m.Scrollbar.Subscribe(func(s interaction.ScrollbarState) {
			r.state.Scroll = s
			sched.Draw()
		}))
	}
	if m.Guide != nil {
		r.state.Guide = m.Guide.State()
		r.detach = append(r.detach, m.Guide.Subscribe(func(s interaction.GuideState) {
			r.state.Guide = s
			sched.Draw()
		}))
	}
	return r.Detach
}

func (r *WaterfallRenderer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

func (r *WaterfallRenderer) State() WaterfallState     { return r.state }
func (r *WaterfallRenderer) SetState(s WaterfallState) { r.state = s }
func (r *WaterfallRenderer) Stats() Stats              { return r.stats }
func (r *WaterfallRenderer) Rows() []*spantree.Node    { return r.rows }

// ScrollRows moves the first visible row by delta rows, stopping at either end.
func (r *WaterfallRenderer) ScrollRows(delta int) {
	r.state.FirstRow = geom.Clamp(r.state.FirstRow+delta, 0, max(len(r.rows)-1, 0))
}

// Toggle collapses or expands the children of the span with the given ID.
func (r *WaterfallRenderer) Toggle(spanID string) {
	if r.collapsed[spanID] {
		delete(r.collapsed, spanID)
	} else {
		r.collapsed[spanID] = true
	}
	r.layoutRows()
}

func (r *WaterfallRenderer) Collapsed(spanID string) bool { return r.collapsed[spanID] }

func (r *WaterfallRenderer) layoutRows() {
	r.rows = r.rows[:0]
	if r.tree == nil || r.tree.Root == nil {
		return
	}
	var do func(n *spantree.Node)
	do = func(n *spantree.Node) {
		r.rows = append(r.rows, n)
		if r.collapsed[n.Span.SpanID] {
			return
		}
		for _, c := range n.Children {
			do(c)
		}
	}
	do(r.tree.Root)
	r.state.FirstRow = geom.Clamp(r.state.FirstRow, 0, max(len(r.rows)-1, 0))
}

// dividerX returns the x coordinate of the divider. Both columns keep at least one pixel.
func (r *WaterfallRenderer) dividerX(width float64) float64 {
	pos := r.state.Divider.Position
	if r.state.Divider.Dragging {
		pos = r.state.Divider.DragPosition
	}
	return dividerXAt(pos, width)
}

// Columns returns the name column and the timeline column in physical pixels, below the minimap.
func (r *WaterfallRenderer) Columns() (names, timeline geom.Rect) {
	size := r.surface.Size()
	top := r.opts.MinimapHeight
	x := r.dividerX(size.X)
	h := max(size.Y-top, 0)
	return geom.NewRect(0, top, x, h), geom.NewRect(x, top, max(size.X-x, 0), h)
}

// RowAt returns the span in the row at physical y, or nil.
func (r *WaterfallRenderer) RowAt(y float64) *spantree.Node {
	if r.opts.RowHeight <= 0 || y < r.opts.MinimapHeight {
		return nil
	}
	i := r.state.FirstRow + int((y-r.opts.MinimapHeight)/r.opts.RowHeight)
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

func (r *WaterfallRenderer) traceRange() (start, end float64) {
	return r.tree.Trace.TraceStartTimestamp, r.tree.Trace.TraceEndTimestamp
}

func (r *WaterfallRenderer) spanColor(n *spantree.Node) color.NRGBA {
	if n.IsGap {
		return r.theme.Gap
	}
	return mycolor.ForOp(n.Span.Op)
}

// barRect places b within the timeline column. It returns false for spans that can't be placed.
func barRect(bar spantree.Bar, b spantree.Bounds, col geom.Rect, y, h float64) (geom.Rect, bool) {
	if !bar.Placed() {
		return geom.Rect{}, false
	}
	x := col.X + b.Start*col.Width
	w := max(b.Width()*col.Width, 1)
	return geom.NewRect(x, y, w, h), true
}

func (r *WaterfallRenderer) DrawBase() {
	r.surface.Clear(r.theme.Background)
	r.stats = Stats{}
	if r.tree == nil || r.tree.Root == nil {
		centerText(r.surface, "No trace", r.theme.Muted)
		return
	}
	r.drawMinimap()

	names, timeline := r.Columns()
	traceStart, traceEnd := r.traceRange()
	mm := r.state.Minimap
	gen := spantree.BoundsGenerator(traceStart, traceEnd, mm.ViewWindowStart, mm.ViewWindowEnd)
	rh := r.opts.RowHeight
	lh := r.surface.LineHeight()
	// Rows too short to spare a pixel above and below the bar, like terminal cells, are filled entirely.
	inset := 1.0
	if rh < 3 {
		inset = 0
	}

	for i := r.state.FirstRow; i < len(r.rows); i++ {
		y := names.Y + float64(i-r.state.FirstRow)*rh
		if y >= names.Bottom() {
			break
		}
		n := r.rows[i]
		if n.Span.SpanID != "" && n.Span.SpanID == r.state.Selected {
			r.surface.FillRect(geom.NewRect(0, y, names.Width+timeline.Width, rh), r.theme.Selection)
		}

		b := gen(n.Span.StartTimestamp, n.Span.Timestamp)
		bar := spantree.BarGeometry(b)
		if br, ok := barRect(bar, b, timeline, y+inset, rh-2*inset); ok && b.Visible {
			r.surface.FillRect(br.Intersect(timeline), r.spanColor(n))
			r.stats.Drawn++
			label := units.Duration(n.Span.Duration())
			if bar.Warning != "" {
				label = bar.Warning
			}
			if lx := br.Right() + r.opts.Padding; lx+r.surface.MeasureText(label) <= timeline.Right() {
				c := r.theme.Muted
				if bar.Warning != "" {
					c = r.theme.Warning
				}
				r.surface.Text(geom.Pt(lx, y+(rh-lh)/2), label, c)
			}
		} else {
			r.stats.Culled++
			if bar.Warning != "" && !bar.Placed() {
				r.surface.Text(geom.Pt(timeline.X+r.opts.Padding, y+(rh-lh)/2), bar.Warning, r.theme.Warning)
			}
		}

		r.drawName(n, names, y)
	}
}

func (r *WaterfallRenderer) drawName(n *spantree.Node, col geom.Rect, y float64) {
	x := col.X + r.opts.Padding + float64(n.Depth)*r.opts.Indent - r.state.Scroll.ScrollLeft
	label := spanLabel(n.Span)
	c := r.theme.Foreground
	switch {
	case n.IsGap:
		label = "Missing instrumentation"
		c = r.theme.Muted
	case n.IsRoot && label == "":
		label = r.tree.Trace.Op
	}
	if len(n.Children) > 0 {
		if r.collapsed[n.Span.SpanID] {
			label = "▸ " + label
		} else {
			label = "▾ " + label
		}
	}
	if x < col.X {
		// Scrolled past the start of the label.
		return
	}
	txt := r.labels.fit(label, col.Right()-x-r.opts.Padding)
	if txt == "" {
		return
	}
	r.surface.Text(geom.Pt(x, y+(r.opts.RowHeight-r.surface.LineHeight())/2), txt, c)
	r.stats.Labels++
}

// drawMinimap draws every span across the whole trace, dims everything outside the view window and marks the
// handles.
func (r *WaterfallRenderer) drawMinimap() {
	h := r.opts.MinimapHeight
	if h <= 0 {
		return
	}
	size := r.surface.Size()
	area := geom.NewRect(0, 0, size.X, h)
	traceStart, traceEnd := r.traceRange()
	gen := spantree.BoundsGenerator(traceStart, traceEnd, 0, 1)
	rowH := geom.SafeDiv(h, float64(r.tree.MaxDepth+1))
	for _, n := range r.tree.Nodes {
		b := gen(n.Span.StartTimestamp, n.Span.Timestamp)
		br, ok := barRect(spantree.BarGeometry(b), b, area, float64(n.Depth)*rowH, max(rowH, 1))
		if !ok {
			continue
		}
		r.surface.FillRect(br.Intersect(area), r.spanColor(n))
	}

	mm := r.state.Minimap
	dim := mycolor.WithAlpha(r.theme.Background, 0xA0)
	left, right := mm.ViewWindowStart, mm.ViewWindowEnd
	if mm.Dragging {
		left, right = mm.LeftHandle, mm.RightHandle
	}
	r.surface.FillRect(geom.NewRect(0, 0, left*size.X, h), dim)
	r.surface.FillRect(geom.NewRect(right*size.X, 0, (1-right)*size.X, h), dim)
	if mm.Selecting {
		s, e := mm.Selection()
		r.surface.FillRect(geom.NewRect(s*size.X, 0, (e-s)*size.X, h), r.theme.Selection)
	}
	for _, x := range []float64{left, right} {
		r.surface.FillRect(geom.NewRect(x*size.X-1, 0, 2, h), r.theme.Foreground)
	}
	r.surface.FillRect(geom.NewRect(0, h-1, size.X, 1), r.theme.Grid)
}

// DrawOverlay draws the divider, its ghost while dragging and the cursor guide.
func (r *WaterfallRenderer) DrawOverlay() {
	if r.tree == nil || r.tree.Root == nil {
		return
	}
	names, timeline := r.Columns()
	div := r.state.Divider
	c := r.theme.Grid
	if div.Hovering || div.Dragging {
		c = r.theme.Hover
	}
	r.surface.FillRect(geom.NewRect(names.Right(), names.Y, 1, names.Height), c)
	if div.Dragging {
		size := r.surface.Size()
		gx := dividerXAt(div.Position, size.X)
		r.surface.FillRect(geom.NewRect(gx, names.Y, 1, names.Height), mycolor.WithAlpha(r.theme.Muted, 0x80))
	}

	if g := r.state.Guide; g.Visible {
		x := timeline.X + g.Fraction*timeline.Width
		r.surface.FillRect(geom.NewRect(x, timeline.Y, 1, timeline.Height), r.theme.Foreground)
		lx := min(x+r.opts.Padding, max(timeline.Right()-r.surface.MeasureText(g.Label), timeline.X))
		r.surface.Text(geom.Pt(lx, timeline.Y), g.Label, r.theme.Foreground)
	}

	if t := r.state.Scroll.Thumb; t.Visible() {
		track := geom.NewRect(names.X, names.Bottom()-2, names.Width, 2)
		r.surface.FillRect(geom.NewRect(track.X+t.Left*track.Width, track.Y, t.Width*track.Width, track.Height), r.theme.Muted)
	}
}

func dividerXAt(pos, width float64) float64 {
	return geom.Clamp(math.Round(pos*width), 1, max(width-1, 1))
}
