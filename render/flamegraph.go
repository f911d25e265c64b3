package render

import (
	"math"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/view"
)

type FlamegraphOptions struct {
	// MinWidth is the narrowest frame that gets drawn, in physical pixels. The children of narrower frames are
	// narrower still and aren't visited at all.
	MinWidth float64
	// Padding is the space between the left edge of a frame and its label.
	Padding float64
	// Gap is the space left between neighboring frames.
	Gap float64
}

func DefaultFlamegraphOptions() FlamegraphOptions {
	return FlamegraphOptions{MinWidth: 0.5, Padding: 4, Gap: 1}
}

// FlamegraphRenderer draws a flamegraph through a view.
type FlamegraphRenderer struct {
	surface Surface
	view    *view.View
	fg      *flamegraph.Flamegraph
	theme   mycolor.Theme
	opts    FlamegraphOptions

	placed []placed[*flamegraph.Node]
	labels *labelCache
	stats  Stats

	hover, selected       flamegraph.FrameKey
	hasHover, hasSelected bool
	query                 string
	matches               map[*flamegraph.Node]bool

	detach []func()
}

func NewFlamegraphRenderer(s Surface, v *view.View, fg *flamegraph.Flamegraph, th mycolor.Theme, opts FlamegraphOptions) *FlamegraphRenderer {
	return &FlamegraphRenderer{
		surface: s,
		labels:  newLabelCache(s),
		view:    v,
		fg:      fg,
		theme:   th,
		opts:    opts,
	}
}

// Attach draws the renderer on every frame of sched and lets it react to highlight, search and sort events. The
// returned function undoes all of it.
func (r *FlamegraphRenderer) Attach(sched *scheduler.CanvasScheduler) (detach func()) {
	r.detach = append(r.detach,
		sched.RegisterBeforeFrameCallback(r.DrawBase),
		sched.RegisterAfterFrameCallback(r.DrawLabels),
		sched.RegisterAfterFrameCallback(r.DrawHighlight),
		sched.On(scheduler.KindHighlightFrame, func(ev scheduler.Event, _ scheduler.Source) {
			r.Highlight(ev.(scheduler.HighlightFrame))
			sched.Draw()
		}),
		sched.On(scheduler.KindSearch, func(ev scheduler.Event, _ scheduler.Source) {
			r.SetSearch(ev.(scheduler.Search).Query)
			sched.Draw()
		}),
		sched.On(scheduler.KindSetSort, func(ev scheduler.Event, _ scheduler.Source) {
			s, err := flamegraph.ParseSort(ev.(scheduler.SetSort).Sort)
			if err != nil {
				return
			}
			r.fg.Resort(s)
			if r.query != "" {
				r.SetSearch(r.query)
			}
			sched.Draw()
		}),
	)
	return r.Detach
}

func (r *FlamegraphRenderer) Detach() {
	for _, fn := range r.detach {
		fn()
	}
	r.detach = nil
}

func (r *FlamegraphRenderer) Flamegraph() *flamegraph.Flamegraph { return r.fg }
func (r *FlamegraphRenderer) Stats() Stats                       { return r.stats }

// Highlight sets the hovered or selected function. An empty name clears it.
func (r *FlamegraphRenderer) Highlight(ev scheduler.HighlightFrame) {
	key := flamegraph.FrameKey{Name: ev.Name, Package: ev.Package}
	on := ev.Name != ""
	switch ev.Mode {
	case scheduler.HighlightHover:
		r.hover, r.hasHover = key, on
	case scheduler.HighlightSelected:
		r.selected, r.hasSelected = key, on
	}
}

// SetSearch dims all frames that don't match query. An empty query shows all frames normally.
func (r *FlamegraphRenderer) SetSearch(query string) {
	r.query = query
	r.matches = nil
	if query == "" {
		return
	}
	r.matches = map[*flamegraph.Node]bool{}
	for _, n := range r.fg.Search(query) {
		r.matches[n] = true
	}
}

// Matches returns the number of frames matching the current search.
func (r *FlamegraphRenderer) Matches() int { return len(r.matches) }

// NodeAt returns the frame under the logical point p.
func (r *FlamegraphRenderer) NodeAt(p geom.Point) *flamegraph.Node {
	if r.fg.Empty {
		return nil
	}
	return r.fg.HitTest(r.view.ConfigViewCursor(p))
}

// Visible returns the frames drawn by the last frame.
func (r *FlamegraphRenderer) Visible() []*flamegraph.Node {
	out := make([]*flamegraph.Node, len(r.placed))
	for i, p := range r.placed {
		out[i] = p.item
	}
	return out
}

func (r *FlamegraphRenderer) DrawBase() {
	r.surface.Clear(r.theme.Background)
	r.placed = r.placed[:0]
	r.stats = Stats{}
	if r.fg.Empty {
		return
	}

	size := r.surface.Size()
	area := bounds(r.surface)
	m := r.view.FromConfigView()
	// Rows below maxDepth aren't visible, and neither are their children.
	maxDepth := int(math.Ceil(r.view.ConfigView().Bottom()))

	var do func(nodes []*flamegraph.Node)
	do = func(nodes []*flamegraph.Node) {
		for _, n := range nodes {
			pr := m.TransformRect(n.Rect())
			// Children are contained in their parent's extent, so frames outside the surface or too narrow to see
			// prune their entire subtree.
			if !visibleX(pr, size) || pr.Width < r.opts.MinWidth {
				r.stats.Culled++
				continue
			}
			if visibleY(pr, size) {
				c := mycolor.ForFrame(n.Frame.Name, n.Frame.Package, n.Frame.InApp)
				dr := inset(pr.Intersect(area), r.opts.Gap)
				r.surface.FillRect(dr, c)
				r.placed = append(r.placed, placed[*flamegraph.Node]{item: n, rect: dr, color: c})
				r.stats.Drawn++
			}
			if n.Depth < maxDepth {
				do(n.Children)
			}
		}
	}
	do(r.fg.Roots)
}

func (r *FlamegraphRenderer) DrawLabels() {
	if r.fg.Empty {
		centerText(r.surface, "No samples", r.theme.Muted)
		return
	}
	r.stats.Labels = drawLabels(r.labels, r.placed, r.opts.Padding, func(n *flamegraph.Node) string {
		return n.Frame.Name
	})
}

func (r *FlamegraphRenderer) DrawHighlight() {
	if r.matches != nil {
		dim := mycolor.WithAlpha(r.theme.Background, 0xB0)
		for _, p := range r.placed {
			if r.matches[p.item] {
				r.surface.StrokeRect(p.rect, 1, r.theme.Warning)
			} else {
				r.surface.FillRect(p.rect, dim)
			}
		}
	}
	for _, p := range r.placed {
		key := p.item.Frame.Key()
		switch {
		case r.hasSelected && key == r.selected:
			r.surface.StrokeRect(p.rect, 2, mycolor.WithAlpha(r.theme.Selection, 0xFF))
		case r.hasHover && key == r.hover:
			r.surface.StrokeRect(p.rect, 1, r.theme.Hover)
		}
	}
}
