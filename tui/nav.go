package tui

import (
	"time"

	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/view"
)

// navigator zooms and pans the view of one lane. Changes go through the scheduler so that synchronized lanes
// follow.
type navigator struct {
	sched *scheduler.CanvasScheduler
	lane  *lane
	anim  view.Animation
	// duration is the length of zoom animations. Zero jumps immediately.
	duration time.Duration
}

func (n *navigator) set(r geom.Rect) {
	n.sched.Dispatch(scheduler.SetConfigView{Rect: r}, n.lane.view)
}

func (n *navigator) animateTo(now time.Time, target geom.Rect) {
	if n.duration <= 0 {
		n.set(target)
		return
	}
	from := n.lane.view.ConfigView()
	n.anim.Begin(now, from, target, n.duration, view.EaseFor(from, target))
}

func (n *navigator) tick(now time.Time) {
	if n.anim.Done() {
		return
	}
	r, _ := n.anim.Value(now)
	n.set(r)
}

// zoom scales the config view by factor around x, in config space.
func (n *navigator) zoom(now time.Time, x, factor float64) {
	v := n.lane.view
	cv := v.ConfigView()
	v.Remember()
	n.animateTo(now, view.ZoomAt(geom.Pt(x, 0), factor).TransformRect(cv))
}

// zoomAtCursor scales the config view by factor around the logical point p, without animating.
func (n *navigator) zoomAtCursor(p geom.Point, factor float64) {
	n.anim.Cancel()
	v := n.lane.view
	n.sched.Dispatch(scheduler.TransformConfigView{Transform: v.ZoomAtCursor(p, factor)}, v)
}

// pan moves the config view by dx visible widths.
func (n *navigator) pan(dx float64) {
	n.anim.Cancel()
	size := n.lane.canvas.PhysicalSpace()
	v := n.lane.view
	n.sched.Dispatch(scheduler.TransformConfigView{Transform: v.PanBy(geom.Pt(dx*size.Width, 0))}, v)
}

func (n *navigator) reset() {
	n.anim.Cancel()
	n.lane.view.Remember()
	n.sched.Dispatch(scheduler.ResetZoom{}, n.lane.view)
}

func (n *navigator) undo(now time.Time) {
	v := n.lane.view
	from := v.ConfigView()
	to, ok := v.Undo()
	if !ok {
		return
	}
	v.SetConfigView(from)
	n.animateTo(now, to)
}

// reveal scrolls the least amount needed to show r.
func (n *navigator) reveal(r geom.Rect) {
	v := n.lane.view
	if target := v.ZoomToRect(r, view.ZoomMin); !target.Equal(v.ConfigView()) {
		n.anim.Cancel()
		n.set(target)
	}
}

// visible returns the visible fraction of the config space.
func (n *navigator) visible() float64 {
	return geom.SafeDiv(n.lane.view.ConfigView().Width, n.lane.view.ConfigSpace().Width)
}
