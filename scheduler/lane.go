package scheduler

import (
	"fmt"

	"github.com/spanlens/spanlens/view"

	"golang.org/x/exp/slices"
)

type Sync uint8

const (
	// SyncX follows the x range of other lanes and keeps the lane's own vertical position.
	SyncX Sync = iota
	// SyncXY follows both axes.
	SyncXY
)

// Lane is one view taking part in a Lanes group.
type Lane struct {
	View *view.View
	Sync Sync
}

// Lanes keeps the config views of several views in lockstep. All views must share the same x units.
//
// An event is applied in full to the view that dispatched it, or to the first lane if the source isn't one of the
// group's views. Every other lane then copies the resulting x range, using the source's width as its minimum width
// so that a lane with a coarser minimum can't break the lockstep. Lanes never dispatch events themselves, so
// mirroring can't feed back into the bus.
type Lanes struct {
	sched *CanvasScheduler
	lanes []*Lane
	unsub []func()
}

var viewEvents = []EventKind{
	KindSetConfigView,
	KindTransformConfigView,
	KindResetZoom,
	KindZoomAtFrame,
	KindZoomAtSpan,
}

func NewLanes(s *CanvasScheduler) *Lanes {
	g := &Lanes{sched: s}
	for _, kind := range viewEvents {
		g.unsub = append(g.unsub, s.On(kind, g.handle))
	}
	return g
}

func (g *Lanes) Add(v *view.View, sync Sync) *Lane {
	l := &Lane{View: v, Sync: sync}
	g.lanes = append(g.lanes, l)
	return l
}

func (g *Lanes) Remove(l *Lane) {
	g.lanes = slices.DeleteFunc(g.lanes, func(o *Lane) bool { return o == l })
}

func (g *Lanes) Len() int { return len(g.lanes) }

// Close unsubscribes the group from its scheduler.
func (g *Lanes) Close() {
	for _, fn := range g.unsub {
		fn()
	}
	g.unsub = nil
}

func (g *Lanes) laneFor(src Source) *Lane {
	v, ok := src.(*view.View)
	if !ok {
		return nil
	}
	for _, l := range g.lanes {
		if l.View == v {
			return l
		}
	}
	return nil
}

func (g *Lanes) handle(ev Event, src Source) {
	if len(g.lanes) == 0 {
		return
	}
	source := g.laneFor(src)
	if source == nil {
		source = g.lanes[0]
	}
	v := source.View

	switch ev := ev.(type) {
	case SetConfigView:
		v.SetConfigView(ev.Rect)
	case TransformConfigView:
		v.TransformConfigView(ev.Transform)
	case ResetZoom:
		for _, l := range g.lanes {
			l.View.ResetConfigView()
		}
		g.sched.Draw()
		return
	case ZoomAtFrame:
		v.Remember()
		v.SetConfigView(v.ZoomToRect(ev.Bounds, ev.Strategy))
	case ZoomAtSpan:
		v.Remember()
		v.SetConfigView(v.ZoomToRect(ev.Bounds, ev.Strategy))
	default:
		panic(fmt.Sprintf("unhandled event %T", ev))
	}

	g.mirror(source)
	g.sched.Draw()
}

func (g *Lanes) mirror(source *Lane) {
	r := source.View.ConfigView()
	for _, l := range g.lanes {
		if l == source {
			continue
		}
		cons := view.MinWidth(min(l.View.MinWidth(), r.Width))
		switch l.Sync {
		case SyncX:
			cur := l.View.ConfigView()
			l.View.SetConfigView(r.WithY(cur.Y).WithHeight(cur.Height), cons)
		case SyncXY:
			l.View.SetConfigView(r, cons)
		default:
			panic(fmt.Sprintf("unhandled sync mode %d", l.Sync))
		}
	}
}
