package interaction

import (
	"time"

	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/units"
)

type GuideState struct {
	Visible bool
	// Fraction is the pointer's position within the reference element.
	Fraction float64
	// Left is Fraction as a CSS percentage.
	Left string
	// At is the trace time under the pointer, relative to the trace start.
	At    time.Duration
	Label string
}

// CursorGuide follows the pointer across the timeline and reports the trace time under it.
type CursorGuide struct {
	window   *Window
	content  ContentRef
	duration time.Duration
	drag     *DragManager

	state     GuideState
	observers observers[GuideState]
}

// NewCursorGuide returns a guide over the element reported by content, for a trace of the given duration. If drag is
// not nil, positions are interpreted within its view window.
func NewCursorGuide(w *Window, content ContentRef, traceDuration time.Duration, drag *DragManager) *CursorGuide {
	return &CursorGuide{
		window:   w,
		content:  content,
		duration: traceDuration,
		drag:     drag,
	}
}

func (g *CursorGuide) State() GuideState { return g.state }

func (g *CursorGuide) Subscribe(fn func(GuideState)) (unsubscribe func()) {
	return g.observers.subscribe(fn)
}

func (g *CursorGuide) set(s GuideState) {
	if s == g.state {
		return
	}
	g.state = s
	g.observers.notify(s)
}

// OnMove handles a pointer move over the reference element.
func (g *CursorGuide) OnMove(ev PointerEvent) {
	r, ok := g.content.rect(g.window)
	if !ok {
		return
	}
	if g.duration <= 0 || r.Width <= 0 {
		// There's no time axis to point at.
		g.Hide()
		return
	}
	f := geom.Clamp(r.FractionX(ev.PageX), 0, 1)
	start, end := 0.0, 1.0
	if g.drag != nil {
		start, end = g.drag.ViewWindow()
	}
	at := time.Duration((start + f*(end-start)) * float64(g.duration))
	g.set(GuideState{
		Visible:  true,
		Fraction: f,
		Left:     geom.ToPercent(f),
		At:       at,
		Label:    units.Duration(at),
	})
}

// Hide hides the guide, e.g. when the pointer leaves the reference element.
func (g *CursorGuide) Hide() {
	g.set(GuideState{})
}
