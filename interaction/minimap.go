package interaction

import (
	"fmt"
	"math"

	"github.com/spanlens/spanlens/geom"
)

// MinimumWindowSize is the narrowest view window the minimap allows, as a fraction of the trace.
const MinimumWindowSize = 0.005

type Handle uint8

const (
	HandleNone Handle = iota
	HandleLeft
	HandleRight
)

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleLeft:
		return "left"
	case HandleRight:
		return "right"
	default:
		return fmt.Sprintf("Handle(%d)", uint8(h))
	}
}

// MinimapState is the state of the minimap's view window. All positions are fractions of the minimap's width.
//
// The handles move while dragging; the view window only changes once a drag ends. LeftHandle+MinimumWindowSize <=
// RightHandle holds in every state produced by ReduceMinimap.
type MinimapState struct {
	Dragging    bool
	Handle      Handle
	LeftHandle  float64
	RightHandle float64

	ViewWindowStart float64
	ViewWindowEnd   float64

	// Selecting is set while the user drags across the minimap to pick a new window.
	Selecting      bool
	SelectionStart float64
	SelectionEnd   float64
}

func InitialMinimapState() MinimapState {
	return MinimapState{
		RightHandle:   1,
		ViewWindowEnd: 1,
	}
}

// Selection returns the normalized range of an in-progress window selection.
func (s MinimapState) Selection() (start, end float64) {
	return min(s.SelectionStart, s.SelectionEnd), max(s.SelectionStart, s.SelectionEnd)
}

type MinimapAction interface {
	isMinimapAction()
}

type (
	// DragStart starts dragging a handle.
	DragStart struct{ Handle Handle }
	// DragMove moves the dragged handle to Position, a fraction of the minimap's width. Out of range positions are
	// allowed.
	DragMove struct{ Position float64 }
	// DragEnd commits the handles to the view window.
	DragEnd struct{}
	// SelectStart starts selecting a new window at Position.
	SelectStart struct{ Position float64 }
	SelectMove  struct{ Position float64 }
	// SelectEnd commits the selection, unless it's narrower than MinimumWindowSize, in which case it's discarded.
	SelectEnd struct{}
	// SetViewWindow replaces the view window and cancels any drag or selection.
	SetViewWindow struct{ Start, End float64 }
)

func (DragStart) isMinimapAction()     {}
func (DragMove) isMinimapAction()      {}
func (DragEnd) isMinimapAction()       {}
func (SelectStart) isMinimapAction()   {}
func (SelectMove) isMinimapAction()    {}
func (SelectEnd) isMinimapAction()     {}
func (SetViewWindow) isMinimapAction() {}

// ReduceMinimap returns the state that results from applying a to s. It's a pure function.
func ReduceMinimap(s MinimapState, a MinimapAction) MinimapState {
	switch a := a.(type) {
	case DragStart:
		if s.Selecting {
			return s
		}
		switch a.Handle {
		case HandleLeft, HandleRight:
		default:
			panic(fmt.Sprintf("unknown drag handle %s", a.Handle))
		}
		s.Dragging = true
		s.Handle = a.Handle
		return s

	case DragMove:
		if !s.Dragging {
			return s
		}
		p := geom.Clamp(a.Position, 0, 1)
		switch s.Handle {
		case HandleLeft:
			s.LeftHandle = leftOf(geom.Clamp(p, 0, s.RightHandle-MinimumWindowSize), s.RightHandle)
		case HandleRight:
			s.RightHandle = geom.Clamp(p, s.LeftHandle+MinimumWindowSize, 1)
		default:
			panic(fmt.Sprintf("unknown drag handle %s", s.Handle))
		}
		return s

	case DragEnd:
		if !s.Dragging {
			return s
		}
		s.Dragging = false
		s.Handle = HandleNone
		s.ViewWindowStart = s.LeftHandle
		s.ViewWindowEnd = s.RightHandle
		return s

	case SelectStart:
		if s.Dragging {
			return s
		}
		p := geom.Clamp(a.Position, 0, 1)
		s.Selecting = true
		s.SelectionStart = p
		s.SelectionEnd = p
		return s

	case SelectMove:
		if !s.Selecting {
			return s
		}
		s.SelectionEnd = geom.Clamp(a.Position, 0, 1)
		return s

	case SelectEnd:
		if !s.Selecting {
			return s
		}
		start, end := s.Selection()
		s.Selecting = false
		s.SelectionStart, s.SelectionEnd = 0, 0
		if end-start < MinimumWindowSize {
			return s
		}
		return ReduceMinimap(s, SetViewWindow{Start: start, End: end})

	case SetViewWindow:
		start := geom.Clamp(a.Start, 0, 1)
		end := geom.Clamp(a.End, 0, 1)
		if start > end {
			start, end = end, start
		}
		if end-start < MinimumWindowSize {
			end = min(start+MinimumWindowSize, 1)
			start = end - MinimumWindowSize
		}
		start = leftOf(start, end)
		s.Dragging = false
		s.Handle = HandleNone
		s.Selecting = false
		s.LeftHandle, s.RightHandle = start, end
		s.ViewWindowStart, s.ViewWindowEnd = start, end
		return s

	default:
		panic(fmt.Sprintf("unhandled minimap action %T", a))
	}
}

// leftOf nudges left down until left+MinimumWindowSize <= right holds in floating point.
func leftOf(left, right float64) float64 {
	for left > 0 && left+MinimumWindowSize > right {
		left = math.Nextafter(left, math.Inf(-1))
	}
	return max(left, 0)
}

// DragManager drives the minimap's view window from pointer events.
type DragManager struct {
	window   *Window
	suppress *Suppressor
	content  ContentRef

	state     MinimapState
	token     *Token
	listeners listeners
	observers observers[MinimapState]
}

// NewDragManager returns a manager for the minimap whose layout content reports.
func NewDragManager(w *Window, s *Suppressor, content ContentRef) *DragManager {
	return &DragManager{
		window:   w,
		suppress: s,
		content:  content,
		state:    InitialMinimapState(),
	}
}

func (m *DragManager) State() MinimapState { return m.state }

// ViewWindow returns the committed view window.
func (m *DragManager) ViewWindow() (start, end float64) {
	return m.state.ViewWindowStart, m.state.ViewWindowEnd
}

// Subscribe calls fn with the new state after every change.
func (m *DragManager) Subscribe(fn func(MinimapState)) (unsubscribe func()) {
	return m.observers.subscribe(fn)
}

// Listening reports whether the manager has listeners installed on the window.
func (m *DragManager) Listening() bool { return len(m.listeners) > 0 }

func (m *DragManager) apply(a MinimapAction) {
	next := ReduceMinimap(m.state, a)
	if next == m.state {
		return
	}
	m.state = next
	m.observers.notify(next)
}

func (m *DragManager) position(ev PointerEvent) (float64, bool) {
	r, ok := m.content.rect(m.window)
	if !ok {
		return 0, false
	}
	return r.FractionX(ev.PageX), true
}

// OnDragStart handles a pointer down on one of the handles.
func (m *DragManager) OnDragStart(h Handle, ev PointerEvent) {
	if _, ok := m.position(ev); !ok || m.state.Dragging || m.state.Selecting {
		return
	}
	m.apply(DragStart{Handle: h})
	m.begin(func(ev PointerEvent) {
		if p, ok := m.position(ev); ok {
			m.apply(DragMove{Position: p})
		}
	}, DragEnd{})
}

// OnSelectStart handles a pointer down on the minimap outside of the handles.
func (m *DragManager) OnSelectStart(ev PointerEvent) {
	p, ok := m.position(ev)
	if !ok || m.state.Dragging || m.state.Selecting {
		return
	}
	m.apply(SelectStart{Position: p})
	m.begin(func(ev PointerEvent) {
		if p, ok := m.position(ev); ok {
			m.apply(SelectMove{Position: p})
		}
	}, SelectEnd{})
}

func (m *DragManager) begin(move func(PointerEvent), end MinimapAction) {
	m.token = m.suppress.Acquire()
	m.listeners = append(m.listeners,
		m.window.AddListener(PointerMove, move),
		m.window.AddListener(PointerUp, func(PointerEvent) {
			m.teardown()
			m.apply(end)
		}),
	)
}

func (m *DragManager) teardown() {
	m.listeners.removeAll()
	m.token.Release()
	m.token = nil
}

// SetViewWindow replaces the view window, e.g. when zooming to a span. It cancels an in-progress drag.
func (m *DragManager) SetViewWindow(start, end float64) {
	m.teardown()
	m.apply(SetViewWindow{Start: start, End: end})
}

// Close cancels any drag without committing it. It must be called when the minimap goes away.
func (m *DragManager) Close() {
	m.teardown()
	if m.state.Dragging || m.state.Selecting {
		m.state.Dragging = false
		m.state.Handle = HandleNone
		m.state.Selecting = false
		m.state.LeftHandle = m.state.ViewWindowStart
		m.state.RightHandle = m.state.ViewWindowEnd
	}
	m.observers.clear()
}
