package interaction

import "github.com/spanlens/spanlens/geom"

// DefaultDividerPosition is where the divider between the name column and the timeline starts out.
const DefaultDividerPosition = 0.4

// Line is a handle on one drawn divider line. The manager writes to it directly; renderers read it when they draw.
type Line struct {
	// Left is the line's position as a CSS percentage.
	Left     string
	Hovering bool
	Dragging bool
	Visible  bool
}

type DividerState struct {
	// Position is the committed divider position in [0,1].
	Position float64
	// DragPosition follows the pointer during a drag.
	DragPosition float64
	Dragging     bool
	Hovering     bool
}

// DividerManager owns the ratio that splits the span waterfall into the name column and the timeline.
//
// Regular lines follow the pointer while dragging. Ghost lines stay at the position the drag started at and are
// only visible during a drag.
type DividerManager struct {
	window   *Window
	suppress *Suppressor
	content  ContentRef

	state     DividerState
	lines     []*Line
	ghosts    []*Line
	token     *Token
	listeners listeners
	observers observers[DividerState]
}

// NewDividerManager returns a manager for the element whose layout content reports, which is the whole width the
// divider can move across.
func NewDividerManager(w *Window, s *Suppressor, content ContentRef) *DividerManager {
	return &DividerManager{
		window:   w,
		suppress: s,
		content:  content,
		state: DividerState{
			Position:     DefaultDividerPosition,
			DragPosition: DefaultDividerPosition,
		},
	}
}

func (m *DividerManager) State() DividerState { return m.state }
func (m *DividerManager) Position() float64   { return m.state.Position }

func (m *DividerManager) Subscribe(fn func(DividerState)) (unsubscribe func()) {
	return m.observers.subscribe(fn)
}

func addLine(ls *[]*Line, l *Line) func() {
	*ls = append(*ls, l)
	return func() {
		for i, o := range *ls {
			if o == l {
				*ls = append((*ls)[:i:i], (*ls)[i+1:]...)
				return
			}
		}
	}
}

// AddDividerLine registers a line that tracks the divider.
func (m *DividerManager) AddDividerLine() (l *Line, remove func()) {
	l = &Line{}
	remove = addLine(&m.lines, l)
	m.sync()
	return l, remove
}

// AddGhostLine registers a line that marks the divider's position at the start of a drag.
func (m *DividerManager) AddGhostLine() (l *Line, remove func()) {
	l = &Line{}
	remove = addLine(&m.ghosts, l)
	m.sync()
	return l, remove
}

// sync writes the state to every line.
func (m *DividerManager) sync() {
	pos := m.state.Position
	if m.state.Dragging {
		pos = m.state.DragPosition
	}
	for _, l := range m.lines {
		l.Left = geom.ToPercent(pos)
		l.Hovering = m.state.Hovering
		l.Dragging = m.state.Dragging
		l.Visible = true
	}
	for _, l := range m.ghosts {
		l.Left = geom.ToPercent(m.state.Position)
		l.Hovering = false
		l.Dragging = m.state.Dragging
		l.Visible = m.state.Dragging
	}
}

func (m *DividerManager) set(s DividerState) {
	if s == m.state {
		return
	}
	m.state = s
	m.sync()
	m.observers.notify(s)
}

// OnHoverEnter and OnHoverLeave track the pointer over the divider. Hover changes are ignored during a drag.
func (m *DividerManager) OnHoverEnter() {
	if m.state.Dragging {
		return
	}
	s := m.state
	s.Hovering = true
	m.set(s)
}

func (m *DividerManager) OnHoverLeave() {
	if m.state.Dragging {
		return
	}
	s := m.state
	s.Hovering = false
	m.set(s)
}

func (m *DividerManager) position(ev PointerEvent) (float64, bool) {
	r, ok := m.content.rect(m.window)
	if !ok {
		return 0, false
	}
	return geom.Clamp(r.FractionX(ev.PageX), 0, 1), true
}

// OnDragStart handles a pointer down on the divider.
func (m *DividerManager) OnDragStart(ev PointerEvent) {
	if _, ok := m.position(ev); !ok || m.state.Dragging {
		return
	}
	s := m.state
	s.Dragging = true
	s.Hovering = false
	s.DragPosition = s.Position
	m.set(s)

	m.token = m.suppress.Acquire()
	m.listeners = append(m.listeners,
		m.window.AddListener(PointerMove, m.onDragMove),
		m.window.AddListener(PointerUp, m.onDragEnd),
	)
}

func (m *DividerManager) onDragMove(ev PointerEvent) {
	p, ok := m.position(ev)
	if !ok {
		return
	}
	s := m.state
	s.DragPosition = p
	m.set(s)
}

func (m *DividerManager) onDragEnd(ev PointerEvent) {
	m.teardown()
	s := m.state
	if p, ok := m.position(ev); ok {
		s.DragPosition = p
	}
	s.Position = s.DragPosition
	s.Dragging = false
	m.set(s)
}

func (m *DividerManager) teardown() {
	m.listeners.removeAll()
	m.token.Release()
	m.token = nil
}

// SetPosition moves the divider, cancelling any drag.
func (m *DividerManager) SetPosition(p float64) {
	m.teardown()
	p = geom.Clamp(p, 0, 1)
	m.set(DividerState{Position: p, DragPosition: p, Hovering: m.state.Hovering})
}

// Close cancels a drag without committing it.
func (m *DividerManager) Close() {
	m.teardown()
	if m.state.Dragging {
		m.state.Dragging = false
		m.state.DragPosition = m.state.Position
		m.sync()
	}
	m.observers.clear()
}
