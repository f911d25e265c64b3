package interaction

import (
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/scheduler"

	"golang.org/x/exp/slices"
)

// ScrollPane is a horizontally scrollable column, such as one row of span labels. Setting the scroll offset emits a
// Scroll event, like the DOM does for programmatic scrolls.
type ScrollPane struct {
	Target
	ScrollWidth float64
	ClientWidth float64
	scrollLeft  float64
}

func NewScrollPane(scrollWidth, clientWidth float64) *ScrollPane {
	return &ScrollPane{ScrollWidth: scrollWidth, ClientWidth: clientWidth}
}

func (p *ScrollPane) ScrollLeft() float64 { return p.scrollLeft }

// MaxScroll returns the largest valid scroll offset.
func (p *ScrollPane) MaxScroll() float64 { return max(p.ScrollWidth-p.ClientWidth, 0) }

// SetScrollLeft scrolls the pane, clamping x to the scrollable range.
func (p *ScrollPane) SetScrollLeft(x float64) {
	x = geom.Clamp(x, 0, p.MaxScroll())
	if x == p.scrollLeft {
		return
	}
	p.scrollLeft = x
	p.Emit(PointerEvent{Kind: Scroll})
}

// SetClientWidth resizes the visible part of the pane and pulls the scroll offset back into the new range.
func (p *ScrollPane) SetClientWidth(w float64) {
	p.ClientWidth = w
	p.SetScrollLeft(p.scrollLeft)
}

// Thumb is the virtual scrollbar's thumb as fractions of its track.
type Thumb struct {
	Width float64
	Left  float64
}

func (t Thumb) Visible() bool { return t.Width < 1 }

// ThumbFor computes the thumb for a pane.
func ThumbFor(visible, maxScroll, scrollLeft float64) Thumb {
	if maxScroll <= 0 || visible <= 0 {
		return Thumb{Width: 1}
	}
	w := visible / (visible + maxScroll)
	return Thumb{
		Width: w,
		Left:  geom.Clamp(scrollLeft/maxScroll, 0, 1) * (1 - w),
	}
}

type pane struct {
	*ScrollPane
	remove func()
}

type ScrollbarState struct {
	ScrollLeft float64
	Thumb      Thumb
	Dragging   bool
}

// ScrollbarManager keeps a set of scroll panes at the same horizontal offset and drives a virtual scrollbar for them.
//
// Scrolling one pane updates the others on the next frame. While the manager writes a pane's offset it detaches its
// own listener from that pane, so the pane's Scroll event doesn't bounce back.
type ScrollbarManager struct {
	frames   scheduler.FrameRequester
	window   *Window
	suppress *Suppressor
	track    ContentRef
	thumb    ContentRef

	panes       []*pane
	source      *ScrollPane
	cancelFrame func()

	state      ScrollbarState
	grabOffset float64
	token      *Token
	listeners  listeners
	observers  observers[ScrollbarState]
}

// NewScrollbarManager returns a manager whose virtual scrollbar consists of the elements reported by track and
// thumb.
func NewScrollbarManager(frames scheduler.FrameRequester, w *Window, s *Suppressor, track, thumb ContentRef) *ScrollbarManager {
	return &ScrollbarManager{
		frames:   frames,
		window:   w,
		suppress: s,
		track:    track,
		thumb:    thumb,
		state:    ScrollbarState{Thumb: Thumb{Width: 1}},
	}
}

func (m *ScrollbarManager) State() ScrollbarState { return m.state }

func (m *ScrollbarManager) Subscribe(fn func(ScrollbarState)) (unsubscribe func()) {
	return m.observers.subscribe(fn)
}

// AddPane adds a pane to the synchronized set and scrolls it to the current offset.
func (m *ScrollbarManager) AddPane(sp *ScrollPane) (remove func()) {
	p := &pane{ScrollPane: sp}
	m.panes = append(m.panes, p)
	m.write(p, m.state.ScrollLeft)
	m.updateThumb()
	return func() {
		if p.remove != nil {
			p.remove()
			p.remove = nil
		}
		m.panes = slices.DeleteFunc(m.panes, func(o *pane) bool { return o == p })
		if m.source == sp {
			m.source = nil
		}
	}
}

func (m *ScrollbarManager) listen(p *pane) {
	p.remove = p.AddListener(Scroll, func(PointerEvent) { m.onScroll(p.ScrollPane) })
}

// write sets a pane's offset with the manager's listener detached.
func (m *ScrollbarManager) write(p *pane, x float64) {
	if p.remove != nil {
		p.remove()
		p.remove = nil
	}
	p.SetScrollLeft(x)
	m.listen(p)
}

func (m *ScrollbarManager) onScroll(sp *ScrollPane) {
	m.source = sp
	if m.cancelFrame == nil {
		m.cancelFrame = m.frames.RequestFrame(m.syncFrame)
	}
}

func (m *ScrollbarManager) syncFrame() {
	m.cancelFrame = nil
	if m.source == nil {
		return
	}
	m.scrollTo(m.source.ScrollLeft(), m.source)
}

// scrollTo moves every pane except skip to x.
func (m *ScrollbarManager) scrollTo(x float64, skip *ScrollPane) {
	for _, p := range m.panes {
		if p.ScrollPane != skip {
			m.write(p, x)
		}
	}
	m.state.ScrollLeft = x
	m.updateThumb()
}

// widest returns the visible width and the largest scroll distance across all panes.
func (m *ScrollbarManager) widest() (visible, maxScroll float64) {
	for _, p := range m.panes {
		visible = max(visible, p.ClientWidth)
		maxScroll = max(maxScroll, p.MaxScroll())
	}
	return visible, maxScroll
}

func (m *ScrollbarManager) updateThumb() {
	visible, maxScroll := m.widest()
	m.state.Thumb = ThumbFor(visible, maxScroll, m.state.ScrollLeft)
	m.observers.notify(m.state)
}

// OnWheel scrolls every pane by the event's horizontal delta.
func (m *ScrollbarManager) OnWheel(ev PointerEvent) {
	if len(m.panes) == 0 || ev.DeltaX == 0 {
		return
	}
	_, maxScroll := m.widest()
	m.scrollTo(geom.Clamp(m.state.ScrollLeft+ev.DeltaX, 0, maxScroll), nil)
}

// OnThumbDragStart handles a pointer down on the thumb. The drag keeps the point of the thumb that was grabbed under
// the pointer.
func (m *ScrollbarManager) OnThumbDragStart(ev PointerEvent) {
	thumb, ok := m.thumb.rect(m.window)
	if !ok || m.state.Dragging {
		return
	}
	m.grabOffset = ev.PageX - thumb.X
	m.state.Dragging = true
	m.token = m.suppress.Acquire()
	m.listeners = append(m.listeners,
		m.window.AddListener(PointerMove, m.onThumbDragMove),
		m.window.AddListener(PointerUp, func(PointerEvent) { m.endDrag() }),
	)
	m.observers.notify(m.state)
}

func (m *ScrollbarManager) onThumbDragMove(ev PointerEvent) {
	track, ok := m.track.rect(m.window)
	if !ok {
		return
	}
	_, maxScroll := m.widest()
	free := track.Width * (1 - m.state.Thumb.Width)
	frac := geom.Clamp(geom.SafeDiv(ev.PageX-m.grabOffset-track.X, free), 0, 1)
	m.scrollTo(frac*maxScroll, nil)
}

func (m *ScrollbarManager) endDrag() {
	m.listeners.removeAll()
	m.token.Release()
	m.token = nil
	if m.state.Dragging {
		m.state.Dragging = false
		m.observers.notify(m.state)
	}
}

// Close cancels a pending sync and a drag and detaches from all panes.
func (m *ScrollbarManager) Close() {
	if m.cancelFrame != nil {
		m.cancelFrame()
		m.cancelFrame = nil
	}
	m.endDrag()
	for _, p := range m.panes {
		if p.remove != nil {
			p.remove()
			p.remove = nil
		}
	}
	m.panes = nil
	m.source = nil
	m.observers.clear()
}
