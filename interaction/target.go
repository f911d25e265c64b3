// Package interaction turns raw pointer events into the positions, ratios and scroll offsets that drive the span
// waterfall: the minimap window, the column divider, synchronized label columns and the cursor guide.
//
// Every manager follows the same lifecycle. A pointer down on an element starts a drag, which installs listeners on
// the window and suppresses text selection. The drag ends on pointer up anywhere, or when the manager is closed, and
// both paths remove the listeners and release the suppression.
package interaction

import (
	"fmt"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/exp/slices"
)

type EventKind uint8

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerEnter
	PointerLeave
	Wheel
	Scroll

	numEventKinds
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointer down"
	case PointerMove:
		return "pointer move"
	case PointerUp:
		return "pointer up"
	case PointerEnter:
		return "pointer enter"
	case PointerLeave:
		return "pointer leave"
	case Wheel:
		return "wheel"
	case Scroll:
		return "scroll"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// PointerEvent is an input event in page coordinates. Scroll events carry no position.
type PointerEvent struct {
	Kind           EventKind
	PageX, PageY   float64
	DeltaX, DeltaY float64
	Button         int
}

type Listener func(PointerEvent)

type listener struct {
	fn      Listener
	removed bool
}

// Target is something that emits input events, the Go counterpart of a DOM node. Listeners run in the order they
// were added.
type Target struct {
	listeners [numEventKinds][]*listener
}

// AddListener registers fn for events of the given kind. The returned function removes it and may be called any
// number of times.
func (t *Target) AddListener(kind EventKind, fn Listener) (remove func()) {
	l := &listener{fn: fn}
	t.listeners[kind] = append(t.listeners[kind], l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		ls := t.listeners[kind]
		for i, o := range ls {
			if o == l {
				t.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers ev to the listeners that were registered when Emit was called, skipping any that get removed along
// the way.
func (t *Target) Emit(ev PointerEvent) {
	for _, l := range append([]*listener(nil), t.listeners[ev.Kind]...) {
		if !l.removed {
			l.fn(ev)
		}
	}
}

// ListenerCount returns the number of listeners for the given kinds, or for all kinds if none are given.
func (t *Target) ListenerCount(kinds ...EventKind) int {
	if len(kinds) == 0 {
		n := 0
		for _, ls := range t.listeners {
			n += len(ls)
		}
		return n
	}
	n := 0
	for _, k := range kinds {
		n += len(t.listeners[k])
	}
	return n
}

// Window is the document-level event target. Drags listen on it so they keep working when the pointer leaves the
// element they started on.
type Window struct {
	Target
	// Scroll is the document's scroll offset.
	Scroll geom.Point
}

// ContentRef returns the current layout of an element, or false once the element is gone. Every manager treats a
// missing element as a reason to do nothing.
type ContentRef func() (geom.Box, bool)

func (ref ContentRef) rect(w *Window) (geom.Rect, bool) {
	if ref == nil {
		return geom.Rect{}, false
	}
	b, ok := ref()
	if !ok {
		return geom.Rect{}, false
	}
	var scroll geom.Point
	if w != nil {
		scroll = w.Scroll
	}
	return geom.RectOfContent(b, scroll), true
}

// StaticRef returns a ContentRef for an element that never goes away.
func StaticRef(b geom.Box) ContentRef {
	return func() (geom.Box, bool) { return b, true }
}

// observers is a list of subscribers to a manager's state.
type observers[T any] struct {
	fns []*func(T)
}

func (o *observers[T]) subscribe(fn func(T)) (unsubscribe func()) {
	p := &fn
	o.fns = append(o.fns, p)
	return func() {
		for i, q := range o.fns {
			if q == p {
				o.fns = append(o.fns[:i:i], o.fns[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[T]) notify(v T) {
	// Observers may unsubscribe while being notified.
	for _, fn := range slices.Clone(o.fns) {
		(*fn)(v)
	}
}

func (o *observers[T]) clear() { o.fns = nil }

// listeners collects remove functions for a set of listeners installed together.
type listeners []func()

func (ls *listeners) removeAll() {
	for _, fn := range *ls {
		fn()
	}
	*ls = nil
}
