// Package scheduler coordinates redraws of many canvases and carries the events that keep their views in sync.
//
// A CanvasScheduler owns two ordered lists of frame callbacks. Before-frame callbacks paint base content, after-frame
// callbacks paint overlays such as labels, grids and selections. Within one frame every before-frame callback runs
// before any after-frame callback.
package scheduler

import (
	"fmt"
	"log/slog"
)

type Handler func(ev Event, src Source)

type entry[T any] struct {
	fn      T
	removed bool
}

// list is an ordered collection of callbacks that tolerates removal while it is being iterated.
type list[T any] struct {
	entries []*entry[T]
	dirty   bool
}

func (l *list[T]) add(fn T) func() {
	e := &entry[T]{fn: fn}
	l.entries = append(l.entries, e)
	return func() {
		if !e.removed {
			e.removed = true
			l.dirty = true
		}
	}
}

// snapshot returns the live entries, compacting the list if anything was removed.
func (l *list[T]) snapshot() []*entry[T] {
	if l.dirty {
		live := l.entries[:0]
		for _, e := range l.entries {
			if !e.removed {
				live = append(live, e)
			}
		}
		clear(l.entries[len(live):])
		l.entries = live
		l.dirty = false
	}
	return append([]*entry[T](nil), l.entries...)
}

func (l *list[T]) len() int {
	n := 0
	for _, e := range l.entries {
		if !e.removed {
			n++
		}
	}
	return n
}

type queuedEvent struct {
	ev  Event
	src Source
}

type Stats struct {
	// Frames is the number of frames drawn.
	Frames int
	// Panics is the number of callbacks and handlers that panicked.
	Panics int
}

type CanvasScheduler struct {
	frames FrameRequester
	log    *slog.Logger

	handlers [numEventKinds]list[Handler]
	before   list[func()]
	after    list[func()]

	cancelFrame func()
	dispatching bool
	queue       []queuedEvent
	stats       Stats
}

// New returns a scheduler that requests frames from frames. A nil logger uses slog.Default.
func New(frames FrameRequester, log *slog.Logger) *CanvasScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &CanvasScheduler{frames: frames, log: log}
}

// On subscribes fn to events of the given kind. The returned function unsubscribes and may be called any number of
// times.
func (s *CanvasScheduler) On(kind EventKind, fn Handler) (unsubscribe func()) {
	if kind >= numEventKinds {
		panic(fmt.Sprintf("unknown event kind %s", kind))
	}
	return s.handlers[kind].add(fn)
}

// Dispatch delivers ev to its subscribers synchronously. Events dispatched by a handler are queued and delivered once
// the current event has reached all of its subscribers.
func (s *CanvasScheduler) Dispatch(ev Event, src Source) {
	s.queue = append(s.queue, queuedEvent{ev, src})
	if s.dispatching {
		return
	}
	s.dispatching = true
	defer func() { s.dispatching = false }()

	for len(s.queue) > 0 {
		q := s.queue[0]
		s.queue[0] = queuedEvent{}
		s.queue = s.queue[1:]
		for _, e := range s.handlers[q.ev.Kind()].snapshot() {
			if e.removed {
				continue
			}
			s.safely("handler", q.ev.Kind().String(), func() { e.fn(q.ev, q.src) })
		}
	}
}

// RegisterBeforeFrameCallback adds a callback that paints base content.
func (s *CanvasScheduler) RegisterBeforeFrameCallback(fn func()) (unregister func()) {
	return s.before.add(fn)
}

// RegisterAfterFrameCallback adds a callback that paints overlays on top of base content.
func (s *CanvasScheduler) RegisterAfterFrameCallback(fn func()) (unregister func()) {
	return s.after.add(fn)
}

// Draw schedules a frame. Any number of calls before the frame runs result in a single frame.
func (s *CanvasScheduler) Draw() {
	if s.cancelFrame != nil {
		return
	}
	s.cancelFrame = s.frames.RequestFrame(func() {
		s.cancelFrame = nil
		s.drawFrame()
	})
}

// DrawSync draws a frame immediately, replacing any frame that is already scheduled. It's meant for resizes, where
// waiting a frame shows a stretched canvas.
func (s *CanvasScheduler) DrawSync() {
	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	s.drawFrame()
}

// FramePending reports whether Draw has scheduled a frame that hasn't run yet.
func (s *CanvasScheduler) FramePending() bool { return s.cancelFrame != nil }

func (s *CanvasScheduler) drawFrame() {
	s.stats.Frames++
	for _, e := range s.before.snapshot() {
		if !e.removed {
			s.safely("before frame callback", "", e.fn)
		}
	}
	for _, e := range s.after.snapshot() {
		if !e.removed {
			s.safely("after frame callback", "", e.fn)
		}
	}
}

// safely runs fn, recovering and logging a panic so that one broken callback can't take down the others.
func (s *CanvasScheduler) safely(what, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.Panics++
			if event != "" {
				s.log.Error("recovered panic", "in", what, "event", event, "panic", r)
			} else {
				s.log.Error("recovered panic", "in", what, "panic", r)
			}
		}
	}()
	fn()
}

func (s *CanvasScheduler) Stats() Stats { return s.stats }

// Callbacks returns the number of registered before and after frame callbacks.
func (s *CanvasScheduler) Callbacks() (before, after int) {
	return s.before.len(), s.after.len()
}

// Dispose cancels a pending frame and drops all callbacks and subscribers.
func (s *CanvasScheduler) Dispose() {
	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	for i := range s.handlers {
		s.handlers[i] = list[Handler]{}
	}
	s.before = list[func()]{}
	s.after = list[func()]{}
	s.queue = nil
}
