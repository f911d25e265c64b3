package scheduler

import (
	"fmt"

	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/view"
)

type EventKind uint8

const (
	KindSetConfigView EventKind = iota
	KindTransformConfigView
	KindResetZoom
	KindZoomAtFrame
	KindZoomAtSpan
	KindHighlightFrame
	KindHighlightSpan
	KindSetSort
	KindSearch

	numEventKinds
)

func (k EventKind) String() string {
	switch k {
	case KindSetConfigView:
		return "set config view"
	case KindTransformConfigView:
		return "transform config view"
	case KindResetZoom:
		return "reset zoom"
	case KindZoomAtFrame:
		return "zoom at frame"
	case KindZoomAtSpan:
		return "zoom at span"
	case KindHighlightFrame:
		return "highlight frame"
	case KindHighlightSpan:
		return "highlight span"
	case KindSetSort:
		return "set sort"
	case KindSearch:
		return "search"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is the closed set of messages carried by a scheduler. Only types in this package implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

// Source identifies who dispatched an event, usually a *view.View. Sources are compared by identity.
type Source any

type SetConfigView struct {
	Rect geom.Rect
}

type TransformConfigView struct {
	Transform geom.Affine
}

type ResetZoom struct{}

type ZoomAtFrame struct {
	Bounds   geom.Rect
	Strategy view.ZoomStrategy
}

type ZoomAtSpan struct {
	Bounds   geom.Rect
	Strategy view.ZoomStrategy
}

type HighlightMode uint8

const (
	HighlightHover HighlightMode = iota
	HighlightSelected
)

// HighlightFrame highlights all occurrences of a frame. An empty Name clears the highlight.
type HighlightFrame struct {
	Name    string
	Package string
	Mode    HighlightMode
}

// HighlightSpan highlights spans by ID. An empty list clears the highlight.
type HighlightSpan struct {
	SpanIDs []string
}

// SetSort changes the order of flamegraph siblings. Sort is the name of a flamegraph.Sort.
type SetSort struct {
	Sort string
}

type Search struct {
	Query string
}

func (SetConfigView) Kind() EventKind       { return KindSetConfigView }
func (TransformConfigView) Kind() EventKind { return KindTransformConfigView }
func (ResetZoom) Kind() EventKind           { return KindResetZoom }
func (ZoomAtFrame) Kind() EventKind         { return KindZoomAtFrame }
func (ZoomAtSpan) Kind() EventKind          { return KindZoomAtSpan }
func (HighlightFrame) Kind() EventKind      { return KindHighlightFrame }
func (HighlightSpan) Kind() EventKind       { return KindHighlightSpan }
func (SetSort) Kind() EventKind             { return KindSetSort }
func (Search) Kind() EventKind              { return KindSearch }

func (SetConfigView) isEvent()       {}
func (TransformConfigView) isEvent() {}
func (ResetZoom) isEvent()           {}
func (ZoomAtFrame) isEvent()         {}
func (ZoomAtSpan) isEvent()          {}
func (HighlightFrame) isEvent()      {}
func (HighlightSpan) isEvent()       {}
func (SetSort) isEvent()             {}
func (Search) isEvent()              {}
