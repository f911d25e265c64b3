// Package spantree turns the flat span list of a trace event into a tree and computes where each span sits within
// the visible part of the trace.
package spantree

import (
	"time"

	"github.com/spanlens/spanlens/units"

	"golang.org/x/exp/slices"
)

// Span is a timed unit of work. Timestamps are seconds since the Unix epoch.
type Span struct {
	SpanID         string            `json:"span_id"`
	ParentSpanID   string            `json:"parent_span_id,omitempty"`
	TraceID        string            `json:"trace_id,omitempty"`
	Op             string            `json:"op,omitempty"`
	Description    string            `json:"description,omitempty"`
	Status         string            `json:"status,omitempty"`
	StartTimestamp float64           `json:"start_timestamp"`
	Timestamp      float64           `json:"timestamp"`
	Tags           map[string]string `json:"tags,omitempty"`
	Data           map[string]any    `json:"data,omitempty"`
}

func (s Span) Duration() time.Duration {
	return units.Seconds(s.Timestamp - s.StartTimestamp)
}

type TraceContext struct {
	TraceID      string `json:"trace_id"`
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
	Op           string `json:"op,omitempty"`
	Status       string `json:"status,omitempty"`
}

type Contexts struct {
	Trace TraceContext `json:"trace"`
}

type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Event is a transaction event: a root span described by its trace context plus the spans recorded during it.
type Event struct {
	EventID        string                 `json:"event_id"`
	Transaction    string                 `json:"transaction"`
	StartTimestamp float64                `json:"start_timestamp"`
	EndTimestamp   float64                `json:"timestamp"`
	Contexts       Contexts               `json:"contexts"`
	Spans          []Span                 `json:"spans"`
	Measurements   map[string]Measurement `json:"measurements,omitempty"`
}

// ParsedTrace is an event's spans indexed by parent.
type ParsedTrace struct {
	TraceID string
	Op      string
	Root    Span
	// Children maps a span ID to its children, sorted by start time.
	Children map[string][]Span
	// Spans are all spans except the root, sorted by start time.
	Spans []Span
	// Duplicates is the number of spans whose ID was already taken by an earlier span or the root. Only the first
	// span with a given ID makes it into the tree.
	Duplicates int

	TraceStartTimestamp float64
	TraceEndTimestamp   float64
}

func (p *ParsedTrace) Duration() time.Duration {
	return units.Seconds(p.TraceEndTimestamp - p.TraceStartTimestamp)
}

func byStart(a, b Span) int {
	switch {
	case a.StartTimestamp < b.StartTimestamp:
		return -1
	case a.StartTimestamp > b.StartTimestamp:
		return 1
	default:
		return 0
	}
}

// ParseTrace indexes the spans of ev. Spans whose parent is missing from the event are attached to the root span.
// The trace's time range is widened to cover every span.
func ParseTrace(ev *Event) *ParsedTrace {
	tc := ev.Contexts.Trace
	root := Span{
		SpanID:         tc.SpanID,
		ParentSpanID:   tc.ParentSpanID,
		TraceID:        tc.TraceID,
		Op:             tc.Op,
		Description:    ev.Transaction,
		Status:         tc.Status,
		StartTimestamp: ev.StartTimestamp,
		Timestamp:      ev.EndTimestamp,
	}
	p := &ParsedTrace{
		TraceID:             tc.TraceID,
		Op:                  tc.Op,
		Root:                root,
		Children:            map[string][]Span{},
		Spans:               slices.Clone(ev.Spans),
		TraceStartTimestamp: ev.StartTimestamp,
		TraceEndTimestamp:   ev.EndTimestamp,
	}
	slices.SortStableFunc(p.Spans, byStart)

	known := make(map[string]struct{}, len(p.Spans)+1)
	known[root.SpanID] = struct{}{}
	for _, s := range p.Spans {
		if _, ok := known[s.SpanID]; ok {
			p.Duplicates++
		}
		known[s.SpanID] = struct{}{}
	}

	for _, s := range p.Spans {
		parent := s.ParentSpanID
		if _, ok := known[parent]; !ok || parent == "" {
			parent = root.SpanID
		}
		p.Children[parent] = append(p.Children[parent], s)

		p.TraceStartTimestamp = min(p.TraceStartTimestamp, s.StartTimestamp, s.Timestamp)
		p.TraceEndTimestamp = max(p.TraceEndTimestamp, s.StartTimestamp, s.Timestamp)
	}
	return p
}
