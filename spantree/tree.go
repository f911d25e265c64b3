package spantree

import (
	"time"

	"github.com/spanlens/spanlens/units"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultGapThreshold is the smallest gap between sibling spans that is reported as missing instrumentation.
const DefaultGapThreshold = 100 * time.Millisecond

// MissingInstrumentationOp is the op of synthetic gap nodes.
const MissingInstrumentationOp = "missing instrumentation"

type Node struct {
	Span     Span
	Depth    int
	Parent   *Node
	Children []*Node
	IsRoot   bool
	// IsGap marks a synthetic node covering a stretch of time in which no span was recorded.
	IsGap bool
	// Detached marks a span that couldn't be reached from the root, because its ancestry contains a cycle.
	Detached bool
}

// Walk calls fn for n and its descendants in depth-first order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

type Options struct {
	// GapThreshold enables gap nodes between siblings separated by at least this much time. Zero disables them.
	GapThreshold time.Duration
	// Ops hides spans whose op isn't in the set. Their children move up to the nearest shown ancestor. An empty set
	// shows everything.
	Ops map[string]bool
}

type Tree struct {
	Root *Node
	// Nodes lists all nodes in depth-first order, gaps included.
	Nodes []*Node
	// Hidden is the number of spans hidden by Options.Ops.
	Hidden int
	// Duplicates is the number of spans dropped for reusing another span's ID.
	Duplicates int
	MaxDepth   int
	Trace    *ParsedTrace
}

// Ops returns the distinct ops of all spans, sorted.
func (t *Tree) Ops() []string {
	var ops []string
	for _, s := range t.Trace.Spans {
		ops = append(ops, s.Op)
	}
	slices.Sort(ops)
	return slices.Compact(ops)
}

type builder struct {
	opts     Options
	children map[string][]Span
	visited  map[string]bool
	hidden   int
}

// BuildTree builds the span tree of p. It terminates for any input, including spans that are their own parent or
// form longer cycles, and every span appears at most once.
func BuildTree(p *ParsedTrace, opts Options) *Tree {
	b := &builder{
		opts:     opts,
		children: maps.Clone(p.Children),
		visited:  map[string]bool{},
	}
	root := &Node{Span: p.Root, IsRoot: true}
	b.visited[p.Root.SpanID] = true
	b.build(root, p.Root.SpanID)

	// Spans in a parent cycle aren't reachable from the root.
	var detached bool
	for _, s := range p.Spans {
		if b.visited[s.SpanID] {
			continue
		}
		detached = true
		b.add(root, s, true)
	}
	if detached {
		slices.SortStableFunc(root.Children, func(a, b *Node) int { return byStart(a.Span, b.Span) })
	}

	if opts.GapThreshold > 0 {
		insertGaps(root, opts.GapThreshold)
	}

	t := &Tree{Root: root, Hidden: b.hidden, Duplicates: p.Duplicates, Trace: p}
	var fix func(n *Node, depth int)
	fix = func(n *Node, depth int) {
		n.Depth = depth
		t.MaxDepth = max(t.MaxDepth, depth)
		t.Nodes = append(t.Nodes, n)
		for _, c := range n.Children {
			c.Parent = n
			fix(c, depth+1)
		}
	}
	fix(root, 0)
	return t
}

// build attaches the descendants of the span with the given ID to parent.
func (b *builder) build(parent *Node, id string) {
	children := b.children[id]
	// Removing the entry before recursing guarantees that a span is never expanded twice, no matter what its
	// descendants claim their parent to be.
	delete(b.children, id)
	for _, c := range children {
		if b.visited[c.SpanID] {
			continue
		}
		b.add(parent, c, false)
	}
}

func (b *builder) add(parent *Node, s Span, detached bool) {
	b.visited[s.SpanID] = true
	if len(b.opts.Ops) > 0 && !b.opts.Ops[s.Op] {
		b.hidden++
		b.build(parent, s.SpanID)
		return
	}
	n := &Node{Span: s, Detached: detached}
	parent.Children = append(parent.Children, n)
	b.build(n, s.SpanID)
}

func insertGaps(n *Node, threshold time.Duration) {
	if len(n.Children) == 0 {
		return
	}
	out := make([]*Node, 0, len(n.Children))
	end := n.Children[0].Span.Timestamp
	for i, c := range n.Children {
		insertGaps(c, threshold)
		if i > 0 && units.Seconds(c.Span.StartTimestamp-end) >= threshold {
			out = append(out, &Node{
				Span: Span{
					SpanID:         "gap:" + c.Span.SpanID,
					ParentSpanID:   n.Span.SpanID,
					TraceID:        c.Span.TraceID,
					Op:             MissingInstrumentationOp,
					StartTimestamp: end,
					Timestamp:      c.Span.StartTimestamp,
				},
				IsGap: true,
			})
		}
		out = append(out, c)
		end = max(end, c.Span.Timestamp)
	}
	n.Children = out
}
