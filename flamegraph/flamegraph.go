package flamegraph

import (
	"fmt"
	"math"
	"strings"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/exp/slices"
)

type Sort uint8

const (
	SortCallOrder Sort = iota
	SortAlphabetical
	SortLeftHeavy
)

func (s Sort) String() string {
	switch s {
	case SortCallOrder:
		return "call order"
	case SortAlphabetical:
		return "alphabetical"
	case SortLeftHeavy:
		return "left heavy"
	default:
		return fmt.Sprintf("Sort(%d)", uint8(s))
	}
}

func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call order", "call", "callorder":
		return SortCallOrder, nil
	case "alphabetical", "alpha", "name":
		return SortAlphabetical, nil
	case "left heavy", "heavy", "leftheavy":
		return SortLeftHeavy, nil
	default:
		return 0, fmt.Errorf("unknown sort %q", s)
	}
}

type Node struct {
	Frame    Frame
	Parent   *Node
	Children []*Node
	Depth    int
	// Start and End are the node's extent in config space, in units of weight.
	Start, End float64
	// Weight is the total weight of all samples that include this node.
	Weight float64
	// SelfWeight is the weight of samples in which this node is the leaf.
	SelfWeight float64

	// order is the position of the node among its siblings in the order they were first seen.
	order int
	// immediate children indexed by frame, only used while building
	children map[FrameKey]*Node
}

func (n *Node) Rect() geom.Rect {
	return geom.NewRect(n.Start, float64(n.Depth), n.End-n.Start, 1)
}

type Flamegraph struct {
	Roots []*Node
	// Unit is the unit of weights, e.g. "nanoseconds" or "count".
	Unit string
	// Name describes the profile, e.g. the thread it was recorded on.
	Name        string
	TotalWeight float64
	// Depth is the depth of the deepest node.
	Depth int
	// Chronological is set for flamecharts, whose nodes are ordered by time and can't be re-sorted.
	Chronological bool
	// Empty is set when there were no samples. The graph then has a single placeholder root.
	Empty bool
	Sort  Sort

	nodes  []*Node
	levels [][]*Node
}

// placeholder is used when there are no samples, to avoid a zero-width config space.
func placeholder() []*Node {
	return []*Node{{Weight: 1, End: 1}}
}

func (fg *Flamegraph) ConfigSpace() geom.Rect {
	return geom.NewRect(0, 0, fg.TotalWeight, float64(fg.Depth+1))
}

// Nodes returns all nodes in depth-first order.
func (fg *Flamegraph) Nodes() []*Node { return fg.nodes }

// Level returns the nodes of the given depth, ordered by Start.
func (fg *Flamegraph) Level(depth int) []*Node {
	if depth < 0 || depth >= len(fg.levels) {
		return nil
	}
	return fg.levels[depth]
}

func (fg *Flamegraph) index() {
	fg.nodes = fg.nodes[:0]
	fg.levels = fg.levels[:0]
	fg.Depth = 0
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		n.Depth = depth
		fg.Depth = max(fg.Depth, depth)
		fg.nodes = append(fg.nodes, n)
		for len(fg.levels) <= depth {
			fg.levels = append(fg.levels, nil)
		}
		fg.levels[depth] = append(fg.levels[depth], n)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range fg.Roots {
		walk(r, 0)
	}
}

func sortNodes(nodes []*Node, s Sort) {
	switch s {
	case SortCallOrder:
		slices.SortFunc(nodes, func(a, b *Node) int { return a.order - b.order })
	case SortAlphabetical:
		slices.SortStableFunc(nodes, func(a, b *Node) int {
			if c := strings.Compare(a.Frame.Name, b.Frame.Name); c != 0 {
				return c
			}
			return strings.Compare(a.Frame.Package, b.Frame.Package)
		})
	case SortLeftHeavy:
		slices.SortStableFunc(nodes, func(a, b *Node) int {
			switch {
			case a.Weight > b.Weight:
				return -1
			case a.Weight < b.Weight:
				return 1
			default:
				return strings.Compare(a.Frame.Name, b.Frame.Name)
			}
		})
	default:
		panic(fmt.Sprintf("unhandled sort %s", s))
	}
}

// layout sorts siblings and assigns every node its extent.
func (fg *Flamegraph) layout() {
	var place func(nodes []*Node, start float64)
	place = func(nodes []*Node, start float64) {
		sortNodes(nodes, fg.Sort)
		for _, n := range nodes {
			n.Start = start
			n.End = start + n.Weight
			start = n.End
			place(n.Children, n.Start)
		}
	}
	place(fg.Roots, 0)
}

// Resort changes the order of siblings. Flamecharts keep their chronological order.
func (fg *Flamegraph) Resort(s Sort) {
	if fg.Chronological || fg.Sort == s {
		return
	}
	fg.Sort = s
	fg.layout()
	fg.index()
}

// HitTest returns the node under the config-space point p, or nil.
func (fg *Flamegraph) HitTest(p geom.Point) *Node {
	if !(p.Y >= 0) {
		return nil
	}
	level := fg.Level(int(math.Floor(p.Y)))
	i, _ := slices.BinarySearchFunc(level, p.X, func(n *Node, x float64) int {
		if n.Start <= x {
			return -1
		}
		return 1
	})
	if i == 0 {
		return nil
	}
	if n := level[i-1]; p.X < n.End {
		return n
	}
	return nil
}

// Occurrences returns all nodes for the function name in package pkg, in depth-first order.
func (fg *Flamegraph) Occurrences(name, pkg string) []*Node {
	if fg.Empty {
		return nil
	}
	var out []*Node
	for _, n := range fg.nodes {
		if n.Frame.Name == name && n.Frame.Package == pkg {
			out = append(out, n)
		}
	}
	return out
}

// Search returns the nodes whose name or package contains query, ignoring case. An empty query matches nothing.
func (fg *Flamegraph) Search(query string) []*Node {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || fg.Empty {
		return nil
	}
	var out []*Node
	for _, n := range fg.nodes {
		if strings.Contains(strings.ToLower(n.Frame.Name), query) ||
			strings.Contains(strings.ToLower(n.Frame.Package), query) {
			out = append(out, n)
		}
	}
	return out
}

// SelfWeights returns the summed self weight of every function, heaviest first.
func (fg *Flamegraph) SelfWeights() []FunctionWeight {
	byKey := map[FrameKey]*FunctionWeight{}
	var out []*FunctionWeight
	for _, n := range fg.nodes {
		if fg.Empty {
			break
		}
		k := n.Frame.Key()
		fw, ok := byKey[k]
		if !ok {
			fw = &FunctionWeight{Frame: n.Frame}
			byKey[k] = fw
			out = append(out, fw)
		}
		fw.Self += n.SelfWeight
	}
	slices.SortStableFunc(out, func(a, b *FunctionWeight) int {
		switch {
		case a.Self > b.Self:
			return -1
		case a.Self < b.Self:
			return 1
		default:
			return 0
		}
	})
	res := make([]FunctionWeight, len(out))
	for i, fw := range out {
		res[i] = *fw
	}
	return res
}

type FunctionWeight struct {
	Frame Frame
	Self  float64
}
