package flamegraph

import "fmt"

// Builder aggregates stack samples into a flamegraph, merging identical stacks.
type Builder struct {
	Unit string
	Name string

	roots    []*Node
	rootsIdx map[FrameKey]*Node
	total    float64
}

func addChild(children *[]*Node, idx map[FrameKey]*Node, parent *Node, f Frame) *Node {
	if n, ok := idx[f.Key()]; ok {
		return n
	}
	n := &Node{
		Frame:    f,
		Parent:   parent,
		order:    len(*children),
		children: map[FrameKey]*Node{},
	}
	idx[f.Key()] = n
	*children = append(*children, n)
	return n
}

// AddSample adds a stack, ordered from the root to the leaf, with the given weight. Empty stacks and non-positive
// weights are ignored.
func (b *Builder) AddSample(stack []Frame, weight float64) {
	if len(stack) == 0 || !(weight > 0) {
		return
	}
	if b.rootsIdx == nil {
		b.rootsIdx = map[FrameKey]*Node{}
	}
	b.total += weight

	cur := addChild(&b.roots, b.rootsIdx, nil, stack[0])
	cur.Weight += weight
	for _, f := range stack[1:] {
		cur = addChild(&cur.Children, cur.children, cur, f)
		cur.Weight += weight
	}
	cur.SelfWeight += weight
}

// Build lays out the samples added so far. The builder must not be used afterwards.
func (b *Builder) Build(s Sort) *Flamegraph {
	fg := &Flamegraph{
		Unit:        b.Unit,
		Name:        b.Name,
		Sort:        s,
		Roots:       b.roots,
		TotalWeight: b.total,
	}
	if len(b.roots) == 0 {
		fg.Roots = placeholder()
		fg.TotalWeight = 1
		fg.Empty = true
	}

	var drop func(nodes []*Node)
	drop = func(nodes []*Node) {
		for _, n := range nodes {
			n.children = nil
			drop(n.Children)
		}
	}
	drop(fg.Roots)

	fg.layout()
	fg.index()
	b.roots = nil
	b.rootsIdx = nil
	return fg
}

// SampledProfile is a profile that records the full stack at regular intervals. Stacks are indices into Frames,
// ordered from the root to the leaf. Weights[i] is the duration or count represented by Samples[i].
type SampledProfile struct {
	Name    string
	Unit    string
	Frames  []Frame
	Samples [][]int
	Weights []float64
}

// Validate reports whether every stack refers to known frames and every sample has a weight.
func (p *SampledProfile) Validate() error {
	if len(p.Weights) != len(p.Samples) {
		return fmt.Errorf("profile %q has %d samples but %d weights", p.Name, len(p.Samples), len(p.Weights))
	}
	for i, stack := range p.Samples {
		for _, idx := range stack {
			if idx < 0 || idx >= len(p.Frames) {
				return fmt.Errorf("sample %d of profile %q refers to unknown frame %d", i, p.Name, idx)
			}
		}
	}
	return nil
}

// Aggregate builds a flamegraph from the profile.
func (p *SampledProfile) Aggregate(s Sort) *Flamegraph {
	b := Builder{Unit: p.Unit, Name: p.Name}
	stack := make([]Frame, 0, 64)
	for i, sample := range p.Samples {
		stack = stack[:0]
		for _, idx := range sample {
			stack = append(stack, p.Frames[idx])
		}
		b.AddSample(stack, p.Weights[i])
	}
	return b.Build(s)
}

// FromSampled builds a flamechart: nodes are laid out in time order, and consecutive samples that share a stack
// prefix extend the same nodes. The profile must be valid.
func FromSampled(p *SampledProfile) *Flamegraph {
	fg := &Flamegraph{
		Unit:          p.Unit,
		Name:          p.Name,
		Chronological: true,
	}

	var (
		open   []*Node
		openAt []int
		cursor float64
	)
	closeFrom := func(i int) {
		for _, n := range open[i:] {
			n.End = cursor
			n.Weight = n.End - n.Start
		}
		open = open[:i]
		openAt = openAt[:i]
	}

	for i, sample := range p.Samples {
		w := p.Weights[i]
		if !(w > 0) {
			continue
		}
		common := 0
		for common < len(open) && common < len(sample) && openAt[common] == sample[common] {
			common++
		}
		closeFrom(common)
		for _, idx := range sample[common:] {
			n := &Node{Frame: p.Frames[idx], Start: cursor}
			if len(open) == 0 {
				fg.Roots = append(fg.Roots, n)
			} else {
				parent := open[len(open)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			}
			open = append(open, n)
			openAt = append(openAt, idx)
		}
		if len(sample) > 0 {
			open[len(open)-1].SelfWeight += w
		}
		cursor += w
	}
	closeFrom(0)

	fg.TotalWeight = cursor
	if len(fg.Roots) == 0 {
		fg.Roots = placeholder()
		fg.TotalWeight = 1
		fg.Empty = true
	}
	fg.index()
	return fg
}
