package flamegraph

import (
	"testing"

	"github.com/spanlens/spanlens/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fr(name string) Frame { return Frame{Name: name, Package: "pkg"} }

func stack(names ...string) []Frame {
	out := make([]Frame, len(names))
	for i, n := range names {
		out[i] = fr(n)
	}
	return out
}

func testGraph(s Sort) *Flamegraph {
	b := Builder{Unit: "count"}
	b.AddSample(stack("main", "read", "parse"), 2)
	b.AddSample(stack("main", "read"), 1)
	b.AddSample(stack("main", "write"), 4)
	b.AddSample(stack("other", "read"), 1)
	b.AddSample(nil, 10)
	b.AddSample(stack("main"), 0)
	return b.Build(s)
}

func name(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Frame.Name
}

func TestBuilderAggregates(t *testing.T) {
	fg := testGraph(SortCallOrder)
	assert.Equal(t, 8.0, fg.TotalWeight)
	assert.Equal(t, 2, fg.Depth)
	assert.Equal(t, geom.NewRect(0, 0, 8, 3), fg.ConfigSpace())
	assert.False(t, fg.Empty)

	require.Len(t, fg.Roots, 2)
	main := fg.Roots[0]
	assert.Equal(t, "main", main.Frame.Name)
	assert.Equal(t, 7.0, main.Weight)
	assert.Equal(t, 0.0, main.SelfWeight)
	require.Len(t, main.Children, 2)
	read := main.Children[0]
	assert.Equal(t, 3.0, read.Weight)
	assert.Equal(t, 1.0, read.SelfWeight)
	assert.Same(t, main, read.Parent)
	assert.Equal(t, 0.0, read.Start)
	assert.Equal(t, 3.0, read.End)
	assert.Equal(t, 3.0, main.Children[1].Start)
	assert.Equal(t, 7.0, fg.Roots[1].Start)
	assert.Len(t, fg.Nodes(), 6)
}

func TestSorts(t *testing.T) {
	heavy := testGraph(SortLeftHeavy)
	assert.Equal(t, "write", heavy.Roots[0].Children[0].Frame.Name)
	assert.Equal(t, 0.0, heavy.Roots[0].Children[0].Start)

	alpha := testGraph(SortAlphabetical)
	assert.Equal(t, "read", alpha.Roots[0].Children[0].Frame.Name)

	fg := testGraph(SortCallOrder)
	fg.Resort(SortLeftHeavy)
	assert.Equal(t, "write", name(fg.HitTest(geom.Pt(1, 1))))
	fg.Resort(SortCallOrder)
	assert.Equal(t, "read", name(fg.HitTest(geom.Pt(1, 1))))

	for _, s := range []Sort{SortCallOrder, SortAlphabetical, SortLeftHeavy} {
		got, err := ParseSort(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSort("sideways")
	assert.Error(t, err)
}

func TestHitTest(t *testing.T) {
	fg := testGraph(SortCallOrder)
	tests := []struct {
		p    geom.Point
		want string
	}{
		{geom.Pt(1, 2.5), "parse"},
		{geom.Pt(2.5, 2), "<nil>"},
		{geom.Pt(5, 1), "write"},
		{geom.Pt(7.5, 1), "read"},
		{geom.Pt(7, 0), "other"},
		{geom.Pt(8, 0), "<nil>"},
		{geom.Pt(-1, 0), "<nil>"},
		{geom.Pt(1, -0.5), "<nil>"},
		{geom.Pt(1, 3), "<nil>"},
	}
	for _, tt := range tests {
		if got := name(fg.HitTest(tt.p)); got != tt.want {
			t.Errorf("HitTest(%s) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestOccurrencesAndSearch(t *testing.T) {
	fg := testGraph(SortCallOrder)
	occ := fg.Occurrences("read", "pkg")
	require.Len(t, occ, 2)
	assert.Equal(t, "main", occ[0].Parent.Frame.Name)
	assert.Equal(t, "other", occ[1].Parent.Frame.Name)
	assert.Empty(t, fg.Occurrences("read", "otherpkg"))

	assert.Len(t, fg.Search("RE"), 2)
	assert.Len(t, fg.Search("pkg"), 6)
	assert.Empty(t, fg.Search("  "))

	self := fg.SelfWeights()
	require.NotEmpty(t, self)
	assert.Equal(t, "write", self[0].Frame.Name)
	assert.Equal(t, 4.0, self[0].Self)
	assert.Equal(t, "read", self[1].Frame.Name)
	assert.Equal(t, 2.0, self[1].Self)
}

func TestEmpty(t *testing.T) {
	var b Builder
	fg := b.Build(SortAlphabetical)
	assert.True(t, fg.Empty)
	assert.Equal(t, geom.NewRect(0, 0, 1, 1), fg.ConfigSpace())
	assert.NotNil(t, fg.HitTest(geom.Pt(0.5, 0.5)))
	assert.Empty(t, fg.Occurrences("", ""))
	assert.Empty(t, fg.SelfWeights())
}

func testProfile() *SampledProfile {
	return &SampledProfile{
		Name:    "main thread",
		Unit:    "milliseconds",
		Frames:  stack("main", "a", "b", "c"),
		Samples: [][]int{{0, 1}, {0, 1, 2}, {0, 1}, {0, 3}, {}, {0}},
		Weights: []float64{1, 1, 1, 2, 1, 1},
	}
}

func TestFromSampled(t *testing.T) {
	p := testProfile()
	require.NoError(t, p.Validate())
	fg := FromSampled(p)
	assert.True(t, fg.Chronological)
	assert.Equal(t, 7.0, fg.TotalWeight)
	assert.Equal(t, 2, fg.Depth)

	require.Len(t, fg.Roots, 2)
	first := fg.Roots[0]
	assert.Equal(t, 0.0, first.Start)
	assert.Equal(t, 5.0, first.End)
	require.Len(t, first.Children, 2)
	a, c := first.Children[0], first.Children[1]
	assert.Equal(t, [2]float64{0, 3}, [2]float64{a.Start, a.End})
	assert.Equal(t, 2.0, a.SelfWeight)
	assert.Equal(t, [2]float64{3, 5}, [2]float64{c.Start, c.End})
	require.Len(t, a.Children, 1)
	b := a.Children[0]
	assert.Equal(t, [2]float64{1, 2}, [2]float64{b.Start, b.End})
	assert.Equal(t, [2]float64{6, 7}, [2]float64{fg.Roots[1].Start, fg.Roots[1].End})

	assert.Equal(t, "b", name(fg.HitTest(geom.Pt(1.5, 2))))
	assert.Nil(t, fg.HitTest(geom.Pt(5.5, 0)))

	fg.Resort(SortAlphabetical)
	assert.Equal(t, SortCallOrder, fg.Sort)
}

func TestAggregateSampled(t *testing.T) {
	fg := testProfile().Aggregate(SortCallOrder)
	require.Len(t, fg.Roots, 1)
	assert.Equal(t, 6.0, fg.Roots[0].Weight)
	assert.Equal(t, 1.0, fg.Roots[0].SelfWeight)
}

func TestValidate(t *testing.T) {
	p := testProfile()
	p.Weights = p.Weights[:1]
	assert.Error(t, p.Validate())

	p = testProfile()
	p.Samples[2] = []int{0, 9}
	assert.Error(t, p.Validate())
}

func TestFrameString(t *testing.T) {
	assert.Equal(t, "pkg.main", fr("main").String())
	assert.Equal(t, "pkg.main", Frame{Name: "pkg.main", Package: "pkg"}.String())
	assert.Equal(t, "main", Frame{Name: "main"}.String())
	assert.Equal(t, "x.go:3", Frame{File: "x.go", Line: 3}.Location())
	assert.Equal(t, "", Frame{}.Location())
}

var SinkNode *Node

func BenchmarkHitTest(b *testing.B) {
	var bld Builder
	for i := 0; i < 1000; i++ {
		bld.AddSample(stack("main", string(rune('a'+i%26)), string(rune('A'+i%7))), float64(i%5+1))
	}
	fg := bld.Build(SortLeftHeavy)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SinkNode = fg.HitTest(geom.Pt(float64(i%int(fg.TotalWeight)), float64(i%3)))
	}
}
