package render

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spanlens/spanlens/canvas"
	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/interaction"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/view"

	"gioui.org/font/gofont"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler() (*scheduler.CanvasScheduler, *scheduler.FrameQueue) {
	q := &scheduler.FrameQueue{}
	return scheduler.New(q, slog.New(slog.NewTextHandler(io.Discard, nil))), q
}

func frame(name string) flamegraph.Frame { return flamegraph.Frame{Name: name, Package: "pkg"} }

func frames(names ...string) []flamegraph.Frame {
	out := make([]flamegraph.Frame, len(names))
	for i, n := range names {
		out[i] = frame(n)
	}
	return out
}

// smallGraph has main spanning the full width, a taking the first three quarters below it and b the rest.
func smallGraph() *flamegraph.Flamegraph {
	b := flamegraph.Builder{Unit: "nanoseconds"}
	b.AddSample(frames("main", "a"), 3)
	b.AddSample(frames("main", "b"), 1)
	return b.Build(flamegraph.SortCallOrder)
}

func newFlamegraphRenderer(fg *flamegraph.Flamegraph) (*FlamegraphRenderer, *Recorder, *view.View) {
	rec := NewRecorder(400, 100)
	c := canvas.New(400, 100, unit.Metric{PxPerDp: 1})
	v := view.New(c, fg, view.Options{BarHeight: 20, Mode: view.AnchorTop})
	return NewFlamegraphRenderer(rec, v, fg, mycolor.Light, DefaultFlamegraphOptions()), rec, v
}

func TestFitText(t *testing.T) {
	rec := NewRecorder(100, 100)
	tests := []struct {
		in    string
		width float64
		want  string
	}{
		{"abcdef", 42, "abcdef"},
		{"abcdef", 30, "abc…"},
		{"abcdef", 10, ""},
		{"", 100, ""},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := fitText(rec, tt.in, tt.width); got != tt.want {
			t.Errorf("fitText(%q, %g) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestLabelCache(t *testing.T) {
	rec := NewRecorder(100, 100)
	c := newLabelCache(rec)
	long := "runtime.gcBgMarkWorker"
	require.NotEqual(t, long, fitText(rec, long, 60))

	assert.Equal(t, fitText(rec, long, 60), c.fit(long, 60))
	assert.Equal(t, fitText(rec, long, 60), c.fit(long, 60))
	assert.Equal(t, fitText(rec, long, 90), c.fit(long, 90), "the width is part of the key")
	assert.Equal(t, 1, c.hits)
	assert.Equal(t, 2, c.misses)

	assert.Empty(t, c.fit(long, 0))
	assert.Empty(t, c.fit("", 60))
	assert.Equal(t, 2, c.misses)
}

func TestFlamegraphRendererLayers(t *testing.T) {
	r, rec, _ := newFlamegraphRenderer(smallGraph())
	sched, q := newScheduler()
	detach := r.Attach(sched)

	sched.DrawSync()
	assert.Equal(t, 0, q.Pending())
	fills := rec.Filter(OpFill)
	require.Len(t, fills, 3)
	assert.Equal(t, geom.NewRect(0, 0, 399, 19), fills[0].Rect)
	assert.Equal(t, geom.NewRect(0, 20, 299, 19), fills[1].Rect)
	assert.Equal(t, geom.NewRect(300, 20, 99, 19), fills[2].Rect)
	assert.Equal(t, []string{"main", "a", "b"}, rec.Texts())
	assert.Equal(t, Stats{Drawn: 3, Labels: 3}, r.Stats())

	assert.Equal(t, "b", r.NodeAt(geom.Pt(350, 30)).Frame.Name)
	assert.Equal(t, "main", r.NodeAt(geom.Pt(350, 10)).Frame.Name)
	assert.Nil(t, r.NodeAt(geom.Pt(350, 50)))

	detach()
	before, after := sched.Callbacks()
	assert.Equal(t, 0, before)
	assert.Equal(t, 0, after)
}

func TestFlamegraphRendererHighlight(t *testing.T) {
	r, rec, _ := newFlamegraphRenderer(smallGraph())
	sched, q := newScheduler()
	r.Attach(sched)

	sched.Dispatch(scheduler.HighlightFrame{Name: "a", Package: "pkg", Mode: scheduler.HighlightSelected}, nil)
	require.Equal(t, 1, q.Flush())
	strokes := rec.Filter(OpStroke)
	require.Len(t, strokes, 1)
	assert.Equal(t, geom.NewRect(0, 20, 299, 19), strokes[0].Rect)
	assert.Equal(t, 2.0, strokes[0].Width)

	sched.Dispatch(scheduler.HighlightFrame{Mode: scheduler.HighlightSelected}, nil)
	q.Flush()
	assert.Empty(t, rec.Filter(OpStroke))
}

func TestFlamegraphRendererSearch(t *testing.T) {
	r, rec, _ := newFlamegraphRenderer(smallGraph())
	sched, q := newScheduler()
	r.Attach(sched)

	sched.Dispatch(scheduler.Search{Query: "B"}, nil)
	q.Flush()
	assert.Equal(t, 1, r.Matches())

	dim := mycolor.WithAlpha(mycolor.Light.Background, 0xB0)
	n := 0
	for _, op := range rec.Filter(OpFill) {
		if op.Color == dim {
			n++
		}
	}
	assert.Equal(t, 2, n, "main and a are dimmed")
	strokes := rec.Filter(OpStroke)
	require.Len(t, strokes, 1)
	assert.Equal(t, mycolor.Light.Warning, strokes[0].Color)
}

func TestFlamegraphRendererSort(t *testing.T) {
	r, rec, _ := newFlamegraphRenderer(smallGraph())
	sched, q := newScheduler()
	r.Attach(sched)

	sched.Dispatch(scheduler.SetSort{Sort: "left heavy"}, nil)
	q.Flush()
	assert.Equal(t, []string{"main", "a", "b"}, rec.Texts())

	sched.Dispatch(scheduler.SetSort{Sort: "nonsense"}, nil)
	assert.Equal(t, 0, q.Pending())
}

func TestFlamegraphRendererCulling(t *testing.T) {
	r, _, v := newFlamegraphRenderer(smallGraph())
	v.SetConfigView(geom.NewRect(0, 0, 1, 5))
	r.DrawBase()
	assert.Equal(t, 2, r.Stats().Drawn)
	assert.Equal(t, 1, r.Stats().Culled)
}

func TestFlamegraphRendererSkipsSubpixelChildren(t *testing.T) {
	b := flamegraph.Builder{Unit: "count"}
	b.AddSample(frames("main", "x"), 1000)
	b.AddSample(frames("main", "y", "z"), 1)
	r, _, _ := newFlamegraphRenderer(b.Build(flamegraph.SortCallOrder))
	r.DrawBase()

	var names []string
	for _, n := range r.Visible() {
		names = append(names, n.Frame.Name)
	}
	assert.Equal(t, []string{"main", "x"}, names)
	assert.Equal(t, 1, r.Stats().Culled)
}

func TestFlamegraphRendererEmpty(t *testing.T) {
	var b flamegraph.Builder
	r, rec, _ := newFlamegraphRenderer(b.Build(flamegraph.SortCallOrder))
	r.DrawBase()
	r.DrawLabels()
	assert.Empty(t, rec.Filter(OpFill))
	assert.Equal(t, []string{"No samples"}, rec.Texts())
	assert.Nil(t, r.NodeAt(geom.Pt(10, 10)))
}

func TestFrameTooltip(t *testing.T) {
	fg := smallGraph()
	main := fg.Roots[0]
	got := FrameTooltip(fg, main)
	assert.True(t, strings.HasPrefix(got, "Name: pkg.main\nStack depth: 0\nDuration: 4ns (0s self)\nImmediate children: 2"), got)
	assert.Contains(t, got, "Share: 100.000%")

	assert.Equal(t, "1,234", FormatWeight("count", 1234))
	assert.Equal(t, "1.5ms", FormatWeight("milliseconds", 1.5))
}

const base = 1600000000.0

func testTree() *spantree.Tree {
	ev := &spantree.Event{
		EventID:        "ev",
		StartTimestamp: base,
		EndTimestamp:   base + 1,
		Contexts:       spantree.Contexts{Trace: spantree.TraceContext{TraceID: "t", SpanID: "root", Op: "http.server"}},
		Spans: []spantree.Span{
			{SpanID: "a", ParentSpanID: "root", Op: "db", StartTimestamp: base, Timestamp: base + 0.5},
			{SpanID: "b", ParentSpanID: "root", Op: "http", StartTimestamp: base + 0.5, Timestamp: base + 1},
			{SpanID: "c", ParentSpanID: "a", Op: "db.query", StartTimestamp: base + 0.1, Timestamp: base + 0.2},
		},
	}
	return spantree.BuildTree(spantree.ParseTrace(ev), spantree.Options{})
}

func testWaterfall() (*WaterfallRenderer, *Recorder) {
	rec := NewRecorder(400, 200)
	opts := WaterfallOptions{RowHeight: 20, Indent: 10, Padding: 2}
	return NewWaterfallRenderer(rec, testTree(), mycolor.Light, opts), rec
}

func rowIDs(rows []*spantree.Node) []string {
	var out []string
	for _, n := range rows {
		out = append(out, n.Span.SpanID)
	}
	return out
}

func TestWaterfallRows(t *testing.T) {
	r, rec := testWaterfall()
	assert.Equal(t, []string{"root", "a", "c", "b"}, rowIDs(r.Rows()))

	r.DrawBase()
	fills := rec.Filter(OpFill)
	require.Len(t, fills, 4)
	assert.Equal(t, geom.NewRect(160, 1, 240, 18), fills[0].Rect)
	assert.Equal(t, geom.NewRect(160, 21, 120, 18), fills[1].Rect)
	assert.Equal(t, Stats{Drawn: 4, Labels: 4}, r.Stats())

	r.Toggle("a")
	assert.Equal(t, []string{"root", "a", "b"}, rowIDs(r.Rows()))
	assert.Equal(t, "b", r.RowAt(45).Span.SpanID)
	assert.Nil(t, r.RowAt(100))
	r.Toggle("a")
	assert.Len(t, r.Rows(), 4)
}

func TestWaterfallFollowsViewWindow(t *testing.T) {
	r, _ := testWaterfall()
	sched, q := newScheduler()
	w := &interaction.Window{}
	drag := interaction.NewDragManager(w, interaction.NewSuppressor(&interaction.Body{}), interaction.StaticRef(geom.Box{}))
	r.Attach(sched, Managers{Drag: drag})

	drag.SetViewWindow(0.5, 1)
	require.Equal(t, 1, q.Flush())
	assert.Equal(t, 2, r.Stats().Drawn)
	assert.Equal(t, 2, r.Stats().Culled)

	r.Detach()
	drag.SetViewWindow(0, 1)
	assert.Equal(t, 0, q.Pending())
}

func TestWaterfallDivider(t *testing.T) {
	r, _ := testWaterfall()
	s := r.State()
	s.Divider.Position = 0
	r.SetState(s)
	names, timeline := r.Columns()
	assert.Equal(t, 1.0, names.Width)
	assert.Equal(t, 399.0, timeline.Width)

	s.Divider.Dragging = true
	s.Divider.DragPosition = 1
	r.SetState(s)
	names, _ = r.Columns()
	assert.Equal(t, 399.0, names.Width)
}

func TestRasterSurface(t *testing.T) {
	s := NewRasterSurface(10, 10)
	red := color.NRGBA{R: 0xFF, A: 0xFF}
	s.Clear(color.NRGBA{A: 0xFF})
	s.FillRect(geom.NewRect(2, 2, 3, 3), red)
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, s.Image.RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{A: 0xFF}, s.Image.RGBAAt(6, 6))

	// Slivers still cover a pixel.
	s.FillRect(geom.NewRect(8, 8, 0.1, 0.1), red)
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, s.Image.RGBAAt(8, 8))

	assert.Equal(t, 21.0, s.MeasureText("abc"))
	assert.Equal(t, 13.0, s.LineHeight())
}

func TestPolylines(t *testing.T) {
	red := color.NRGBA{R: 0xFF, A: 0xFF}
	rs := NewRasterSurface(10, 10)
	rs.Clear(color.NRGBA{A: 0xFF})
	rs.Polyline([]geom.Point{geom.Pt(0.5, 0.5), geom.Pt(8.5, 0.5)}, 1, red)
	for x := 0; x <= 8; x++ {
		assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, rs.Image.RGBAAt(x, 0), "x=%d", x)
	}
	assert.Equal(t, color.RGBA{A: 0xFF}, rs.Image.RGBAAt(9, 0))
	assert.Equal(t, color.RGBA{A: 0xFF}, rs.Image.RGBAAt(4, 1))

	ts := NewTermSurface(10, 3)
	ts.Polyline([]geom.Point{geom.Pt(0, 0), geom.Pt(4, 2)}, 1, red)
	assert.Equal(t, "••        ", ts.Line(0))
	assert.Equal(t, "  ••      ", ts.Line(1))
	assert.Equal(t, "    •     ", ts.Line(2))
	assert.Equal(t, red, ts.At(2, 1).FG)
}

func TestTermSurface(t *testing.T) {
	s := NewTermSurface(10, 3)
	s.Clear(mycolor.Light.Background)
	s.Text(geom.Pt(0, 0), "世a", mycolor.Light.Foreground)
	assert.Equal(t, "世a       ", s.Line(0))
	assert.Equal(t, 3.0, s.MeasureText("世a"))

	s.Text(geom.Pt(7, 1), "truncated", mycolor.Light.Foreground)
	assert.Equal(t, "       tru", s.Line(1))

	s.StrokeRect(geom.NewRect(0, 0, 3, 3), 1, mycolor.Light.Foreground)
	assert.Equal(t, '┌', s.At(0, 0).Rune)
	assert.Equal(t, '┘', s.At(2, 2).Rune)

	fill := color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}
	s.FillRect(geom.NewRect(5, 2, 2, 1), fill)
	assert.Equal(t, fill, s.At(5, 2).BG)
	assert.Equal(t, fill, s.At(6, 2).BG)
	assert.NotEqual(t, fill, s.At(7, 2).BG)

	assert.Contains(t, s.Render(), "tru")
}

func TestGioSurfaceBatchesFills(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	s := NewGioSurface(new(op.Ops), image.Pt(100, 50), unit.Metric{PxPerDp: 1, PxPerSp: 1}, nil)

	s.FillRect(geom.NewRect(0, 0, 10, 10), red)
	s.FillRect(geom.NewRect(10, 0, 10, 10), blue)
	s.FillRect(geom.NewRect(20, 0, 10, 10), red)
	s.FillRect(geom.NewRect(30, 0, 0, 10), red)
	require.Equal(t, []color.NRGBA{red, blue}, s.colors)
	assert.Len(t, s.fills[red], 2)
	assert.Len(t, s.fills[blue], 1)

	// Strokes are drawn on top of everything filled so far.
	s.StrokeRect(geom.NewRect(0, 0, 30, 10), 1, blue)
	assert.Empty(t, s.colors)
	assert.Empty(t, s.fills)

	s.FillRect(geom.NewRect(0, 0, 10, 10), red)
	s.Text(geom.Pt(0, 0), "no shaper", red)
	assert.Len(t, s.fills[red], 1, "nothing is drawn without a shaper")
	assert.InDelta(t, 0.6*12*3, s.MeasureText("abc"), 1e-9)
	assert.InDelta(t, 1.2*12, s.LineHeight(), 1e-9)
}

func TestGioSurfaceKeepsFillOrder(t *testing.T) {
	row := color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	bar := color.NRGBA{B: 0xff, A: 0xff}
	s := NewGioSurface(new(op.Ops), image.Pt(100, 50), unit.Metric{PxPerDp: 1, PxPerSp: 1}, nil)

	// A row background, a bar on top of it, then the next row's background.
	s.FillRect(geom.NewRect(0, 0, 100, 10), row)
	s.FillRect(geom.NewRect(10, 2, 20, 6), bar)
	s.FillRect(geom.NewRect(0, 10, 100, 10), row)
	require.Equal(t, []color.NRGBA{row, bar}, s.colors, "rows below the bar still batch")
	assert.Len(t, s.fills[row], 2)

	// A row background over the bar must not be drawn beneath it.
	s.FillRect(geom.NewRect(0, 0, 100, 20), row)
	assert.Equal(t, []color.NRGBA{row}, s.colors)
	assert.Len(t, s.fills[row], 1)
	assert.Empty(t, s.fills[bar])
}

func TestGioSurfaceText(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	shaper := text.NewShaper(text.WithCollection(gofont.Collection()))
	s := NewGioSurface(new(op.Ops), image.Pt(200, 50), unit.Metric{PxPerDp: 1, PxPerSp: 1}, shaper)

	s.FillRect(geom.NewRect(0, 0, 200, 50), red)
	s.Text(geom.Pt(4, 4), "main.main", color.NRGBA{A: 0xff})
	assert.Empty(t, s.colors, "text is drawn on top of fills")
	assert.Empty(t, s.fills)

	s.Text(geom.Pt(190, 40), "clipped at the edge of the surface", red)
	s.Text(geom.Pt(0, 0), "", red)
	s.Flush()
}
