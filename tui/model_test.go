package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/spanlens/spanlens/config"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/source"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventJSON = `{
	"event_id": "ev1",
	"start_timestamp": 100,
	"timestamp": 101.5,
	"contexts": {"trace": {"trace_id": "t1", "span_id": "root", "op": "http.server"}},
	"spans": [
		{"span_id": "a", "parent_span_id": "root", "op": "db", "description": "SELECT 1", "start_timestamp": 100.1, "timestamp": 100.4},
		{"span_id": "b", "parent_span_id": "a", "op": "db.query", "start_timestamp": 100.2, "timestamp": 100.3, "data": {"rows": 3}},
		{"span_id": "c", "parent_span_id": "root", "op": "render", "start_timestamp": 100.5, "timestamp": 101}
	]
}`

const profileJSON = `{
	"name": "cpu",
	"unit": "nanoseconds",
	"frames": [
		{"function": "main", "package": "main"},
		{"function": "a", "package": "example.com/a"},
		{"function": "b", "package": "example.com/b"}
	],
	"samples": [[0, 1], [0, 1], [0, 2]],
	"weights": [10, 10, 5],
	"measurements": {
		"cpu_usage": {"unit": "percent", "values": [
			{"elapsed_since_start_ns": 0, "value": 10},
			{"elapsed_since_start_ns": 20, "value": 30}
		]}
	}
}`

func newTestModel(t *testing.T, doc *source.Document) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.AnimationDuration = 0
	cfg.GapThreshold = 0
	m, err := New(doc, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.now = func() time.Time { return time.Unix(0, 0) }
	send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func decode(t *testing.T, in string) *source.Document {
	t.Helper()
	doc, err := source.Decode(strings.NewReader(in))
	require.NoError(t, err)
	return doc
}

// send delivers msgs to m and flushes the frames they requested.
func send(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
		m.frames.Flush()
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestSpanPaneSelection(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	require.Same(t, p.tree.Root, p.selected)

	send(m, keyDown)
	assert.Equal(t, "a", p.selected.Span.SpanID)
	assert.Equal(t, "a", p.waterfall.State().Selected)

	send(m, keyDown, keyDown, keyDown)
	assert.Equal(t, "c", p.selected.Span.SpanID)

	send(m, keyUp)
	assert.Equal(t, "b", p.selected.Span.SpanID)
	assert.Equal(t, "b", p.waterfall.State().Selected)
}

func TestSpanPaneCollapse(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	require.Len(t, p.waterfall.Rows(), 4)

	send(m, keyDown, keyLeft)
	assert.True(t, p.waterfall.Collapsed("a"))
	assert.Len(t, p.waterfall.Rows(), 3)

	send(m, keyLeft)
	assert.Same(t, p.tree.Root, p.selected)

	send(m, keyRight)
	assert.Equal(t, "a", p.selected.Span.SpanID)
	send(m, keyRight)
	assert.False(t, p.waterfall.Collapsed("a"))
	assert.Len(t, p.waterfall.Rows(), 4)

	send(m, keyEnter)
	assert.True(t, p.waterfall.Collapsed("a"))
}

func TestSpanPaneViewWindow(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)

	send(m, runes("+"))
	start, end := p.drag.ViewWindow()
	assert.InDelta(t, 0.125, start, 1e-9)
	assert.InDelta(t, 0.875, end, 1e-9)

	send(m, runes("l"))
	start, end = p.drag.ViewWindow()
	assert.InDelta(t, 0.2, start, 1e-9)
	assert.InDelta(t, 0.95, end, 1e-9)

	send(m, runes("u"))
	start, end = p.drag.ViewWindow()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 1.0, end)

	send(m, keyDown, runes("z"))
	start, end = p.drag.ViewWindow()
	assert.InDelta(t, 0.1/1.5, start, 1e-6)
	assert.InDelta(t, 0.4/1.5, end, 1e-6)

	send(m, runes("0"))
	start, end = p.drag.ViewWindow()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 1.0, end)
	assert.Contains(t, p.Status(), "4 rows")
}

func TestSpanPaneMouse(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	require.Equal(t, float64(minimapRows), p.opts.MinimapHeight)

	// The second row, below the header and the minimap.
	send(m, tea.MouseMsg{X: 5, Y: headerRows + minimapRows + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, "a", p.selected.Span.SpanID)

	// Drag the left minimap handle to the middle.
	send(m,
		tea.MouseMsg{X: 0, Y: headerRows, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 50, Y: headerRows, Action: tea.MouseActionMotion},
		tea.MouseMsg{X: 50, Y: headerRows, Action: tea.MouseActionRelease},
	)
	start, end := p.drag.ViewWindow()
	assert.InDelta(t, 0.505, start, 1e-9)
	assert.Equal(t, 1.0, end)
	assert.Equal(t, 0, p.suppress.Held())

	// Drag the divider.
	y := headerRows + minimapRows + 2
	send(m,
		tea.MouseMsg{X: 40, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 60, Y: y, Action: tea.MouseActionMotion},
	)
	assert.True(t, p.divider.State().Dragging)
	send(m, tea.MouseMsg{X: 60, Y: y, Action: tea.MouseActionRelease})
	assert.InDelta(t, 0.605, p.divider.Position(), 1e-9)
	assert.False(t, p.divider.State().Dragging)

	// Hovering the timeline shows the cursor guide.
	send(m, tea.MouseMsg{X: 80, Y: y, Action: tea.MouseActionMotion})
	assert.True(t, p.guide.State().Visible)
	send(m, tea.MouseMsg{X: 10, Y: y, Action: tea.MouseActionMotion})
	assert.False(t, p.guide.State().Visible)
}

func TestSpanPaneDivider(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	send(m, runes(">"))
	assert.InDelta(t, 0.45, p.divider.Position(), 1e-9)
	send(m, runes("<"), runes("<"))
	assert.InDelta(t, 0.35, p.divider.Position(), 1e-9)
	names, _ := p.waterfall.Columns()
	assert.Equal(t, names.Width, p.names.ClientWidth)
}

func TestSpanPaneDividerClampsNameScroll(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	p.names.ScrollWidth = 60
	p.names.SetScrollLeft(p.names.MaxScroll())
	require.Positive(t, p.names.ScrollLeft())

	send(m, runes(">"), runes(">"))
	assert.Equal(t, p.names.MaxScroll(), p.names.ScrollLeft(), "a wider name column can't scroll as far")
	assert.LessOrEqual(t, p.names.ScrollLeft()+p.names.ClientWidth, p.names.ScrollWidth)
}

func TestSpanPaneSwitch(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	p := m.pane.(*spanPane)
	assert.Contains(t, p.Title(), "waterfall")
	assert.Contains(t, m.View(), "http.server")

	send(m, runes("c"))
	require.Equal(t, modeChart, p.mode)
	assert.Contains(t, p.Title(), "span chart")
	full := p.chart.view.ConfigView().Width

	send(m, runes("+"))
	assert.InDelta(t, 0.75, p.nav.visible(), 1e-9)
	send(m, runes("u"))
	assert.InDelta(t, full, p.chart.view.ConfigView().Width, 1e-9)

	send(m, keyDown, keyEnter)
	assert.Equal(t, "a", p.selected.Span.SpanID)
	assert.InDelta(t, 300, p.chart.view.ConfigView().Width, 1e-6)

	send(m, runes("c"))
	assert.Equal(t, modeWaterfall, p.mode)
	assert.Equal(t, "a", p.waterfall.State().Selected)
}

func TestSpanPaneDetail(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	before := m.paneRows()
	send(m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.showDetail)
	assert.Less(t, m.paneRows(), before)

	send(m, keyDown, keyDown)
	d := m.pane.Detail()
	assert.Contains(t, d, "Op: db.query")
	assert.Contains(t, d, "rows")
}

func TestFlamePaneNavigation(t *testing.T) {
	m := newTestModel(t, decode(t, profileJSON))
	p := m.pane.(*flamePane)
	require.NotNil(t, p.chart, "measurements get a chart lane")
	assert.Equal(t, "main", p.selected.Frame.Name)
	assert.Equal(t, "cpu (flamechart)", p.Title())

	send(m, keyDown)
	assert.Equal(t, "a", p.selected.Frame.Name)
	send(m, keyRight)
	assert.Equal(t, "b", p.selected.Frame.Name)
	send(m, keyLeft)
	assert.Equal(t, "a", p.selected.Frame.Name)

	send(m, keyEnter)
	assert.InDelta(t, 20, p.flame.view.ConfigView().Width, 1e-9)
	assert.InDelta(t, 20, p.chart.view.ConfigView().Width, 1e-9)

	send(m, runes("u"))
	assert.InDelta(t, 25, p.flame.view.ConfigView().Width, 1e-9)

	send(m, keyUp)
	assert.Equal(t, "main", p.selected.Frame.Name)
}

func TestFlamePaneSearch(t *testing.T) {
	m := newTestModel(t, decode(t, profileJSON))
	p := m.pane.(*flamePane)

	send(m, runes("/"))
	require.True(t, m.searching)
	send(m, runes("b"), keyEnter)
	assert.False(t, m.searching)
	assert.Equal(t, "b", p.query)
	assert.Equal(t, 1, p.renderer.Matches())
	assert.Contains(t, p.Status(), "search b")
}

func TestFlamePaneSort(t *testing.T) {
	b := flamegraph.Builder{Unit: "count", Name: "samples"}
	b.AddSample([]flamegraph.Frame{{Name: "main"}, {Name: "zeta"}}, 1)
	b.AddSample([]flamegraph.Frame{{Name: "main"}, {Name: "alpha"}}, 3)
	doc := &source.Document{Kind: source.KindPprof, Flamegraph: b.Build(flamegraph.SortCallOrder)}

	m := newTestModel(t, doc)
	p := m.pane.(*flamePane)
	assert.Equal(t, "samples (flamegraph, call order)", p.Title())
	assert.Nil(t, p.chart)

	send(m, runes("s"))
	assert.Equal(t, "samples (flamegraph, alphabetical)", p.Title())
	require.Len(t, p.fg.Roots[0].Children, 2)
	assert.Equal(t, "alpha", p.fg.Roots[0].Children[0].Frame.Name)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, decode(t, eventJSON))
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Theme = "neon"
	_, err := New(decode(t, eventJSON), cfg, Options{})
	assert.Error(t, err)

	_, err = New(&source.Document{Kind: source.KindPprof}, config.Default(), Options{})
	assert.ErrorContains(t, err, "no flamegraph")
}
