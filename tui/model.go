// Package tui is the terminal frontend: a bubbletea program that shows a trace as a waterfall or span chart, or a
// profile as a flamegraph, and drives the same schedulers, views and interaction managers as any other host.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/config"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/source"
	"github.com/spanlens/spanlens/spantree"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// headerRows and statusRows frame the pane.
	headerRows = 1
	statusRows = 1
)

// frameMsg is sent once per frame interval. The model runs animations and flushes requested frames on it.
type frameMsg time.Time

// pane is one way of looking at a document.
type pane interface {
	Resize(cols, rows int)
	Close()
	Tick(now time.Time)
	Zoom(now time.Time, factor float64)
	Pan(dx float64)
	Reset()
	Undo(now time.Time)
	Activate(now time.Time)
	Move(dx, dy int)
	Mouse(msg tea.MouseMsg, x, y int)
	Title() string
	Status() string
	Detail() string
	View() string
}

type searcher interface{ Search(query string) }

type sorter interface{ NextSort() }

type switcher interface{ Switch() }

type focuser interface{ ZoomToSelection() }

// divided panes have a name column next to their timeline.
type divided interface {
	MoveDivider(delta float64)
	ScrollNames(delta float64)
}

type Model struct {
	doc    *source.Document
	cfg    *config.Config
	log    *slog.Logger
	frames *scheduler.FrameQueue
	sched  *scheduler.CanvasScheduler
	pane   pane

	keys       keyMap
	help       help.Model
	styles     styles
	detail     viewport.Model
	search     textinput.Model
	showDetail bool
	searching  bool

	width, height int
	now           func() time.Time
}

func chromaStyle(theme string) string {
	if theme == "dark" {
		return "monokai"
	}
	return "github"
}

type Options struct {
	// Log receives debug output. Nil discards it.
	Log *slog.Logger
	// Ops restricts span trees to the given ops. Empty shows all spans.
	Ops map[string]bool
}

// New returns a model showing doc.
func New(doc *source.Document, cfg *config.Config, opts Options) (*Model, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	th, err := mycolor.ThemeByName(cfg.Theme)
	if err != nil {
		return nil, err
	}
	sort, err := flamegraph.ParseSort(cfg.Sort)
	if err != nil {
		return nil, err
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search frames"
	search.CharLimit = 200

	m := &Model{
		doc:    doc,
		cfg:    cfg,
		log:    log,
		frames: &scheduler.FrameQueue{},
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: newStyles(th),
		detail: viewport.New(defaultWidth, 0),
		search: search,
		width:  defaultWidth,
		height: defaultHeight,
		now:    time.Now,
	}
	m.sched = scheduler.New(m.frames, log)

	cols, rows := m.width, m.paneRows()
	switch doc.Kind {
	case source.KindEvent:
		tree := spantree.BuildTree(spantree.ParseTrace(doc.Event), spantree.Options{GapThreshold: cfg.GapThreshold, Ops: opts.Ops})
		log.Debug("built span tree", "nodes", len(tree.Nodes), "depth", tree.MaxDepth, "hidden", tree.Hidden, "duplicates", tree.Duplicates)
		m.pane = newSpanPane(m.sched, m.frames, tree, cols, rows, spanOptions{
			Theme:             th,
			AnimationDuration: cfg.AnimationDuration,
			MinZoomWidth:      cfg.MinZoomWidth,
			ChromaStyle:       chromaStyle(cfg.Theme),
		})
	default:
		if doc.Flamegraph == nil {
			return nil, fmt.Errorf("%s document has no flamegraph", doc.Kind)
		}
		m.pane = newFlamePane(m.sched, doc.Flamegraph, cols, rows, flameOptions{
			Theme:             th,
			BarHeight:         1,
			AnimationDuration: cfg.AnimationDuration,
			Sort:              sort,
			ChromaStyle:       chromaStyle(cfg.Theme),
			Measurements:      doc.Measurements,
			Duration:          doc.Duration,
		})
	}
	m.frames.Flush()
	return m, nil
}

// Run shows doc until the user quits.
func Run(doc *source.Document, cfg *config.Config, opts Options) error {
	m, err := New(doc, cfg, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}

// Close releases the pane and the scheduler.
func (m *Model) Close() {
	m.pane.Close()
	m.sched.Dispose()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) detailRows() int {
	if !m.showDetail {
		return 0
	}
	return max(m.height/3, 3)
}

func (m *Model) helpView() string {
	return m.help.View(m.keys)
}

// paneRows is what is left for the pane after the header, status line, help and details.
func (m *Model) paneRows() int {
	rows := m.height - headerRows - statusRows - lipgloss.Height(m.helpView()) - m.detailRows()
	if m.showDetail {
		// The detail border.
		rows--
	}
	return max(rows, 1)
}

func (m *Model) layout() {
	m.help.Width = m.width
	m.search.Width = max(m.width-2, 1)
	m.detail.Width = m.width
	m.detail.Height = m.detailRows()
	m.pane.Resize(m.width, m.paneRows())
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	if m.showDetail {
		m.detail.SetContent(m.pane.Detail())
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
	case frameMsg:
		m.pane.Tick(time.Time(msg))
		m.frames.Flush()
		return m, m.tick()
	case tea.MouseMsg:
		y := msg.Y - headerRows
		if y >= 0 && y < m.paneRows() {
			m.pane.Mouse(msg, msg.X, y)
			m.refreshDetail()
		}
	case tea.KeyMsg:
		if m.searching {
			return m, m.updateSearch(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		if s, ok := m.pane.(searcher); ok {
			s.Search(strings.TrimSpace(m.search.Value()))
		}
		return nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	now := m.now()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.layout()
		return nil
	case key.Matches(msg, m.keys.Search):
		if _, ok := m.pane.(searcher); !ok {
			return nil
		}
		m.searching = true
		return m.search.Focus()
	case m.showDetail && (msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown):
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	case key.Matches(msg, m.keys.Up):
		m.pane.Move(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.pane.Move(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.pane.Move(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.pane.Move(1, 0)
	case key.Matches(msg, m.keys.PanLeft):
		m.pane.Pan(-panStep)
	case key.Matches(msg, m.keys.PanRight):
		m.pane.Pan(panStep)
	case key.Matches(msg, m.keys.ZoomIn):
		m.pane.Zoom(now, zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.pane.Zoom(now, 1/zoomStep)
	case key.Matches(msg, m.keys.Reset):
		m.pane.Reset()
	case key.Matches(msg, m.keys.Undo):
		m.pane.Undo(now)
	case key.Matches(msg, m.keys.Activate):
		m.pane.Activate(now)
	case key.Matches(msg, m.keys.Focus):
		if f, ok := m.pane.(focuser); ok {
			f.ZoomToSelection()
		} else {
			m.pane.Activate(now)
		}
	case key.Matches(msg, m.keys.Sort):
		if s, ok := m.pane.(sorter); ok {
			s.NextSort()
		}
	case key.Matches(msg, m.keys.Switch):
		if s, ok := m.pane.(switcher); ok {
			s.Switch()
		}
	case key.Matches(msg, m.keys.Narrower), key.Matches(msg, m.keys.Wider):
		if d, ok := m.pane.(divided); ok {
			delta := 1.0
			if key.Matches(msg, m.keys.Narrower) {
				delta = -1
			}
			d.MoveDivider(delta)
		}
	case key.Matches(msg, m.keys.ScrollL), key.Matches(msg, m.keys.ScrollR):
		if d, ok := m.pane.(divided); ok {
			delta := 1.0
			if key.Matches(msg, m.keys.ScrollL) {
				delta = -1
			}
			d.ScrollNames(delta)
		}
	}
	m.refreshDetail()
	return nil
}

func (m *Model) View() string {
	header := m.styles.Header.MaxWidth(m.width).Render(m.pane.Title())
	status := m.pane.Status()
	if m.searching {
		status = m.search.View()
	}
	parts := []string{
		header,
		m.pane.View(),
		m.styles.Status.Width(m.width).MaxHeight(statusRows).Render(status),
	}
	if m.showDetail {
		parts = append(parts, m.styles.Detail.Width(m.width).Render(m.detail.View()))
	}
	parts = append(parts, m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
