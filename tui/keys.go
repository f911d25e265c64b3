package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Reset    key.Binding
	Undo     key.Binding
	Activate key.Binding
	Focus    key.Binding
	Search   key.Binding
	Sort     key.Binding
	Switch   key.Binding
	Narrower key.Binding
	Wider    key.Binding
	ScrollL  key.Binding
	ScrollR  key.Binding
	Detail   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "parent / previous")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "child / next")),
		Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous sibling")),
		Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next sibling")),
		PanLeft:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "pan left")),
		PanRight: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "pan right")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Reset:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
		Undo:     key.NewBinding(key.WithKeys("u", "backspace"), key.WithHelp("u", "undo zoom")),
		Activate: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "zoom / collapse")),
		Focus:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom to span")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Switch:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "waterfall / chart")),
		Narrower: key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "move divider left")),
		Wider:    key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move divider right")),
		ScrollL:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "scroll names left")),
		ScrollR:  key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "scroll names right")),
		Detail:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "details")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ZoomIn, k.ZoomOut, k.Activate, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PanLeft, k.PanRight},
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Undo, k.Activate, k.Focus},
		{k.Search, k.Sort, k.Switch, k.Narrower, k.Wider, k.ScrollL, k.ScrollR},
		{k.Detail, k.Help, k.Quit},
	}
}
