package tui

import (
	mycolor "github.com/spanlens/spanlens/color"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Header lipgloss.Style
	Status lipgloss.Style
	Detail lipgloss.Style
	Error  lipgloss.Style
}

func newStyles(th mycolor.Theme) styles {
	fg := lipgloss.Color(mycolor.Hex(th.Foreground))
	muted := lipgloss.Color(mycolor.Hex(th.Muted))
	return styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(fg).Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color(mycolor.Hex(th.Grid))).
			Foreground(fg).
			Padding(0, 1),
		Detail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true, false, false, false).
			BorderForeground(muted),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color(mycolor.Hex(th.FrozenFrame))),
	}
}
