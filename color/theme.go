package color

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

type Theme struct {
	Name       string
	Background color.NRGBA
	Foreground color.NRGBA
	Muted      color.NRGBA
	Grid       color.NRGBA
	// Selection fills the selected area of minimaps and highlights selected frames.
	Selection color.NRGBA
	Hover     color.NRGBA
	Warning   color.NRGBA
	// Gap fills missing-instrumentation gaps.
	Gap         color.NRGBA
	SlowFrame   color.NRGBA
	FrozenFrame color.NRGBA
	// Series colors lines of measurement charts, in order.
	Series []color.NRGBA
}

func hex(s string) color.NRGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("invalid color %q: %s", s, err))
	}
	return NRGBA(c)
}

var Light = Theme{
	Name:        "light",
	Background:  hex("#ffffff"),
	Foreground:  hex("#2b2233"),
	Muted:       hex("#80708f"),
	Grid:        hex("#e7e1ec"),
	Selection:   WithAlpha(hex("#6c5fc7"), 0x40),
	Hover:       WithAlpha(hex("#6c5fc7"), 0x80),
	Warning:     hex("#f5b000"),
	Gap:         hex("#d6d0dc"),
	SlowFrame:   hex("#f5b000"),
	FrozenFrame: hex("#f55459"),
	Series:      []color.NRGBA{hex("#6c5fc7"), hex("#3c74dd"), hex("#2ba185")},
}

var Dark = Theme{
	Name:        "dark",
	Background:  hex("#1a141f"),
	Foreground:  hex("#ebe6ef"),
	Muted:       hex("#a398ae"),
	Grid:        hex("#362e3e"),
	Selection:   WithAlpha(hex("#8273e6"), 0x50),
	Hover:       WithAlpha(hex("#8273e6"), 0x90),
	Warning:     hex("#ffc227"),
	Gap:         hex("#4d4158"),
	SlowFrame:   hex("#ffc227"),
	FrozenFrame: hex("#fa4747"),
	Series:      []color.NRGBA{hex("#8273e6"), hex("#5d8ff0"), hex("#33bf9e")},
}

// ThemeByName returns the light or dark theme.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", Light.Name:
		return Light, nil
	case Dark.Name:
		return Dark, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// SeriesColor returns the color of the i-th chart series.
func (th Theme) SeriesColor(i int) color.NRGBA {
	if len(th.Series) == 0 {
		return th.Foreground
	}
	return th.Series[i%len(th.Series)]
}
