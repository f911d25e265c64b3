// Package color assigns colors to spans and frames and defines the themes of the renderers.
package color

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// paletteSize is the number of distinct hues handed out to ops and frames.
const paletteSize = 24

var (
	opPalette     = makePalette(0.45, 0.72)
	appPalette    = makePalette(0.55, 0.78)
	systemPalette = makePalette(0.12, 0.80)
)

// makePalette spreads hues evenly around the HCL color wheel at a fixed chroma and luminance, so that all colors of
// a palette have the same perceived brightness.
func makePalette(chroma, lum float64) []color.NRGBA {
	out := make([]color.NRGBA, paletteSize)
	for i := range out {
		h := float64(i) * 360 / paletteSize
		out[i] = NRGBA(colorful.Hcl(h, chroma, lum).Clamped())
	}
	return out
}

// NRGBA converts a colorful color to an opaque image/color color.
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

func hash(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

func pick(p []color.NRGBA, parts ...string) color.NRGBA {
	return p[hash(parts...)%uint32(len(p))]
}

// OpCategory returns the part of an op before the first dot, e.g. "db" for "db.query".
func OpCategory(op string) string {
	if i := strings.IndexByte(op, '.'); i >= 0 {
		return op[:i]
	}
	return op
}

// ForOp returns the color of spans with the given op. Ops of the same category share a color.
func ForOp(op string) color.NRGBA {
	return pick(opPalette, OpCategory(op))
}

// ForFrame returns the color of a frame. Application frames are saturated, library and runtime frames are muted.
func ForFrame(name, pkg string, inApp bool) color.NRGBA {
	if inApp {
		return pick(appPalette, name, pkg)
	}
	return pick(systemPalette, name, pkg)
}

// Lighten moves c towards white by amount in [0,1].
func Lighten(c color.NRGBA, amount float64) color.NRGBA {
	return blend(c, color.NRGBA{0xFF, 0xFF, 0xFF, c.A}, amount)
}

// Darken moves c towards black by amount in [0,1].
func Darken(c color.NRGBA, amount float64) color.NRGBA {
	return blend(c, color.NRGBA{0, 0, 0, c.A}, amount)
}

func blend(a, b color.NRGBA, t float64) color.NRGBA {
	ca, _ := colorful.MakeColor(opaque(a))
	cb, _ := colorful.MakeColor(opaque(b))
	out := NRGBA(ca.BlendLab(cb, min(max(t, 0), 1)).Clamped())
	out.A = a.A
	return out
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xFF
	return c
}

// WithAlpha returns c with a different alpha.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

// Hex formats c as #rrggbb.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Luminance returns the perceived lightness of c in [0,1].
func Luminance(c color.NRGBA) float64 {
	cf, _ := colorful.MakeColor(opaque(c))
	_, _, l := cf.Hcl()
	return l
}

// TextOn returns black or white, whichever is more legible on bg.
func TextOn(bg color.NRGBA) color.NRGBA {
	if Luminance(bg) > 0.6 {
		return color.NRGBA{0, 0, 0, 0xFF}
	}
	return color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
}
