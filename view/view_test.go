package view

import (
	"math"
	"testing"
	"time"

	"github.com/spanlens/spanlens/canvas"
	"github.com/spanlens/spanlens/geom"

	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rectModel geom.Rect

func (m rectModel) ConfigSpace() geom.Rect { return geom.Rect(m) }

func newTestView(space geom.Rect, opts Options) *View {
	c := canvas.New(1000, 200, unit.Metric{PxPerDp: 2})
	return New(c, rectModel(space), opts)
}

func TestResetRestoresConfigSpace(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit, MinWidth: 1})
	v.SetConfigView(geom.NewRect(20, 2, 10, 3))
	require.Equal(t, geom.NewRect(20, 2, 10, 3), v.ConfigView())

	v.ResetConfigView()
	assert.True(t, v.ConfigView().Equal(v.ConfigSpace()), "got %s, want %s", v.ConfigView(), v.ConfigSpace())
}

func TestAnchoredReset(t *testing.T) {
	// 200 logical pixels at 20px per row fit 10 rows.
	v := newTestView(geom.NewRect(0, 0, 100, 4), Options{Mode: AnchorTop, BarHeight: 20})
	assert.Equal(t, geom.NewRect(0, 0, 100, 10), v.ConfigSpace(), "config space grows to fill the canvas")
	assert.True(t, v.ConfigView().Equal(v.ConfigSpace()))

	deep := newTestView(geom.NewRect(0, 0, 100, 40), Options{Mode: AnchorBottom, BarHeight: 20})
	assert.Equal(t, geom.NewRect(0, 30, 100, 10), deep.ConfigView())
}

func TestSetConfigViewClamps(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit, MinWidth: 5})

	v.SetConfigView(geom.NewRect(-50, -5, 1, 100))
	assert.Equal(t, geom.NewRect(0, 0, 5, 10), v.ConfigView())

	v.SetConfigView(geom.NewRect(98, 0, 10, 10))
	assert.Equal(t, geom.NewRect(90, 0, 10, 10), v.ConfigView())

	v.SetConfigView(geom.NewRect(0, 0, 500, 10))
	assert.Equal(t, geom.NewRect(0, 0, 100, 10), v.ConfigView())

	v.SetConfigView(geom.NewRect(10, 0, 1, 10), MinWidth(0.5))
	assert.Equal(t, geom.NewRect(10, 0, 1, 10), v.ConfigView(), "override lowers the minimum width")

	v.SetConfigView(geom.NewRect(math.NaN(), 0, 1, 1))
	assert.Equal(t, geom.NewRect(10, 0, 1, 10), v.ConfigView(), "non-finite rects are ignored")
}

func TestZeroWidthConfigSpace(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 0, 3), Options{Mode: StretchToFit, MinWidth: 1})
	assert.Equal(t, 0.0, v.ConfigView().Width)
	assert.True(t, v.FromConfigView().IsFinite())
	assert.True(t, v.ToConfigView().IsFinite())

	p := v.ConfigViewCursor(geom.Pt(500, 100))
	assert.False(t, math.IsNaN(p.X) || math.IsInf(p.X, 0))

	v.TransformConfigView(ZoomAt(p, 0.5))
	assert.True(t, v.ConfigView().IsFinite())
}

func TestMatricesRoundTrip(t *testing.T) {
	for _, inverted := range []bool{false, true} {
		v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit, Inverted: inverted})
		v.SetConfigView(geom.NewRect(25, 0, 50, 10))

		origin := v.FromConfigView().Transform(geom.Pt(25, 0))
		if inverted {
			assert.Equal(t, geom.Pt(0, 400), origin)
		} else {
			assert.Equal(t, geom.Pt(0, 0), origin)
		}

		// The middle of the canvas, in logical pixels, is the middle of the config view.
		c := v.ConfigViewCursor(geom.Pt(500, 100))
		assert.InDelta(t, 50, c.X, 1e-9)
		assert.InDelta(t, 5, c.Y, 1e-9)

		s := v.ConfigSpaceCursor(geom.Pt(500, 100))
		assert.InDelta(t, 50, s.X, 1e-9)
	}
}

func TestZoomAndPan(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit, MinWidth: 1})

	// Zoom in around the left quarter of the canvas.
	v.TransformConfigView(v.ZoomAtCursor(geom.Pt(250, 0), 0.5))
	assert.InDelta(t, 12.5, v.ConfigView().X, 1e-9)
	assert.InDelta(t, 50, v.ConfigView().Width, 1e-9)

	// 2000 physical pixels show 50 units, so 400 pixels are 10 units.
	v.TransformConfigView(v.PanBy(geom.Pt(400, 0)))
	assert.InDelta(t, 22.5, v.ConfigView().X, 1e-9)

	v.TransformConfigView(v.PanBy(geom.Pt(1e6, 0)))
	assert.InDelta(t, 50, v.ConfigView().X, 1e-9, "panning stops at the end of config space")

	v.TransformConfigView(ZoomAt(geom.Pt(60, 0), 1e-9))
	assert.Equal(t, 1.0, v.ConfigView().Width, "zoom stops at the minimum width")
}

func TestZoomToRect(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 40), Options{Mode: AnchorTop, BarHeight: 20})
	v.SetConfigView(geom.NewRect(0, 0, 50, 10))

	exact := v.ZoomToRect(geom.NewRect(10, 2, 5, 1), ZoomExact)
	assert.Equal(t, geom.NewRect(10, 0, 5, 10), exact)

	visible := v.ZoomToRect(geom.NewRect(10, 2, 5, 1), ZoomMin)
	assert.Equal(t, geom.NewRect(0, 0, 50, 10), visible, "visible targets don't move the view")

	shifted := v.ZoomToRect(geom.NewRect(60, 30, 5, 1), ZoomMin)
	assert.Equal(t, 15.0, shifted.X)
	assert.Equal(t, 50.0, shifted.Width)
	assert.Equal(t, 25.5, shifted.Y, "rows outside the view are centered")
}

func TestResizeKeepsXRange(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 40), Options{Mode: AnchorTop, BarHeight: 20})
	v.SetConfigView(geom.NewRect(30, 5, 20, 10))

	c := canvas.New(500, 400, unit.Metric{PxPerDp: 1})
	v.ResizeConfigSpace(c)
	assert.Equal(t, geom.NewRect(30, 5, 20, 20), v.ConfigView())
}

func TestSetModelResets(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit})
	v.SetConfigView(geom.NewRect(10, 0, 10, 10))
	v.Remember()

	v.SetModel(rectModel(geom.NewRect(0, 0, 5, 5)))
	assert.Equal(t, geom.NewRect(0, 0, 5, 5), v.ConfigView())
	assert.Equal(t, 0, v.HistoryLen())
}

func TestHistory(t *testing.T) {
	v := newTestView(geom.NewRect(0, 0, 100, 10), Options{Mode: StretchToFit})
	v.Remember()
	v.Remember()
	assert.Equal(t, 1, v.HistoryLen(), "duplicates are not recorded")

	v.SetConfigView(geom.NewRect(10, 0, 10, 10))
	got, ok := v.Undo()
	require.True(t, ok)
	assert.Equal(t, v.ConfigSpace(), got)

	_, ok = v.Undo()
	assert.False(t, ok)

	for i := 0; i < maxHistoryEntries+10; i++ {
		v.SetConfigView(geom.NewRect(float64(i%90), 0, 10, 10))
		v.Remember()
	}
	assert.Equal(t, maxHistoryEntries, v.HistoryLen())
}

func TestAnimation(t *testing.T) {
	var anim Animation
	start := time.Unix(0, 0)
	from := geom.NewRect(0, 0, 100, 10)
	to := geom.NewRect(50, 0, 10, 10)
	anim.Begin(start, from, to, time.Second, EaseIn(1))

	mid, active := anim.Value(start.Add(500 * time.Millisecond))
	assert.True(t, active)
	assert.InDelta(t, 25, mid.X, 1e-9)
	assert.InDelta(t, 55, mid.Width, 1e-9)

	end, active := anim.Value(start.Add(2 * time.Second))
	assert.False(t, active)
	assert.Equal(t, to, end)
	assert.True(t, anim.Done())
}

func TestEasing(t *testing.T) {
	for _, ease := range []EasingFunction{EaseBezier, EaseIn(2), EaseIn(3), EaseOut(2), EaseOut(4), EaseOut(5)} {
		assert.InDelta(t, 0, ease(0), 1e-12)
		assert.InDelta(t, 1, ease(1), 1e-12)
	}
	assert.Less(t, EaseFor(geom.NewRect(0, 0, 10, 1), geom.NewRect(0, 0, 5, 1))(0.5), 1.0)
}
