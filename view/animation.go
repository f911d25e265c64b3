package view

import (
	"math"
	"time"

	"github.com/spanlens/spanlens/geom"

	"honnef.co/go/stuff/math/mathutil"
)

type EasingFunction func(float64) float64

// Animation interpolates between two config views over time.
type Animation struct {
	From     geom.Rect
	To       geom.Rect
	Start    time.Time
	Duration time.Duration
	Ease     EasingFunction

	active bool
}

func (anim *Animation) Begin(now time.Time, from, to geom.Rect, d time.Duration, ease EasingFunction) {
	if ease == nil {
		ease = EaseBezier
	}
	anim.From = from
	anim.To = to
	anim.Start = now
	anim.Duration = d
	anim.Ease = ease
	anim.active = d > 0
}

// Value returns the interpolated rect at now and whether the animation is still running.
func (anim *Animation) Value(now time.Time) (geom.Rect, bool) {
	if !anim.active {
		return anim.To, false
	}
	d := now.Sub(anim.Start)
	if d >= anim.Duration {
		anim.active = false
		return anim.To, false
	}
	r := anim.Ease(float64(d) / float64(anim.Duration))
	return geom.Rect{
		X:      mathutil.Lerp(anim.From.X, anim.To.X, r),
		Y:      mathutil.Lerp(anim.From.Y, anim.To.Y, r),
		Width:  mathutil.Lerp(anim.From.Width, anim.To.Width, r),
		Height: mathutil.Lerp(anim.From.Height, anim.To.Height, r),
	}, true
}

func (anim *Animation) Cancel()    { anim.active = false }
func (anim *Animation) Done() bool { return !anim.active }

// EaseFor picks an easing function for animating from one config view to another: zooming in decelerates, zooming
// out accelerates.
func EaseFor(from, to geom.Rect) EasingFunction {
	if to.Width <= from.Width {
		return EaseOut(4)
	}
	return EaseIn(4)
}

func EaseIn(power int) EasingFunction {
	switch power {
	case 1:
		return func(r float64) float64 { return r }
	case 2:
		return func(r float64) float64 { return r * r }
	case 4:
		return func(r float64) float64 { return r * r * r * r }
	default:
		return func(r float64) float64 { return math.Pow(r, float64(power)) }
	}
}

func EaseOut(power int) EasingFunction {
	switch power {
	case 1:
		return func(r float64) float64 { return r }
	case 2:
		return func(r float64) float64 { r = 1 - r; return 1 - r*r }
	case 4:
		return func(r float64) float64 { r = 1 - r; return 1 - r*r*r*r }
	default:
		return func(r float64) float64 { return 1 - math.Pow(1-r, float64(power)) }
	}
}

func EaseBezier(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}
