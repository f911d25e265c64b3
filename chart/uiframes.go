package chart

import (
	"fmt"
	"time"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/exp/slices"
)

// FrozenFrameThreshold is the render time at which a frame counts as frozen rather than slow.
const FrozenFrameThreshold = 700 * time.Millisecond

type FrameKind uint8

const (
	SlowFrame FrameKind = iota
	FrozenFrame
)

func (k FrameKind) String() string {
	switch k {
	case SlowFrame:
		return "slow"
	case FrozenFrame:
		return "frozen"
	default:
		return fmt.Sprintf("FrameKind(%d)", uint8(k))
	}
}

type UIFrame struct {
	Start, End time.Duration
	Kind       FrameKind
}

func (f UIFrame) Duration() time.Duration { return f.End - f.Start }

// UIFrames are the slow and frozen frames of a profile. In config space, x is nanoseconds since the start of the
// profile and there's a single row.
type UIFrames struct {
	Frames   []UIFrame
	Duration time.Duration
}

// NewUIFrames collects UI frames from the slow and frozen frame series. Each sample marks the end of a frame and its
// value is the frame's render time in nanoseconds.
func NewUIFrames(m Measurements, duration time.Duration) *UIFrames {
	u := &UIFrames{Duration: max(duration, 0)}
	for _, name := range []string{SlowFrames, FrozenFrames} {
		for _, s := range m[name].Values {
			d := time.Duration(s.Value)
			if d <= 0 {
				continue
			}
			kind := SlowFrame
			if d >= FrozenFrameThreshold {
				kind = FrozenFrame
			}
			u.Frames = append(u.Frames, UIFrame{Start: max(s.Elapsed-d, 0), End: s.Elapsed, Kind: kind})
		}
	}
	slices.SortFunc(u.Frames, func(a, b UIFrame) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return int(a.Kind) - int(b.Kind)
		}
	})
	// A frame reported in both series is kept once.
	u.Frames = slices.Compact(u.Frames)
	return u
}

func (u *UIFrames) ConfigSpace() geom.Rect {
	return geom.NewRect(0, 0, float64(u.Duration), 1)
}

// FramesAt returns the frames that contain x nanoseconds.
func (u *UIFrames) FramesAt(x float64) []UIFrame {
	var out []UIFrame
	for _, f := range u.Frames {
		if float64(f.Start) > x {
			break
		}
		if x < float64(f.End) {
			out = append(out, f)
		}
	}
	return out
}

// Counts returns the number of slow and frozen frames.
func (u *UIFrames) Counts() (slow, frozen int) {
	for _, f := range u.Frames {
		switch f.Kind {
		case SlowFrame:
			slow++
		case FrozenFrame:
			frozen++
		default:
			panic(fmt.Sprintf("unhandled frame kind %s", f.Kind))
		}
	}
	return slow, frozen
}
