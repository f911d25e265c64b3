// Package chart models the measurement series recorded alongside a profile, such as CPU usage, memory footprint and
// battery drain, and the slow and frozen UI frames.
package chart

import (
	"math"
	"sort"
	"time"

	"github.com/spanlens/spanlens/geom"

	"golang.org/x/exp/slices"
	"honnef.co/go/stuff/math/mathutil"
)

// Well-known series.
const (
	CPUUsage        = "cpu_usage"
	MemoryFootprint = "memory_footprint"
	CPUEnergyUsage  = "cpu_energy_usage"
	SlowFrames      = "slow_frame_renders"
	FrozenFrames    = "frozen_frame_renders"
)

type Sample struct {
	// Elapsed is the time since the start of the profile.
	Elapsed time.Duration
	Value   float64
}

type Measurement struct {
	Unit   string
	Values []Sample
}

type Measurements map[string]Measurement

// Names returns the names of all measurements, sorted.
func (m Measurements) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type Series struct {
	Name   string
	Unit   string
	Values []Sample
	Max    float64
}

// Chart plots one or more series over the duration of a profile. In config space, x is nanoseconds since the start
// of the profile and y is the series value.
type Chart struct {
	Series   []Series
	Duration time.Duration
	Max      float64
}

// New builds a chart of the named series that exist in m. With no names, all series except UI frames are used.
func New(m Measurements, duration time.Duration, names ...string) *Chart {
	if len(names) == 0 {
		for _, n := range m.Names() {
			if n != SlowFrames && n != FrozenFrames {
				names = append(names, n)
			}
		}
	}
	c := &Chart{Duration: max(duration, 0)}
	for _, name := range names {
		meas, ok := m[name]
		if !ok {
			continue
		}
		s := Series{Name: name, Unit: meas.Unit, Values: slices.Clone(meas.Values)}
		slices.SortStableFunc(s.Values, func(a, b Sample) int {
			switch {
			case a.Elapsed < b.Elapsed:
				return -1
			case a.Elapsed > b.Elapsed:
				return 1
			default:
				return 0
			}
		})
		for _, v := range s.Values {
			if !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0) {
				s.Max = max(s.Max, v.Value)
			}
		}
		c.Max = max(c.Max, s.Max)
		c.Series = append(c.Series, s)
	}
	return c
}

func (c *Chart) ConfigSpace() geom.Rect {
	return geom.NewRect(0, 0, float64(c.Duration), max(c.Max, 1))
}

// ValueAt interpolates series i at x nanoseconds. Outside the recorded range it returns the nearest sample. It
// returns false if the series has no samples.
func (c *Chart) ValueAt(i int, x float64) (float64, bool) {
	if i < 0 || i >= len(c.Series) {
		return 0, false
	}
	vals := c.Series[i].Values
	if len(vals) == 0 {
		return 0, false
	}
	j, _ := slices.BinarySearchFunc(vals, x, func(s Sample, x float64) int {
		if float64(s.Elapsed) < x {
			return -1
		}
		return 1
	})
	switch {
	case j == 0:
		return vals[0].Value, true
	case j == len(vals):
		return vals[len(vals)-1].Value, true
	}
	a, b := vals[j-1], vals[j]
	t := geom.SafeDiv(x-float64(a.Elapsed), float64(b.Elapsed-a.Elapsed))
	return mathutil.Lerp(a.Value, b.Value, t), true
}

// Points returns series i in config space.
func (c *Chart) Points(i int) []geom.Point {
	if i < 0 || i >= len(c.Series) {
		return nil
	}
	vals := c.Series[i].Values
	pts := make([]geom.Point, len(vals))
	for j, v := range vals {
		pts[j] = geom.Pt(float64(v.Elapsed), v.Value)
	}
	return pts
}
