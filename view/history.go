package view

import "github.com/spanlens/spanlens/geom"

const maxHistoryEntries = 1024

// Remember records the current config view so that Undo can return to it.
func (v *View) Remember() {
	cur := v.configView
	if n := len(v.history); n > 0 && v.history[n-1].Equal(cur) {
		// don't record duplicate locations
		return
	}
	if len(v.history) == maxHistoryEntries {
		copy(v.history, v.history[1:])
		v.history[len(v.history)-1] = cur
	} else {
		v.history = append(v.history, cur)
	}
}

// Undo returns to the most recently remembered config view.
func (v *View) Undo() (geom.Rect, bool) {
	if len(v.history) == 0 {
		return geom.Rect{}, false
	}
	n := len(v.history) - 1
	e := v.history[n]
	v.history = v.history[:n]
	v.SetConfigView(e)
	return v.configView, true
}

func (v *View) HistoryLen() int { return len(v.history) }
