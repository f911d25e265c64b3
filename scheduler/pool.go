package scheduler

import "golang.org/x/exp/slices"

// CanvasPoolManager fans events and draw requests out to several schedulers, e.g. one per canvas of a page. Toolbar
// controls dispatch through it without knowing which canvases exist.
type CanvasPoolManager struct {
	schedulers []*CanvasScheduler
}

func NewPool() *CanvasPoolManager { return &CanvasPoolManager{} }

func (p *CanvasPoolManager) Bind(s *CanvasScheduler) {
	if !slices.Contains(p.schedulers, s) {
		p.schedulers = append(p.schedulers, s)
	}
}

func (p *CanvasPoolManager) Unbind(s *CanvasScheduler) {
	p.schedulers = slices.DeleteFunc(p.schedulers, func(o *CanvasScheduler) bool { return o == s })
}

func (p *CanvasPoolManager) Dispatch(ev Event, src Source) {
	for _, s := range slices.Clone(p.schedulers) {
		s.Dispatch(ev, src)
	}
}

func (p *CanvasPoolManager) Draw() {
	for _, s := range p.schedulers {
		s.Draw()
	}
}

func (p *CanvasPoolManager) DrawSync() {
	for _, s := range p.schedulers {
		s.DrawSync()
	}
}

// Dispose disposes of all bound schedulers and unbinds them.
func (p *CanvasPoolManager) Dispose() {
	for _, s := range p.schedulers {
		s.Dispose()
	}
	p.schedulers = nil
}
