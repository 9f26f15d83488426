package system

import (
	"slices"
	"sort"
	"time"
)

// Runner drives the registered systems once per tick, grouped by phase.
// Systems of the same phase run in registration order.
type Runner struct {
	phases map[Phase][]System
	order  []Phase
}

func NewRunner() *Runner {
	return &Runner{phases: make(map[Phase][]System)}
}

func (r *Runner) Register(s System) {
	p := s.Phase()
	if _, ok := r.phases[p]; !ok {
		i := sort.Search(len(r.order), func(i int) bool { return r.order[i] > p })
		r.order = slices.Insert(r.order, i, p)
	}
	r.phases[p] = append(r.phases[p], s)
}

func (r *Runner) Tick(dt time.Duration) {
	for _, p := range r.order {
		r.TickPhase(p, dt)
	}
}

// TickPhase runs only the systems of one phase. Used on shutdown to drain
// pending events before the final save.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}
