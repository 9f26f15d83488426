package system

import (
	"time"

	coresys "github.com/buildsystem/server/internal/core/system"
	"github.com/buildsystem/server/internal/host"
	"github.com/buildsystem/server/internal/world"
)

// ResidencySystem mirrors host residency into each world's Loaded flag.
// Phase 1 (Update).
type ResidencySystem struct {
	registry *world.Registry
	host     host.Provider
	interval time.Duration
	elapsed  time.Duration
}

func NewResidencySystem(reg *world.Registry, hp host.Provider, interval time.Duration) *ResidencySystem {
	return &ResidencySystem{registry: reg, host: hp, interval: interval}
}

func (s *ResidencySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ResidencySystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Refresh()
}

// Refresh updates every world now.
func (s *ResidencySystem) Refresh() {
	for _, w := range s.registry.List() {
		w.SetLoaded(s.host.IsWorldResident(w.Name()))
	}
}
