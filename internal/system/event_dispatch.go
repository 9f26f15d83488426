package system

import (
	"time"

	"github.com/buildsystem/server/internal/core/event"
	coresys "github.com/buildsystem/server/internal/core/system"
)

// EventDispatchSystem delivers the events emitted during the previous tick.
// Phase 0 (Events).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
