package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: deliver last tick's events
	PhaseUpdate               // 1: refresh derived world state (residency)
	PhasePersist              // 2: flush dirty worlds and queued deletes
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
