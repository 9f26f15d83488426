package system

import (
	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// StatusEngine owns the status transition rules. The only automatic
// transition is NOT_STARTED → IN_PROGRESS on the first block change; every
// other change is an explicit SetStatus by a caller that already checked
// RequiredPermission.
type StatusEngine struct {
	bus *event.Bus
	log *zap.Logger
}

func NewStatusEngine(bus *event.Bus, log *zap.Logger) *StatusEngine {
	return &StatusEngine{bus: bus, log: log}
}

// CanModify reports whether blocks may be placed or broken in w.
func (e *StatusEngine) CanModify(w *world.BuildWorld) bool {
	return w.Status() != world.StatusArchive
}

// OnBlockModified is called by the host for every block place/break in w.
// It returns false when the change must be cancelled (archived world).
func (e *StatusEngine) OnBlockModified(w *world.BuildWorld) bool {
	if !e.CanModify(w) {
		return false
	}
	if w.CompareAndSetStatus(world.StatusNotStarted, world.StatusInProgress) {
		e.log.Debug("world started", zap.String("world", w.Name()))
		event.Emit(e.bus, event.WorldStatusChanged{
			Name: w.Name(),
			From: world.StatusNotStarted,
			To:   world.StatusInProgress,
		})
	}
	return true
}

// SetStatus moves w to s regardless of its current status and returns the
// previous one. Archived worlds can be reopened this way.
func (e *StatusEngine) SetStatus(w *world.BuildWorld, s world.Status) world.Status {
	old := w.SetStatus(s)
	if old != s {
		e.log.Info("world status set",
			zap.String("world", w.Name()),
			zap.Stringer("from", old),
			zap.Stringer("to", s))
		event.Emit(e.bus, event.WorldStatusChanged{Name: w.Name(), From: old, To: s})
	}
	return old
}

// RequiredPermission is the permission a caller must hold to set status s.
// It is not enforced here.
func (e *StatusEngine) RequiredPermission(s world.Status) string {
	return s.Permission()
}
