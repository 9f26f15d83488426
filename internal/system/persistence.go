package system

import (
	"context"
	"time"

	"github.com/buildsystem/server/internal/core/event"
	coresys "github.com/buildsystem/server/internal/core/system"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// WorldStore is the durable copy of the registry, keyed by world name.
type WorldStore interface {
	Save(ctx context.Context, rec world.Record) error
	Delete(ctx context.Context, name string) error
}

// PersistenceSystem periodically writes changed worlds to the store and
// removes unimported ones. Phase 2 (Persist). Tick goroutine only.
type PersistenceSystem struct {
	registry *world.Registry
	store    WorldStore
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration

	pendingDeletes []string
}

func NewPersistenceSystem(reg *world.Registry, store WorldStore, bus *event.Bus, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		registry: reg,
		store:    store,
		log:      log,
		interval: interval,
	}
	event.Subscribe(bus, func(e event.WorldUnimported) {
		s.pendingDeletes = append(s.pendingDeletes, e.Name)
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.flush(true)
}

// SaveAll writes every registered world immediately, ignoring dirty flags.
// Called on shutdown.
func (s *PersistenceSystem) SaveAll() {
	s.flush(false)
}

// flush applies queued deletes, then saves. A queued delete whose name has
// been imported again is dropped and the new world is written over the old
// row instead.
func (s *PersistenceSystem) flush(dirtyOnly bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	remaining := s.pendingDeletes[:0]
	for _, name := range s.pendingDeletes {
		if w := s.registry.Get(name); w != nil {
			w.MarkDirty()
			continue
		}
		if err := s.store.Delete(ctx, name); err != nil {
			s.log.Error("delete world row", zap.String("world", name), zap.Error(err))
			remaining = append(remaining, name)
		}
	}
	s.pendingDeletes = remaining

	saved := 0
	for _, w := range s.registry.List() {
		rec, ok := w.TakeDirty()
		if !ok {
			if dirtyOnly {
				continue // no change since last save
			}
			rec = w.Snapshot()
		}
		if err := s.store.Save(ctx, rec); err != nil {
			s.log.Error("save world", zap.String("world", rec.Name), zap.Error(err))
			w.MarkDirty()
			continue
		}
		saved++
	}
	if saved > 0 {
		s.log.Debug("worlds saved", zap.Int("count", saved))
	}
}
