package system

import (
	"context"
	"time"

	"github.com/buildsystem/server/internal/core/event"
	coresys "github.com/buildsystem/server/internal/core/system"
	"github.com/buildsystem/server/internal/persist"
	"go.uber.org/zap"
)

// historyBufferLimit bounds the entries held while the store is failing.
// The oldest entries are dropped first.
const historyBufferLimit = 4096

// HistoryWriter appends audit entries in one batch.
type HistoryWriter interface {
	Write(ctx context.Context, entries []persist.HistoryEntry) error
}

// HistorySystem records world lifecycle events in the audit log. Entries are
// buffered and written in one transaction per interval. Phase 2 (Persist).
type HistorySystem struct {
	writer   HistoryWriter
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration
	buf      []persist.HistoryEntry
	dropped  int
}

func NewHistorySystem(writer HistoryWriter, bus *event.Bus, interval time.Duration, log *zap.Logger) *HistorySystem {
	s := &HistorySystem{writer: writer, log: log, interval: interval}
	event.Subscribe(bus, func(e event.WorldImported) {
		s.add("import", e.Name, "generator="+string(e.Generator)+" builder="+e.Builder.Name)
	})
	event.Subscribe(bus, func(e event.WorldUnimported) {
		detail := "kept data"
		if e.DataDeleted {
			detail = "deleted data"
		}
		s.add("unimport", e.Name, detail)
	})
	event.Subscribe(bus, func(e event.WorldStatusChanged) {
		s.add("status", e.Name, e.From.String()+" -> "+e.To.String())
	})
	return s
}

func (s *HistorySystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *HistorySystem) add(kind, world, detail string) {
	if len(s.buf) >= historyBufferLimit {
		n := copy(s.buf, s.buf[1:])
		s.buf = s.buf[:n]
		s.dropped++
	}
	s.buf = append(s.buf, persist.HistoryEntry{Kind: kind, World: world, Detail: detail})
}

func (s *HistorySystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

// Flush writes all buffered entries. On failure they stay buffered, up to
// historyBufferLimit.
func (s *HistorySystem) Flush() {
	if s.dropped > 0 {
		s.log.Warn("world history buffer full, oldest entries dropped", zap.Int("dropped", s.dropped))
		s.dropped = 0
	}
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.writer.Write(ctx, s.buf); err != nil {
		s.log.Error("write world history", zap.Int("entries", len(s.buf)), zap.Error(err))
		return
	}
	s.buf = s.buf[:0]
}
