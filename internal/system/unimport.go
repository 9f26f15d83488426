package system

import (
	"context"
	"fmt"

	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/host"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// Unimporter removes worlds from the registry.
type Unimporter struct {
	registry *world.Registry
	host     host.Provider
	bus      *event.Bus
	log      *zap.Logger
}

func NewUnimporter(reg *world.Registry, hp host.Provider, bus *event.Bus, log *zap.Logger) *Unimporter {
	return &Unimporter{registry: reg, host: hp, bus: bus, log: log}
}

// Unimport removes name from the registry and, if deleteData is set, asks the
// host to delete the world folder. Removal is final: a failed deletion is
// returned as ErrDataDeletion but the world stays unregistered.
func (u *Unimporter) Unimport(_ context.Context, name string, deleteData bool) error {
	w := u.registry.Remove(name)
	if w == nil {
		return fmt.Errorf("%w: %s", world.ErrUnknownWorld, name)
	}
	u.log.Info("world unimported", zap.String("world", name), zap.Bool("delete_data", deleteData))

	var deleteErr error
	deleted := false
	if deleteData {
		if err := u.host.DeleteWorldData(name); err != nil {
			u.log.Error("delete world data", zap.String("world", name), zap.Error(err))
			deleteErr = fmt.Errorf("%w: %s: %v", ErrDataDeletion, name, err)
		} else {
			deleted = true
		}
	}
	event.Emit(u.bus, event.WorldUnimported{Name: name, DataDeleted: deleted})
	return deleteErr
}
