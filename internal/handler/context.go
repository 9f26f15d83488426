package handler

import (
	"context"

	"github.com/buildsystem/server/internal/data"
	"github.com/buildsystem/server/internal/host"
	"github.com/buildsystem/server/internal/identity"
	"github.com/buildsystem/server/internal/persist"
	"github.com/buildsystem/server/internal/system"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// Permissions checked by the command layer before calling into the systems.
const (
	PermImport    = "buildsystem.import"
	PermImportAll = "buildsystem.importall"
	PermUnimport  = "buildsystem.unimport"
)

// Sender is whoever issued a command: the console or a player.
type Sender interface {
	world.Viewer
	SendMessage(msg string)
}

// HistoryReader reads the world audit log.
type HistoryReader interface {
	Recent(ctx context.Context, world string, limit int) ([]persist.HistoryEntry, error)
}

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Registry   *world.Registry
	Importer   *system.Importer
	Unimporter *system.Unimporter
	Status     *system.StatusEngine
	Identity   *identity.Cache
	Messages   *data.MessageTable
	Host       host.Provider
	History    HistoryReader // nil when no audit log is kept
	Log        *zap.Logger

	// Async runs work that may block on the identity service or the
	// filesystem off the tick goroutine.
	Async func(fn func())
}

func (d *Deps) async(fn func()) {
	if d.Async == nil {
		fn()
		return
	}
	d.Async(fn)
}

func (d *Deps) msg(s Sender, key string, kv ...string) {
	s.SendMessage(d.Messages.Prefixed(key, kv...))
}
