package system

import (
	"context"
	"testing"

	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnimport(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown world", func(t *testing.T) {
		u := NewUnimporter(world.NewRegistry(), newFakeHost(), nil, zap.NewNop())
		err := u.Unimport(ctx, "ghost", false)
		assert.ErrorIs(t, err, world.ErrUnknownWorld)
	})

	t.Run("keep data", func(t *testing.T) {
		reg := world.NewRegistry()
		hp := newFakeHost().add("spawn", folder{marker: true})
		require.NoError(t, reg.Register(newWorld("spawn")))
		u := NewUnimporter(reg, hp, nil, zap.NewNop())

		require.NoError(t, u.Unimport(ctx, "spawn", false))
		assert.False(t, reg.Contains("spawn"))
		assert.True(t, hp.WorldFolderExists("spawn"))
		assert.Empty(t, hp.deleted)
	})

	t.Run("delete data", func(t *testing.T) {
		reg := world.NewRegistry()
		hp := newFakeHost().add("spawn", folder{marker: true})
		require.NoError(t, reg.Register(newWorld("spawn")))
		bus := event.NewBus()
		var got []event.WorldUnimported
		event.Subscribe(bus, func(e event.WorldUnimported) { got = append(got, e) })
		u := NewUnimporter(reg, hp, bus, zap.NewNop())

		require.NoError(t, u.Unimport(ctx, "spawn", true))
		assert.False(t, reg.Contains("spawn"))
		assert.Equal(t, []string{"spawn"}, hp.deleted)

		bus.SwapBuffers()
		bus.DispatchAll()
		assert.Equal(t, []event.WorldUnimported{{Name: "spawn", DataDeleted: true}}, got)
	})

	t.Run("deletion failure still unregisters", func(t *testing.T) {
		reg := world.NewRegistry()
		hp := newFakeHost().add("spawn", folder{marker: true})
		hp.deleteErr = errBoom
		require.NoError(t, reg.Register(newWorld("spawn")))
		u := NewUnimporter(reg, hp, nil, zap.NewNop())

		err := u.Unimport(ctx, "spawn", true)
		assert.ErrorIs(t, err, ErrDataDeletion)
		assert.False(t, reg.Contains("spawn"))
		assert.True(t, hp.WorldFolderExists("spawn"))
	})

	t.Run("unimport then import again", func(t *testing.T) {
		reg := world.NewRegistry()
		hp := newFakeHost().add("spawn", folder{marker: true})
		im := NewImporter(reg, hp, &fakeResolver{}, nil, "", zap.NewNop())
		u := NewUnimporter(reg, hp, nil, zap.NewNop())

		_, err := im.ImportOne(ctx, "spawn", ImportOptions{})
		require.NoError(t, err)
		require.NoError(t, u.Unimport(ctx, "spawn", false))
		_, err = im.ImportOne(ctx, "spawn", ImportOptions{Generator: "flat"})
		require.NoError(t, err)
		assert.Equal(t, world.GeneratorFlat, reg.Get("spawn").Generator())
	})
}
