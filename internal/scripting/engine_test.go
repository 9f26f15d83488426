package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const testHooks = `
imported = {}

function on_world_imported(w)
  table.insert(imported, w.name .. ":" .. w.generator .. ":" .. w.builder)
end

function on_status_changed(w)
  if w.to_stage == STATUS.FINISHED then
    return w.name .. " finished (was " .. w.from .. ")"
  end
end

function on_world_unimported(w)
  error("boom")
end
`

func newTestEngine(t *testing.T, script string) *Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "world"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world", "hooks.lua"), []byte(script), 0o644))
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngine_Hooks(t *testing.T) {
	e := newTestEngine(t, testHooks)
	var announced []string
	e.Announce = func(msg string) { announced = append(announced, msg) }

	bus := event.NewBus()
	e.Subscribe(bus)
	event.Emit(bus, event.WorldImported{Name: "spawn", Generator: world.GeneratorFlat, Builder: world.Builder{Name: "Alice"}})
	event.Emit(bus, event.WorldStatusChanged{Name: "spawn", From: world.StatusInProgress, To: world.StatusFinished})
	event.Emit(bus, event.WorldStatusChanged{Name: "spawn", From: world.StatusFinished, To: world.StatusHidden})
	event.Emit(bus, event.WorldUnimported{Name: "spawn"})
	bus.SwapBuffers()
	bus.DispatchAll()

	imported, ok := e.vm.GetGlobal("imported").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, "spawn:FLAT:Alice", imported.RawGetInt(1).String())
	assert.Equal(t, []string{"spawn finished (was IN_PROGRESS)"}, announced)
}

func TestEngine_MissingHooksAreSkipped(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.HasHook("on_world_imported"))
	assert.NotPanics(t, func() {
		e.OnWorldImported(event.WorldImported{Name: "w"})
	})
}

func TestEngine_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "world"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world", "bad.lua"), []byte("function ("), 0o644))

	_, err := NewEngine(dir, zap.NewNop())
	assert.ErrorContains(t, err, "load world scripts")
}
