package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildsystem/server/internal/core/event"
	"github.com/buildsystem/server/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM running the world lifecycle hooks.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	// Announce receives the string a hook returns, if any.
	Announce func(msg string)
}

// NewEngine creates a Lua engine and loads all scripts from scriptsDir/world.
// A missing directory leaves every hook undefined.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("log_info", vm.NewFunction(e.luaLogInfo))
	vm.SetGlobal("STATUS", e.statusNames())

	if err := e.loadDir(filepath.Join(scriptsDir, "world")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load world scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Subscribe wires the hooks to bus. Handlers run during event dispatch.
func (e *Engine) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, e.OnWorldImported)
	event.Subscribe(bus, e.OnWorldUnimported)
	event.Subscribe(bus, e.OnStatusChanged)
}

// OnWorldImported calls on_world_imported(world).
func (e *Engine) OnWorldImported(ev event.WorldImported) {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ev.Name))
	t.RawSetString("generator", lua.LString(string(ev.Generator)))
	t.RawSetString("builder", lua.LString(ev.Builder.Name))
	e.callHook("on_world_imported", t)
}

// OnWorldUnimported calls on_world_unimported(world).
func (e *Engine) OnWorldUnimported(ev event.WorldUnimported) {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ev.Name))
	t.RawSetString("data_deleted", lua.LBool(ev.DataDeleted))
	e.callHook("on_world_unimported", t)
}

// OnStatusChanged calls on_status_changed(world) with from/to status names
// and stages.
func (e *Engine) OnStatusChanged(ev event.WorldStatusChanged) {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ev.Name))
	t.RawSetString("from", lua.LString(ev.From.String()))
	t.RawSetString("to", lua.LString(ev.To.String()))
	t.RawSetString("from_stage", lua.LNumber(ev.From.Stage()))
	t.RawSetString("to_stage", lua.LNumber(ev.To.Stage()))
	e.callHook("on_status_changed", t)
}

// HasHook reports whether a global Lua function named name is defined.
func (e *Engine) HasHook(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// callHook calls an optional global hook. A string return value is passed
// to Announce.
func (e *Engine) callHook(name string, arg lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if s, ok := ret.(lua.LString); ok && s != "" && e.Announce != nil {
		e.Announce(string(s))
	}
}

func (e *Engine) luaLogInfo(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// statusNames exposes the status table to scripts as STATUS[name] = stage.
func (e *Engine) statusNames() *lua.LTable {
	t := e.vm.NewTable()
	for _, s := range world.AllStatuses() {
		t.RawSetString(s.String(), lua.LNumber(s.Stage()))
	}
	return t
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
