// Package scripting runs actor behaviors written in Lua.
//
// A behavior is a global table holding a script function, and optionally
// prepare and cancel functions. Each receives a self table mirroring the
// actor's transform; changes to it are written back after the call.
//
//	spin = {}
//	function spin.script(self)
//		self.angle = self.angle + 6
//		return self.angle >= 360
//	end
//
// A bare global function is accepted as the script function.
package scripting

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM. It is driven from the game loop and
// is not safe for concurrent use.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a VM with the standard libraries, API_VERSION and a
// log(msg) function routed to log. A nil logger becomes a no-op logger.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log.Named("lua")}
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	return e
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

// DoString runs src in the VM.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// DoFile runs the Lua file at path.
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("scripting: load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// LoadFS runs every .lua file directly under dir in fsys, in name order.
// A missing directory is not an error.
func (e *Engine) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scripting: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.ToSlash(filepath.Join(dir, entry.Name()))
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("scripting: read %s: %w", path, err)
		}
		fn, err := e.vm.Load(bytes.NewReader(src), path)
		if err != nil {
			return fmt.Errorf("scripting: compile %s: %w", path, err)
		}
		if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("scripting: run %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a behavior named name is defined.
func (e *Engine) Has(name string) bool {
	switch e.vm.GetGlobal(name).(type) {
	case *lua.LTable, *lua.LFunction:
		return true
	}
	return false
}

// Close shuts the VM down. Scripts created from it must not run afterwards.
func (e *Engine) Close() {
	e.vm.Close()
}

// behavior resolves the named hook of a behavior, or nil.
func (e *Engine) behavior(name, hook string) *lua.LFunction {
	switch v := e.vm.GetGlobal(name).(type) {
	case *lua.LTable:
		fn, _ := v.RawGetString(hook).(*lua.LFunction)
		return fn
	case *lua.LFunction:
		if hook == "script" {
			return v
		}
	}
	return nil
}

// call invokes fn with self and returns its first result.
func (e *Engine) call(fn *lua.LFunction, self *lua.LTable) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, self); err != nil {
		return lua.LNil, err
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, nil
}
