package scripting

import (
	"github.com/phanxgames/stagehand"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Script is a stagehand script driven by a Lua behavior.
type Script struct {
	stagehand.Behavior

	// Name is the global the behavior is defined under.
	Name string

	engine *Engine
	self   *lua.LTable
}

// NewScript returns a script running the behavior name. It finishes
// immediately if the behavior has no script function.
func NewScript(engine *Engine, name string) *Script {
	s := &Script{Name: name, engine: engine}
	s.ID = "lua:" + name
	s.DeleteOnFinish = true
	return s
}

// Self returns the table passed to the behavior, or nil before the first call.
func (s *Script) Self() *lua.LTable { return s.self }

func (s *Script) Prepare() {
	if fn := s.engine.behavior(s.Name, "prepare"); fn != nil {
		s.invoke(fn)
	}
}

func (s *Script) Advance() {
	fn := s.engine.behavior(s.Name, "script")
	if fn == nil {
		s.engine.log.Warn("lua behavior missing", zap.String("name", s.Name))
		s.Finish()
		return
	}
	if ret, ok := s.invoke(fn); ok && lua.LVAsBool(ret) {
		s.Finish()
	}
}

func (s *Script) Cancel() {
	if fn := s.engine.behavior(s.Name, "cancel"); fn != nil {
		s.invoke(fn)
	}
}

// invoke pushes the entity into self, calls fn and pulls self back. Errors
// are logged and finish the script.
func (s *Script) invoke(fn *lua.LFunction) (lua.LValue, bool) {
	e := s.Entity()
	if e == nil {
		return lua.LNil, false
	}
	if s.self == nil {
		s.self = s.engine.vm.NewTable()
	}
	push(s.self, e)
	ret, err := s.engine.call(fn, s.self)
	if err != nil {
		s.engine.log.Error("lua behavior error",
			zap.String("name", s.Name), zap.String("entity", e.ID), zap.Error(err))
		s.Finish()
		return lua.LNil, false
	}
	pull(s.self, e)
	return ret, true
}

func push(t *lua.LTable, e *stagehand.Entity) {
	t.RawSetString("id", lua.LString(e.ID))
	t.RawSetString("x", lua.LNumber(e.X))
	t.RawSetString("y", lua.LNumber(e.Y))
	t.RawSetString("scale_x", lua.LNumber(e.ScaleX))
	t.RawSetString("scale_y", lua.LNumber(e.ScaleY))
	t.RawSetString("angle", lua.LNumber(e.Angle))
	t.RawSetString("alpha", lua.LNumber(e.Alpha))
	t.RawSetString("depth", lua.LNumber(e.Depth))
	t.RawSetString("visible", lua.LBool(e.Visible))
}

func pull(t *lua.LTable, e *stagehand.Entity) {
	e.X = number(t, "x", e.X)
	e.Y = number(t, "y", e.Y)
	e.ScaleX = number(t, "scale_x", e.ScaleX)
	e.ScaleY = number(t, "scale_y", e.ScaleY)
	e.Angle = number(t, "angle", e.Angle)
	e.Alpha = number(t, "alpha", e.Alpha)
	e.Depth = int(number(t, "depth", float64(e.Depth)))
	if v, ok := t.RawGetString("visible").(lua.LBool); ok {
		e.Visible = bool(v)
	}
}

func number(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}
