package scripting

import (
	"testing"
	"testing/fstest"

	"github.com/phanxgames/stagehand"
)

func newActor(t *testing.T) *stagehand.Actor {
	t.Helper()
	ctx := stagehand.NewContext(nil)
	a := stagehand.NewActor()
	a.SetID("hero")
	ctx.Scenes.Overlay().Add(a)
	return a
}

func TestEngine_DoStringAndHas(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()

	if err := eng.DoString(`move = {} function move.script(self) end`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if !eng.Has("move") {
		t.Error("Has(move) = false, want true")
	}
	if eng.Has("missing") {
		t.Error("Has(missing) = true, want false")
	}
	if err := eng.DoString(`this is not lua`); err == nil {
		t.Error("DoString with bad source returned nil error")
	}
}

func TestEngine_LoadFS(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()

	fsys := fstest.MapFS{
		"scripts/a.lua":    {Data: []byte(`function a() end`)},
		"scripts/b.lua":    {Data: []byte(`b = { script = function(self) end }`)},
		"scripts/note.txt": {Data: []byte(`not lua`)},
	}
	if err := eng.LoadFS(fsys, "scripts"); err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if !eng.Has("a") || !eng.Has("b") {
		t.Error("behaviors from scripts/ not defined")
	}
	if err := eng.LoadFS(fsys, "nothing"); err != nil {
		t.Errorf("LoadFS(missing dir) = %v, want nil", err)
	}
}

func TestScript_MovesActorUntilTruthy(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	err := eng.DoString(`
walk = {}
function walk.script(self)
	self.x = self.x + 2
	return self.x >= 6
end`)
	if err != nil {
		t.Fatal(err)
	}

	a := newActor(t)
	s := NewScript(eng, "walk")
	a.Recite(s)

	for i := 0; i < 3; i++ {
		a.Run()
	}
	if a.X != 6 {
		t.Errorf("X = %v, want 6", a.X)
	}
	if !s.Finished() {
		t.Error("script not finished after truthy return")
	}
	if a.NumScripts() != 0 {
		t.Errorf("NumScripts = %d, want 0", a.NumScripts())
	}
}

func TestScript_PrepareAndFields(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	err := eng.DoString(`
fade = {}
function fade.prepare(self)
	self.alpha = 0.5
	self.visible = false
end
function fade.script(self)
	self.depth = 3
	return true
end`)
	if err != nil {
		t.Fatal(err)
	}

	a := newActor(t)
	a.Recite(NewScript(eng, "fade"))
	if a.Alpha != 0.5 || a.Visible {
		t.Errorf("after prepare Alpha=%v Visible=%v, want 0.5 false", a.Alpha, a.Visible)
	}
	a.Run()
	if a.Depth != 3 {
		t.Errorf("Depth = %d, want 3", a.Depth)
	}
}

func TestScript_BareFunction(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	if err := eng.DoString(`function spin(self) self.angle = self.angle + 90 end`); err != nil {
		t.Fatal(err)
	}
	a := newActor(t)
	s := NewScript(eng, "spin")
	a.Recite(s)
	a.Run()
	a.Run()
	if a.Angle != 180 {
		t.Errorf("Angle = %v, want 180", a.Angle)
	}
	if s.Finished() {
		t.Error("nil return finished the script")
	}
}

func TestScript_ErrorFinishes(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	if err := eng.DoString(`boom = { script = function(self) error("bad") end }`); err != nil {
		t.Fatal(err)
	}
	a := newActor(t)
	s := NewScript(eng, "boom")
	a.Recite(s)
	a.Run()
	if !s.Finished() {
		t.Error("script not finished after a Lua error")
	}
}

func TestScript_MissingBehaviorFinishes(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	a := newActor(t)
	s := NewScript(eng, "ghost")
	a.Recite(s)
	a.Run()
	if !s.Finished() {
		t.Error("script with no behavior did not finish")
	}
}

func TestScript_Cancel(t *testing.T) {
	eng := NewEngine(nil)
	defer eng.Close()
	err := eng.DoString(`
idle = {}
function idle.script(self) end
function idle.cancel(self) self.x = -1 end`)
	if err != nil {
		t.Fatal(err)
	}
	a := newActor(t)
	a.Recite(NewScript(eng, "idle"))
	a.CancelScripts()
	if a.X != -1 {
		t.Errorf("X = %v, want -1 after cancel", a.X)
	}
}
