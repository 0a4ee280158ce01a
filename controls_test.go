package stagehand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestControlAggregatesKeys(t *testing.T) {
	im := NewInputManager()
	cs := NewControlScheme(im, nil)
	cs.AddKey("jump", ebiten.KeySpace)
	cs.AddKey("jump", ebiten.KeyW)

	im.Keyboard.Press(ebiten.KeyW)
	cs.Run()
	if !cs.IsDown("jump") || !cs.JustDown("jump") {
		t.Error("control not down when one of its keys is")
	}

	im.Manage()
	cs.Run()
	if cs.JustDown("jump") || !cs.IsDown("jump") {
		t.Error("justDown should clear while the key stays down")
	}

	im.Keyboard.Release(ebiten.KeyW)
	cs.Run()
	if cs.IsDown("jump") || !cs.JustUp("jump") || !cs.Tapped("jump") {
		t.Error("release not reflected in control")
	}
}

func TestControlUnknownID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cs := NewControlScheme(NewInputManager(), zap.New(core))
	if cs.IsDown("nope") || cs.JustDown("nope") || cs.Held("nope") || cs.Activated("nope") {
		t.Error("unknown control reported active")
	}
	missing := logs.FilterMessage("control not found")
	if missing.Len() != 4 {
		t.Errorf("control not found logged %d times, want 4", missing.Len())
	}
	if id := missing.All()[0].ContextMap()["id"]; id != "nope" {
		t.Errorf("logged id = %v, want nope", id)
	}
	if cs.Get("nope") != nil {
		t.Error("Get(nope) should be nil")
	}
}

func TestControlSetAndRemoveKey(t *testing.T) {
	im := NewInputManager()
	cs := NewControlScheme(im, nil)
	c := cs.AddKey("fire", ebiten.KeyZ)
	cs.AddKey("fire", ebiten.KeyZ)
	if len(c.Keys()) != 1 {
		t.Errorf("duplicate binding added: %d keys", len(c.Keys()))
	}
	cs.SetKey("fire", ebiten.KeyX)
	if len(c.Keys()) != 1 || c.Keys()[0].Code != ebiten.KeyX {
		t.Error("SetKey did not replace bindings")
	}
	if !c.RemoveKey(im.Keyboard.Get(ebiten.KeyX)) || len(c.Keys()) != 0 {
		t.Error("RemoveKey failed")
	}
	if cs.NewControl("fire") != c {
		t.Error("NewControl on existing id returned a new control")
	}
}

func TestControlBindings(t *testing.T) {
	data := []byte("up: [ArrowUp, W]\nfire: [Space]\n")
	b, err := ParseControlBindings(data)
	if err != nil {
		t.Fatalf("ParseControlBindings: %v", err)
	}
	im := NewInputManager()
	cs := NewControlScheme(im, nil)
	if err := b.Apply(cs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := len(cs.Get("up").Keys()); n != 2 {
		t.Errorf("up has %d keys, want 2", n)
	}
	im.Keyboard.Press(ebiten.KeySpace)
	cs.Run()
	if !cs.IsDown("fire") {
		t.Error("fire not bound to Space")
	}

	bad := ControlBindings{"x": {"NotAKey"}}
	if err := bad.Apply(cs); err == nil {
		t.Error("unknown key name should fail")
	}
}

func TestLoadControlBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.yaml")
	if err := os.WriteFile(path, []byte("left: [ArrowLeft, A]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cs := NewControlScheme(NewInputManager(), nil)
	if err := cs.LoadControlBindings(path); err != nil {
		t.Fatalf("LoadControlBindings: %v", err)
	}
	if cs.Get("left") == nil {
		t.Error("left control not created")
	}
	if err := cs.LoadControlBindings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
