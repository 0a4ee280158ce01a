package stagehand

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
)

func TestLoadManagerPerStep(t *testing.T) {
	m := NewLoadManager(nil, nil)
	if m.Progress() != 1 || m.StillLoading() {
		t.Error("empty queue should be complete")
	}
	var order []string
	for _, k := range []string{"a", "b", "c"} {
		m.Func(k, func() error { order = append(order, k); return nil })
	}
	m.PerStep = 2

	m.Run()
	if len(order) != 2 || !m.StillLoading() {
		t.Errorf("after one step ran %v, StillLoading=%v", order, m.StillLoading())
	}
	m.Run()
	if len(order) != 3 || m.StillLoading() || m.Progress() != 1 {
		t.Errorf("after two steps ran %v", order)
	}
	if order[0] != "a" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestLoadManagerRunAll(t *testing.T) {
	m := NewLoadManager(nil, nil)
	n := 0
	for range 5 {
		m.Func("x", func() error { n++; return nil })
	}
	m.Run()
	if n != 5 || m.Len() != 5 {
		t.Errorf("ran %d of %d", n, m.Len())
	}
}

func TestLoadManagerCollectsErrors(t *testing.T) {
	m := NewLoadManager(nil, nil)
	errA, errB := errors.New("a"), errors.New("b")
	m.Func("a", func() error { return errA })
	m.Func("ok", func() error { return nil })
	m.Func("exists", func() error { return ErrAssetExists })
	m.Func("b", func() error { return errB })
	m.Run()

	err := m.Err()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("collected %d errors, want 2: %v", got, err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Err = %v, want both failures", err)
	}

	m.Reset()
	if m.Err() != nil || m.Len() != 0 || m.Progress() != 1 {
		t.Error("Reset left state behind")
	}
}

func TestLoadManagerSkipsLoadedKeys(t *testing.T) {
	l := newTestLoader(t)
	m := NewLoadManager(l, nil)
	m.Text("greeting", "hello.txt")
	m.Run()
	first := l.Get("greeting")

	m.Reset()
	m.Text("greeting", "lines.txt")
	m.LineByLine("lines", "lines.txt")
	m.JSON("data", "data.json")
	m.Run()

	if m.Err() != nil {
		t.Errorf("Err = %v", m.Err())
	}
	if l.Get("greeting") != first {
		t.Error("loaded key was reloaded")
	}
	if !l.Has("lines") || !l.Has("data") {
		t.Error("new keys not loaded")
	}
}

func TestLoadManagerReportsMissingFiles(t *testing.T) {
	l := newTestLoader(t)
	m := NewLoadManager(l, nil)
	m.Image("missing", "missing.png")
	m.Spritesheet("missing2", "missing.png", 8, 8)
	m.Font("f", "missing.ttf", 12)
	m.Run()
	if got := len(multierr.Errors(m.Err())); got != 3 {
		t.Errorf("collected %d errors, want 3", got)
	}
	if m.StillLoading() {
		t.Error("failures left tasks pending")
	}
}
