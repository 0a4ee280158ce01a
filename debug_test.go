package stagehand

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBreakGamePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("BreakGame did not panic")
		}
		if s, _ := r.(string); !strings.Contains(s, "corrupt tree") {
			t.Errorf("panic = %v, want message", r)
		}
	}()
	BreakGame("corrupt tree")
}

func TestDebugAddToDestroyedParentPanics(t *testing.T) {
	ctx, root := newTestRoot()
	ctx.Debug = true
	parent := NewEntity()
	root.Add(parent)
	parent.Destroy(true)
	defer func() {
		if recover() == nil {
			t.Error("debug Add on a destroyed parent did not panic")
		}
	}()
	parent.Add(NewEntity())
}

func TestDebugTreeDepthWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	e := NewEntity()
	for range debugMaxTreeDepth + 1 {
		p := NewEntity()
		p.children = append(p.children, e)
		e.parent = p
		e = p
	}
	leaf := e
	for len(leaf.children) > 0 {
		leaf = leaf.children[0].Base()
	}
	debugCheckTreeDepth(log, leaf)
	if logs.FilterMessage("tree depth exceeds threshold").Len() != 1 {
		t.Error("expected a depth warning")
	}
}

func TestDebugChildCountWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)
	e := NewEntity()
	for range debugMaxChildCount + 1 {
		e.children = append(e.children, NewEntity())
	}
	debugCheckChildCount(log, e)
	if logs.FilterMessage("entity has too many children").Len() != 1 {
		t.Error("expected a child count warning")
	}
}
