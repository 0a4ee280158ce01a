package stagehand

import (
	"errors"
	"slices"
	"testing"
	"testing/fstest"
)

type testScene struct {
	Scene
	name    string
	log     *[]string
	preload func(s *testScene)
}

func newTestScene(name string, log *[]string) *testScene {
	return &testScene{name: name, log: log}
}

func (s *testScene) Preload() {
	*s.log = append(*s.log, s.name+":preload")
	if s.preload != nil {
		s.preload(s)
	}
}

func (s *testScene) Create() { *s.log = append(*s.log, s.name+":create") }
func (s *testScene) Update() { *s.log = append(*s.log, s.name+":update") }

type recordingStore struct {
	events []LifecycleEvent
}

func (r *recordingStore) EmitEvent(ev LifecycleEvent) { r.events = append(r.events, ev) }

func (r *recordingStore) count(t LifecycleEventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func TestSceneManagerAddPanics(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	ctx.Scenes.Add("a", newTestScene("a", &log))

	for name, fn := range map[string]func(){
		"duplicate": func() { ctx.Scenes.Add("a", newTestScene("a", &log)) },
		"nil":       func() { ctx.Scenes.Add("b", nil) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Add(%s) did not panic", name)
				}
			}()
			fn()
		})
	}
}

func TestSceneStartUnknown(t *testing.T) {
	ctx := NewContext(nil)
	if ctx.Scenes.Start("missing") {
		t.Error("Start(missing) = true")
	}
	if ctx.Scenes.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}

func TestSceneLifecycle(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	s := newTestScene("a", &log)
	ctx.Scenes.Add("a", s)
	if len(log) != 0 {
		t.Fatalf("hooks ran on Add: %v", log)
	}

	ctx.Scenes.Start("a")
	if ctx.Scenes.Current() != nil {
		t.Error("Start switched before ManageTasks")
	}
	ctx.Scenes.ManageTasks()
	if ctx.Scenes.Current() != &s.Scene {
		t.Fatal("scene not current after ManageTasks")
	}
	if s.MainCamera == nil || len(s.Cameras()) != 1 {
		t.Error("main camera not created")
	}
	if s.MainCamera.Viewport.Width != ctx.Resolution.Width {
		t.Errorf("camera width = %d, want %d", s.MainCamera.Viewport.Width, ctx.Resolution.Width)
	}
	if s.Loaded() || s.Created() {
		t.Error("scene loaded before its first tick")
	}

	ctx.Scenes.Run()
	if !s.Loaded() || !s.Created() {
		t.Error("empty load queue should finish on the first tick")
	}
	ctx.Scenes.Run()

	want := []string{"a:preload", "a:create", "a:update"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestSceneLoadsAcrossTicks(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	loaded := 0
	s := newTestScene("a", &log)
	s.preload = func(s *testScene) {
		s.Load.PerStep = 1
		for _, k := range []string{"x", "y", "z"} {
			s.Load.Func(k, func() error { loaded++; return nil })
		}
	}
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()

	for i := range 2 {
		ctx.Scenes.Run()
		if s.Created() {
			t.Fatalf("created after %d of 3 load steps", i+1)
		}
	}
	if p := s.Load.Progress(); p < 0.66 || p > 0.67 {
		t.Errorf("Progress = %v, want 2/3", p)
	}
	ctx.Scenes.Run()
	if !s.Created() || loaded != 3 {
		t.Errorf("Created = %v loaded = %d, want true 3", s.Created(), loaded)
	}
}

func TestSceneLoadErrorsDoNotBlock(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	s := newTestScene("a", &log)
	boom := errors.New("boom")
	s.preload = func(s *testScene) {
		s.Load.Func("bad", func() error { return boom })
		s.Load.Func("good", func() error { return nil })
	}
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	ctx.Scenes.Run()

	if !s.Created() {
		t.Error("a failed load blocked creation")
	}
	if !errors.Is(s.Load.Err(), boom) {
		t.Errorf("Load.Err() = %v, want boom", s.Load.Err())
	}
}

func TestSceneSwitchTearsDown(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	a := newTestScene("a", &log)
	b := newTestScene("b", &log)
	ctx.Scenes.Add("a", a)
	ctx.Scenes.Add("b", b)

	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	ctx.Scenes.Run()
	child := NewActor()
	a.Add(child)
	cam := a.MainCamera
	keep := NewActor()
	ctx.Scenes.Overlay().Add(keep)

	ctx.Scenes.Start("b")
	ctx.Scenes.Run()
	if ctx.Scenes.Current() != &a.Scene {
		t.Error("switch applied mid-tick")
	}
	ctx.Scenes.ManageTasks()

	if ctx.Scenes.Current() != &b.Scene {
		t.Fatal("b not current")
	}
	if !child.IsDestroyed() || !cam.IsDestroyed() {
		t.Error("outgoing scene's entities and cameras not destroyed")
	}
	if a.IsActive() {
		t.Error("outgoing scene still active")
	}
	if keep.IsDestroyed() {
		t.Error("overlay entity destroyed by scene switch")
	}
	ctx.Tasks.Run()
	if !child.IsReleased() {
		t.Error("child not released at the drain point")
	}
}

func TestSceneRestartReusesAssets(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Loader.SetFS(fstest.MapFS{"greeting.txt": {Data: []byte("hello")}})
	var log []string
	s := newTestScene("a", &log)
	s.preload = func(s *testScene) { s.Load.Text("greeting", "greeting.txt") }
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	ctx.Scenes.Run()
	child := NewActor()
	s.Add(child)

	ctx.Scenes.Restart()
	ctx.Scenes.ManageTasks()
	if !child.IsDestroyed() {
		t.Error("restart kept old entities")
	}
	if !s.IsActive() {
		t.Error("restarted scene inactive")
	}
	ctx.Scenes.Run()
	if s.Load.Err() != nil {
		t.Errorf("Load.Err() = %v on restart", s.Load.Err())
	}
	creates := 0
	for _, l := range log {
		if l == "a:create" {
			creates++
		}
	}
	if creates != 2 {
		t.Errorf("Create ran %d times, want 2", creates)
	}
}

func TestSceneTransitionPermission(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	s := newTestScene("a", &log)
	s.ManualPermission = true
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	if s.TransitionPermitted() {
		t.Error("permitted before loading")
	}
	ctx.Scenes.Run()
	if s.TransitionPermitted() {
		t.Error("manual scene permitted without PermitTransition")
	}
	s.PermitTransition()
	if !s.TransitionPermitted() {
		t.Error("PermitTransition had no effect")
	}
}

func TestSceneLifecycleEvents(t *testing.T) {
	ctx := NewContext(nil)
	store := &recordingStore{}
	ctx.SetEntityStore(store)
	var log []string
	s := newTestScene("a", &log)
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	ctx.Scenes.Run()

	if store.count(EventSceneStarted) != 1 || store.count(EventSceneCreated) != 1 {
		t.Errorf("events = %+v", store.events)
	}
	a := NewActor()
	s.Add(a)
	a.Destroy(true)
	ctx.Tasks.Run()
	for _, typ := range []LifecycleEventType{EventEntityCreated, EventEntityDestroyed, EventEntityReleased} {
		if store.count(typ) == 0 {
			t.Errorf("no %s event", typ)
		}
	}
	if got := store.events[len(store.events)-1]; got.Type != EventEntityReleased {
		t.Errorf("last event = %s, want released", got.Type)
	}
}

func TestSceneDrawsThroughEachCamera(t *testing.T) {
	ctx := NewContext(nil)
	var log []string
	s := newTestScene("a", &log)
	ctx.Scenes.Add("a", s)
	ctx.Scenes.Start("a")
	ctx.Scenes.ManageTasks()
	ctx.Scenes.Run()

	rec := &drawCounter{}
	s.Add(rec)
	s.MainCamera.ScrollX = 100
	second := s.AddCamera(NewCamera(0, 0, 100, 100))
	second.Depth = 1

	ctx.Scenes.Draw()
	if rec.draws != 2 {
		t.Errorf("entity drawn %d times, want once per camera", rec.draws)
	}
	if rec.scrolls[0] != 100 || rec.scrolls[1] != 0 {
		t.Errorf("scrolls = %v, want [100 0] in camera depth order", rec.scrolls)
	}

	second.Destroy(true)
	rec.draws = 0
	ctx.Scenes.Draw()
	if rec.draws != 1 || len(s.Cameras()) != 1 {
		t.Errorf("destroyed camera still drawn: draws=%d cameras=%d", rec.draws, len(s.Cameras()))
	}
}

type drawCounter struct {
	Entity
	draws   int
	scrolls []float64
}

func (d *drawCounter) Draw(vx, vy, vw, vh int) {
	d.draws++
	d.scrolls = append(d.scrolls, d.ctx.State.ScrollX)
	d.Entity.Draw(vx, vy, vw, vh)
}
