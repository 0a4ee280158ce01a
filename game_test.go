package stagehand

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

type fakeClock struct {
	now   time.Time
	work  time.Duration
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.work)
	return t
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

// quitScene counts updates and quits the game after quitAfter of them.
type quitScene struct {
	Scene
	updates   int
	quitAfter int
	child     *Actor
}

func (s *quitScene) Create() {
	s.child = NewActor()
	s.Add(s.child)
}

func (s *quitScene) Update() {
	s.updates++
	if s.quitAfter > 0 && s.updates >= s.quitAfter {
		s.Context().Game.Quit()
	}
}

func newTestGame() *Game {
	return newGame(DefaultConfig(), zap.NewNop())
}

func TestGameStepRunsLogicPerFrame(t *testing.T) {
	tests := []struct {
		fps, lps int
		want     []int
	}{
		{60, 60, []int{1, 1, 1}},
		{30, 60, []int{2, 2, 2}},
		{60, 30, []int{1, 0, 1, 0}},
	}
	for _, tt := range tests {
		g := newTestGame()
		g.SetRates(tt.fps, tt.lps)
		for i, want := range tt.want {
			if got := g.Step(nil); got != want {
				t.Errorf("fps=%d lps=%d: Step %d ran %d updates, want %d", tt.fps, tt.lps, i, got, want)
			}
		}
		if g.Frames() != uint64(len(tt.want)) {
			t.Errorf("Frames = %d, want %d", g.Frames(), len(tt.want))
		}
		if g.Context().LPS != tt.lps {
			t.Errorf("ctx.LPS = %d, want %d", g.Context().LPS, tt.lps)
		}
	}
}

func TestGameRunUntilQuit(t *testing.T) {
	g := newTestGame()
	clock := &fakeClock{now: time.Unix(0, 0), work: 4 * time.Millisecond}
	g.SetClock(clock)
	s := &quitScene{quitAfter: 3}
	g.Add("main", s)

	if err := g.Run(context.Background(), "main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The first tick loads and creates; Update starts on the second.
	if g.Frames() != 4 {
		t.Errorf("Frames = %d, want 4", g.Frames())
	}
	if !g.Closed() || !g.Quitted() {
		t.Error("game not closed after Run")
	}
	if !s.child.IsReleased() {
		t.Error("scene entities not released on Close")
	}
	if len(clock.slept) != 4 || clock.slept[0] != 12*time.Millisecond {
		t.Errorf("slept = %v, want four 12ms sleeps", clock.slept)
	}
	// 60 frames per second over 4ms of work.
	if fps := g.Context().RealFPS; !approxEqual(fps, 15000, 1e-6) {
		t.Errorf("RealFPS = %v, want 15000", fps)
	}
	if g.Context().Lagging {
		t.Error("Lagging = true for a 4ms frame")
	}
}

func TestGameRunLagging(t *testing.T) {
	g := newTestGame()
	clock := &fakeClock{now: time.Unix(0, 0), work: 20 * time.Millisecond}
	g.SetClock(clock)
	g.Add("main", &quitScene{quitAfter: 1})

	if err := g.Run(context.Background(), "main"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !g.Context().Lagging {
		t.Error("Lagging = false for a 20ms frame at 60 FPS")
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v while lagging", clock.slept)
	}
	if fps := g.Context().RealFPS; !approxEqual(fps, 3000, 1e-6) {
		t.Errorf("RealFPS = %v, want 3000", fps)
	}
}

func TestGameRunUnknownScene(t *testing.T) {
	g := newTestGame()
	if err := g.Run(context.Background(), "nope"); err == nil {
		t.Error("Run with unknown scene returned nil")
	}
}

func TestGameRunCancelled(t *testing.T) {
	g := newTestGame()
	g.SetClock(&fakeClock{})
	g.Add("main", &quitScene{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Run(ctx, "main")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if !g.Closed() {
		t.Error("cancelled run did not close the game")
	}
}

func TestGameCloseOnce(t *testing.T) {
	g := newTestGame()
	g.Close()
	g.Close()
	if !g.Closed() {
		t.Error("Closed = false")
	}
}

func TestGameQueueEvent(t *testing.T) {
	g := newTestGame()
	g.QueueEvent(InputEvent{Kind: InputKeyDown, Key: ebiten.KeySpace})
	g.Step(nil)
	k := g.Context().Input.Keyboard.Get(ebiten.KeySpace)
	if k == nil || !k.JustDown() {
		t.Fatal("queued key press not applied")
	}
	g.Step(nil)
	if k.JustDown() || !k.IsDown() {
		t.Errorf("JustDown=%v IsDown=%v on the next tick, want false true", k.JustDown(), k.IsDown())
	}

	g.QueueEvent(InputEvent{Kind: InputQuit})
	g.Step(nil)
	if !g.Quitted() {
		t.Error("quit event ignored")
	}
	if g.Step(nil) != 0 {
		t.Error("quitted game kept running logic")
	}
}

type switchScene struct {
	Scene
	next string
}

func (s *switchScene) Update() {
	if s.next != "" {
		s.Context().Scenes.Start(s.next)
	}
}

func TestGameSceneSwitchAtTickEnd(t *testing.T) {
	g := newTestGame()
	a := &switchScene{next: "b"}
	b := &switchScene{}
	g.Add("a", a)
	g.Add("b", b)
	if err := g.startScene("a"); err != nil {
		t.Fatal(err)
	}

	g.Step(nil)
	if g.Scenes().Current() != &a.Scene {
		t.Fatal("switched before a's first Update")
	}
	g.Step(nil)
	if g.Scenes().Current() != &b.Scene {
		t.Error("scene switch not applied at the end of the tick")
	}
	if a.IsActive() {
		t.Error("previous scene still active")
	}
}

func TestNewGameValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timing.FPS = 0
	if _, err := NewGame(cfg); err == nil {
		t.Error("NewGame accepted fps 0")
	}
}

func TestNewGameAppliesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.ResolutionWidth = 320
	cfg.Window.ResolutionHeight = 240
	cfg.Timing.FPS = 30
	cfg.Debug = true
	g := newGame(cfg, zap.NewNop())
	ctx := g.Context()
	if ctx.Resolution.Width != 320 || ctx.Resolution.Height != 240 {
		t.Errorf("Resolution = %+v, want 320x240", ctx.Resolution)
	}
	if g.FPS() != 30 || g.LPS() != defaultFPS {
		t.Errorf("rates = %d/%d, want 30/%d", g.FPS(), g.LPS(), defaultFPS)
	}
	if !ctx.Debug || ctx.Game != g {
		t.Error("context not wired to the game config")
	}
	if w, h := g.Layout(1000, 800); w != 320 || h != 240 {
		t.Errorf("Layout = %dx%d, want 320x240", w, h)
	}
	if ctx.Window.Width != 1000 {
		t.Errorf("Window.Width = %d, want 1000", ctx.Window.Width)
	}
}
