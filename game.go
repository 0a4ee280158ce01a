package stagehand

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"
)

// Game owns the Context and drives scenes with a fixed-timestep loop. It
// implements ebiten.Game for windowed play; Run drives the same loop
// headlessly.
type Game struct {
	Config *Config

	ctx   *Context
	log   *zap.Logger
	timer FrameTimer
	clock Clock
	audio *audio.Context

	poller      ebitenPoller
	events      []InputEvent
	injectQueue []InputEvent
	testRunner  *TestRunner

	screenshotQueue []string

	background Color
	windowed   bool
	quitted    bool
	closed     bool
	frames     uint64
}

// NewGame builds a game from cfg. A nil cfg uses DefaultConfig.
func NewGame(cfg *Config) (*Game, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stagehand: invalid config: %w", err)
	}
	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("stagehand: build logger: %w", err)
	}
	g := newGame(cfg, log)
	if rate := cfg.Audio.SampleRate; rate > 0 {
		g.audio = audio.CurrentContext()
		if g.audio == nil {
			g.audio = audio.NewContext(rate)
		}
		g.ctx.Loader.SetAudioContext(g.audio)
	}
	return g, nil
}

func newGame(cfg *Config, log *zap.Logger) *Game {
	ctx := NewContext(log)
	g := &Game{
		Config: cfg,
		ctx:    ctx,
		log:    log,
		clock:  systemClock{},
	}
	ctx.Game = g
	w, h := cfg.Resolution()
	ctx.Resolution = IntRect{Width: w, Height: h}
	ctx.Window = IntRect{Width: cfg.Window.Width, Height: cfg.Window.Height}
	ctx.Debug = cfg.Debug
	if cfg.Assets != "" {
		ctx.Loader.SetFS(os.DirFS(cfg.Assets))
	}
	g.background = cfg.BackgroundColor()
	g.SetRates(cfg.Timing.FPS, cfg.Timing.LPS)
	return g
}

// Context returns the game's shared context.
func (g *Game) Context() *Context { return g.ctx }

// Log returns the game's logger.
func (g *Game) Log() *zap.Logger { return g.log }

// Scenes returns the scene manager.
func (g *Game) Scenes() *SceneManager { return g.ctx.Scenes }

// AudioContext returns the audio context, or nil when audio is disabled.
func (g *Game) AudioContext() *audio.Context { return g.audio }

// Add registers a scene under key.
func (g *Game) Add(key string, s SceneNode) SceneNode {
	return g.ctx.Scenes.Add(key, s)
}

// SetClock replaces the time source of the headless loop.
func (g *Game) SetClock(c Clock) { g.clock = c }

// SetBackgroundColor sets the color the screen is cleared to each draw.
func (g *Game) SetBackgroundColor(c Color) { g.background = c }

// SetFPS sets both the draw and logic rates to fps.
func (g *Game) SetFPS(fps int) { g.SetRates(fps, fps) }

// SetFPSLocked changes the draw rate and keeps the logic rate.
func (g *Game) SetFPSLocked(fps int) { g.SetRates(fps, g.timer.LPS()) }

// SetLogicTickRate changes the logic rate and keeps the draw rate.
func (g *Game) SetLogicTickRate(lps int) { g.SetRates(g.timer.FPS(), lps) }

// SetRates sets the draw and logic rates. Panics on non-positive rates.
func (g *Game) SetRates(fps, lps int) {
	g.timer.SetRates(fps, lps)
	g.ctx.FPS, g.ctx.LPS = fps, lps
	if g.windowed {
		ebiten.SetTPS(fps)
	}
}

// FPS returns the draw rate.
func (g *Game) FPS() int { return g.timer.FPS() }

// LPS returns the logic rate.
func (g *Game) LPS() int { return g.timer.LPS() }

// Frames returns the number of completed draw frames.
func (g *Game) Frames() uint64 { return g.frames }

// Quit stops the loop after the current frame.
func (g *Game) Quit() { g.quitted = true }

// Quitted reports whether Quit has been called.
func (g *Game) Quitted() bool { return g.quitted }

// QueueEvent feeds a device event to the next logic update.
func (g *Game) QueueEvent(ev InputEvent) {
	g.events = append(g.events, ev)
}

// Start opens the window, starts the scene under key, and blocks until the
// game quits or the window closes.
func (g *Game) Start(key string) error {
	w := g.Config.Window
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowSize(w.Width, w.Height)
	if w.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetFullscreen(w.Fullscreen)
	ebiten.SetVsyncEnabled(w.Vsync)
	g.windowed = true
	ebiten.SetTPS(g.timer.FPS())

	if err := g.startScene(key); err != nil {
		return err
	}
	defer g.Close()

	g.log.Info("game started",
		zap.String("scene", key), zap.Int("fps", g.timer.FPS()), zap.Int("lps", g.timer.LPS()),
		zap.Int("width", g.ctx.Resolution.Width), zap.Int("height", g.ctx.Resolution.Height))
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("stagehand: run game: %w", err)
	}
	return nil
}

// Run drives the loop without a window until Quit is called or ctx is done.
// Each frame runs its logic updates, the draw pass and the deletion drain,
// then sleeps out the rest of the frame on the game's Clock.
func (g *Game) Run(ctx context.Context, key string) error {
	if err := g.startScene(key); err != nil {
		return err
	}
	defer g.Close()

	for !g.quitted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		start := g.clock.Now()
		g.Step(nil)
		g.pace(g.clock.Now().Sub(start))
	}
	return nil
}

func (g *Game) startScene(key string) error {
	if key != "" && !g.ctx.Scenes.Start(key) {
		return fmt.Errorf("stagehand: unknown scene %q", key)
	}
	g.ctx.Scenes.ManageTasks()
	return nil
}

// Step runs one frame: the logic updates the frame timer owes, a draw pass
// into screen (skipped when nil), then the deletion drain. Returns the
// number of logic updates run.
func (g *Game) Step(screen *ebiten.Image) int {
	n := g.timer.Advance()
	ran := 0
	for range n {
		if g.quitted {
			break
		}
		g.update()
		ran++
	}
	if screen != nil {
		screen.Fill(g.background.RGBA())
	}
	g.draw(screen)
	if screen != nil {
		g.flushScreenshots(screen)
	} else {
		g.dropScreenshots()
	}
	g.ctx.Tasks.Run()
	g.frames++
	return ran
}

// pace records the measured rate from the frame's work time, then sleeps
// out the remainder of the frame. RealFPS is fps scaled by how much of a
// second the work took, so it exceeds fps whenever the frame finishes early.
func (g *Game) pace(elapsed time.Duration) {
	budget := g.timer.FrameDuration()
	g.ctx.Lagging = elapsed > budget
	if elapsed > 0 {
		g.ctx.RealFPS = float64(g.timer.FPS()) / elapsed.Seconds()
	}
	if elapsed < budget {
		g.clock.Sleep(budget - elapsed)
	}
}

// update is one logic tick: input, scenes, then the pending scene switch.
func (g *Game) update() {
	ctx := g.ctx
	ctx.Input.Manage()

	if g.testRunner != nil {
		g.testRunner.step(g)
	}
	if len(g.injectQueue) > 0 {
		ev := g.injectQueue[0]
		g.injectQueue = append(g.injectQueue[:0], g.injectQueue[1:]...)
		g.apply(ev)
	}
	for _, ev := range g.events {
		g.apply(ev)
	}
	g.events = g.events[:0]
	ctx.Controls.Run()

	ctx.Scenes.Run()
	ctx.Scenes.ManageTasks()
}

func (g *Game) apply(ev InputEvent) {
	if ev.Kind == InputQuit {
		g.Quit()
		return
	}
	g.ctx.Input.Apply(ev)
}

func (g *Game) draw(screen *ebiten.Image) {
	ctx := g.ctx
	ctx.Target = screen
	ctx.State = RootState()
	ctx.Scenes.Draw()
	ctx.Target = nil
	ctx.CurrentCamera = nil
}

// Update implements ebiten.Game. Device input is polled once per call and
// consumed by the first logic update.
func (g *Game) Update() error {
	if g.quitted {
		return ebiten.Termination
	}
	g.events = g.poller.poll(g.events)
	for range g.timer.Advance() {
		g.update()
		if g.quitted {
			return ebiten.Termination
		}
	}
	g.ctx.RealFPS = ebiten.ActualFPS()
	g.ctx.Lagging = ebiten.ActualTPS() < float64(g.timer.FPS())*0.9
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.background.RGBA())
	g.draw(screen)
	g.flushScreenshots(screen)
	g.ctx.Tasks.Run()
	g.frames++
}

// Layout implements ebiten.Game. The logical screen is the resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.ctx.Window.Width, g.ctx.Window.Height = outsideWidth, outsideHeight
	return g.ctx.Resolution.Width, g.ctx.Resolution.Height
}

// Close tears down the current scene and flushes the logger. Only the first
// call has an effect.
func (g *Game) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.quitted = true
	if s := g.ctx.Scenes.Current(); s != nil {
		s.teardown()
	}
	released := g.ctx.Tasks.Run()
	g.log.Info("game closed", zap.Uint64("frames", g.frames), zap.Int("released", released))
	_ = g.log.Sync()
}

// Closed reports whether Close has run.
func (g *Game) Closed() bool { return g.closed }
