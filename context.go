package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Context is the per-game shared state every node reaches through. A Game
// owns exactly one; nothing in stagehand is a process-wide singleton.
type Context struct {
	Game *Game

	// State is the inherited draw record mutated top-down during Draw.
	State DrawState
	// Target is the image the current draw pass renders into. It is nil
	// outside Draw and in headless runs.
	Target *ebiten.Image

	Log      *zap.Logger
	Tasks    *TaskManager
	Loader   *Loader
	Input    *InputManager
	Controls *ControlScheme
	Scenes   *SceneManager

	Resolution IntRect
	Window     IntRect

	FPS     int
	LPS     int
	RealFPS float64
	Lagging bool

	CurrentScene  *Scene
	CurrentCamera *Camera

	// Debug enables tree sanity checks and misuse panics.
	Debug bool

	store EntityStore

	// tick counts logic ticks; ticking is set while one is in progress.
	tick    uint64
	ticking bool
}

// NewContext builds a standalone context with its own TaskManager, Loader,
// input and controls. A nil logger becomes a no-op logger.
func NewContext(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	ctx := &Context{
		State:      RootState(),
		Log:        log,
		Resolution: IntRect{Width: 640, Height: 480},
		Window:     IntRect{Width: 640, Height: 480},
		FPS:        defaultFPS,
		LPS:        defaultFPS,
	}
	ctx.Tasks = NewTaskManager(log)
	ctx.Tasks.OnRelease = ctx.emitReleased
	ctx.Loader = NewLoader(nil, log)
	ctx.Input = NewInputManager()
	ctx.Controls = NewControlScheme(ctx.Input, log)
	ctx.Scenes = newSceneManager(ctx)
	return ctx
}

// beginTick opens a logic tick unless one is already open and reports
// whether the caller opened it.
func (c *Context) beginTick() bool {
	if c.ticking {
		return false
	}
	c.tick++
	c.ticking = true
	return true
}

func (c *Context) endTick() { c.ticking = false }

// Tick returns the number of logic ticks started so far.
func (c *Context) Tick() uint64 { return c.tick }

// SetEntityStore routes entity lifecycle events to store. Pass nil to stop.
func (c *Context) SetEntityStore(store EntityStore) {
	c.store = store
}

// TickSeconds is the duration of one logic tick in seconds.
func (c *Context) TickSeconds() float32 {
	if c.LPS <= 0 {
		return 1 / float32(defaultFPS)
	}
	return 1 / float32(c.LPS)
}

func (c *Context) emit(ev LifecycleEvent) {
	if c == nil || c.store == nil {
		return
	}
	c.store.EmitEvent(ev)
}

func (c *Context) emitReleased(n Node) {
	e := n.Base()
	c.emit(LifecycleEvent{Type: EventEntityReleased, Handle: e.handle, ID: e.ID})
}
