package stagehand

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// FPSCounter draws the measured frame rate with the debug font. The label is
// refreshed every half second of logic ticks.
type FPSCounter struct {
	Actor
	label string
	ticks int
}

// NewFPSCounter creates a counter at (x, y). It ignores camera scroll.
func NewFPSCounter(x, y float64) *FPSCounter {
	f := &FPSCounter{label: "FPS: -"}
	f.Defaults()
	f.X, f.Y = x, y
	f.ScrollFactorX, f.ScrollFactorY = 0, 0
	f.Depth = 1 << 20
	return f
}

// Label returns the text currently drawn.
func (f *FPSCounter) Label() string { return f.label }

func (f *FPSCounter) Update() {
	ctx := f.ctx
	if ctx == nil {
		return
	}
	f.ticks++
	if f.ticks < max(ctx.LPS/2, 1) {
		return
	}
	f.ticks = 0
	f.label = fmt.Sprintf("FPS: %.1f", ctx.RealFPS)
	if ctx.Lagging {
		f.label += " (lag)"
	}
}

func (f *FPSCounter) Draw(vx, vy, vw, vh int) {
	ctx := f.ctx
	if ctx == nil || !f.Visible || f.destroyed {
		return
	}
	if target := ctx.Target; target != nil {
		x, y := ctx.State.ScreenPosition(&f.Entity, vx, vy)
		ebitenutil.DebugPrintAt(target, f.label, int(x), int(y))
	}
	f.Actor.Draw(vx, vy, vw, vh)
}
