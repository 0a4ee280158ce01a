package stagehand

import "github.com/hajimehoshi/ebiten/v2"

// Synthetic input goes through the same InputEvent path as device input but
// is consumed one event per logic update, so a press and its release land on
// different ticks.

// InjectKeyDown queues a key press.
func (g *Game) InjectKeyDown(k ebiten.Key) {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputKeyDown, Key: k})
}

// InjectKeyUp queues a key release.
func (g *Game) InjectKeyUp(k ebiten.Key) {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputKeyUp, Key: k})
}

// InjectKeyTap queues a press followed by a release. Consumes two ticks.
func (g *Game) InjectKeyTap(k ebiten.Key) {
	g.InjectKeyDown(k)
	g.InjectKeyUp(k)
}

// InjectMove queues a cursor move to screen coordinates.
func (g *Game) InjectMove(x, y float64) {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputMouseMove, X: x, Y: y})
}

// InjectPress queues a left button press at screen coordinates.
func (g *Game) InjectPress(x, y float64) {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputMouseDown, Button: MouseButtonLeft, X: x, Y: y})
}

// InjectRelease queues a left button release at screen coordinates.
func (g *Game) InjectRelease(x, y float64) {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputMouseUp, Button: MouseButtonLeft, X: x, Y: y})
}

// InjectClick queues a press and a release at the same point. Consumes two ticks.
func (g *Game) InjectClick(x, y float64) {
	g.InjectPress(x, y)
	g.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 interpolated moves,
// and a release at (toX, toY). Minimum frames is 2.
func (g *Game) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	g.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		g.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	g.InjectRelease(toX, toY)
}

// InjectQuit queues a quit request.
func (g *Game) InjectQuit() {
	g.injectQueue = append(g.injectQueue, InputEvent{Kind: InputQuit})
}

// PendingInjections returns the number of queued synthetic events.
func (g *Game) PendingInjections() int { return len(g.injectQueue) }
