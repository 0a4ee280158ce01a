package stagehand

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// DrawState is the inherited drawing record threaded through the tree during
// a draw pass. Offsets accumulate parent positions, zoom multiplies parent
// scales, angle adds parent angles (degrees).
type DrawState struct {
	OffsetX, OffsetY float64
	ZoomX, ZoomY     float64
	Angle            float64
	Alpha            float64
	ScrollX, ScrollY float64
}

// RootState returns the identity draw state.
func RootState() DrawState {
	return DrawState{ZoomX: 1, ZoomY: 1, Alpha: 1}
}

// Push returns the state children of e inherit.
func (s DrawState) Push(e *Entity) DrawState {
	s.OffsetX += e.X
	s.OffsetY += e.Y
	s.ZoomX *= e.ScaleX
	s.ZoomY *= e.ScaleY
	s.Angle += e.Angle
	s.Alpha *= clamp01(e.Alpha)
	return s
}

// ScreenPosition converts e's local position into target coordinates for a
// viewport whose top-left corner sits at (vx, vy).
func (s DrawState) ScreenPosition(e *Entity, vx, vy int) (float64, float64) {
	x := float64(vx) + (s.OffsetX+e.X-s.ScrollX*e.ScrollFactorX)*s.ZoomX
	y := float64(vy) + (s.OffsetY+e.Y-s.ScrollY*e.ScrollFactorY)*s.ZoomY
	return x, y
}

// GeoM composes the transform for drawing a w×h visual owned by e, pivoting
// around (originX, originY) in [0, 1] of the visual's size.
//
//	Translate(-origin) -> Scale(scale*zoom) -> Rotate(angle) -> Translate(screen)
func (s DrawState) GeoM(e *Entity, w, h, originX, originY float64, vx, vy int) ebiten.GeoM {
	var g ebiten.GeoM
	g.Translate(-originX*w, -originY*h)
	g.Scale(e.ScaleX*s.ZoomX, e.ScaleY*s.ZoomY)
	if a := s.Angle + e.Angle; a != 0 {
		g.Rotate(a * math.Pi / 180)
	}
	x, y := s.ScreenPosition(e, vx, vy)
	g.Translate(x, y)
	return g
}

// EffectiveAlpha returns e's alpha combined with the inherited alpha.
func (s DrawState) EffectiveAlpha(e *Entity) float64 {
	return s.Alpha * clamp01(e.Alpha)
}

// WorldPosition returns the accumulated position of e including every ancestor.
func (e *Entity) WorldPosition() (float64, float64) {
	x, y := e.X, e.Y
	for p := e.parent; p != nil; p = p.parent {
		x += p.X
		y += p.Y
	}
	return x, y
}

// SetPosition sets the local position.
func (e *Entity) SetPosition(x, y float64) *Entity {
	e.X, e.Y = x, y
	return e
}

// SetScale sets the local scale.
func (e *Entity) SetScale(sx, sy float64) *Entity {
	e.ScaleX, e.ScaleY = sx, sy
	return e
}

// SetScrollFactor sets how strongly camera scroll moves this entity.
// 0 pins the entity to the viewport.
func (e *Entity) SetScrollFactor(fx, fy float64) *Entity {
	e.ScrollFactorX, e.ScrollFactorY = fx, fy
	return e
}

// SetAlpha sets the alpha, clamped to [0, 1].
func (e *Entity) SetAlpha(a float64) *Entity {
	e.Alpha = clamp01(a)
	return e
}

// SetDepth sets the draw sort key. Lower depths draw first.
func (e *Entity) SetDepth(d int) *Entity {
	e.Depth = d
	return e
}
