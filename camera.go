package stagehand

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for the camera center.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is a view into its scene's entities. It is an actor, so scripts
// can drive it, and its own children are drawn unscrolled on top as a HUD.
type Camera struct {
	Actor

	// Viewport is the rectangle the camera renders into, relative to the
	// viewport it is drawn with.
	Viewport IntRect
	// ScrollX and ScrollY are the world coordinates at the viewport's
	// top-left corner.
	ScrollX, ScrollY float64
	// Zoom scales the world (1 = no zoom, >1 = zoom in).
	Zoom float64

	// BoundsEnabled clamps scrolling so the view stays inside Bounds.
	BoundsEnabled bool
	Bounds        Rect

	// FollowOffsetX and FollowOffsetY shift the followed point.
	FollowOffsetX, FollowOffsetY float64

	followTarget Node
	followLerp   float64
	scrollTween  *scrollAnim
	drawBuf      []Node
}

// NewCamera creates a camera with the given viewport and no zoom.
func NewCamera(x, y, w, h int) *Camera {
	c := &Camera{
		Viewport: IntRect{X: x, Y: y, Width: w, Height: h},
		Zoom:     1,
	}
	c.Defaults()
	return c
}

func (c *Camera) zoom() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// ViewWidth returns the width of the visible world area.
func (c *Camera) ViewWidth() float64 { return float64(c.Viewport.Width) / c.zoom() }

// ViewHeight returns the height of the visible world area.
func (c *Camera) ViewHeight() float64 { return float64(c.Viewport.Height) / c.zoom() }

// CenterX returns the world X at the viewport center.
func (c *Camera) CenterX() float64 { return c.ScrollX + c.ViewWidth()/2 }

// CenterY returns the world Y at the viewport center.
func (c *Camera) CenterY() float64 { return c.ScrollY + c.ViewHeight()/2 }

// CenterOn scrolls so that (x, y) sits at the viewport center.
func (c *Camera) CenterOn(x, y float64) {
	c.ScrollX = x - c.ViewWidth()/2
	c.ScrollY = y - c.ViewHeight()/2
	c.ClampToBounds()
}

// SetZoom sets the zoom, keeping the current center in place. Non-positive
// values are ignored.
func (c *Camera) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	cx, cy := c.CenterX(), c.CenterY()
	c.Zoom = z
	c.CenterOn(cx, cy)
}

// Follow tracks target's world position. A lerp of 1 (or out of range)
// snaps; lower values ease toward the target each tick.
func (c *Camera) Follow(target Node, lerp float64) {
	if lerp <= 0 || lerp > 1 {
		lerp = 1
	}
	c.followTarget = target
	c.followLerp = lerp
}

// Unfollow stops tracking.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// Following returns the tracked node, or nil.
func (c *Camera) Following() Node { return c.followTarget }

// ScrollTo tweens the view center to (x, y) over duration seconds of logic
// ticks. A nil ease function is linear.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.CenterX()), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.CenterY()), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo tween is running.
func (c *Camera) Scrolling() bool { return c.scrollTween != nil }

// SetBounds enables bounds clamping.
func (c *Camera) SetBounds(x, y, w, h float64) {
	c.BoundsEnabled = true
	c.Bounds = Rect{X: x, Y: y, Width: w, Height: h}
	c.clampToBounds()
}

// RemoveBounds disables bounds clamping.
func (c *Camera) RemoveBounds() {
	c.BoundsEnabled = false
}

// ClampToBounds immediately applies the bounds. No-op without bounds.
func (c *Camera) ClampToBounds() {
	if c.BoundsEnabled {
		c.clampToBounds()
	}
}

// clampToBounds keeps the visible area inside Bounds, centering on an axis
// where the bounds are smaller than the view.
func (c *Camera) clampToBounds() {
	vw, vh := c.ViewWidth(), c.ViewHeight()
	b := c.Bounds

	if b.Width < vw {
		c.ScrollX = b.X + (b.Width-vw)/2
	} else {
		c.ScrollX = min(max(c.ScrollX, b.X), b.X+b.Width-vw)
	}
	if b.Height < vh {
		c.ScrollY = b.Y + (b.Height-vh)/2
	} else {
		c.ScrollY = min(max(c.ScrollY, b.Y), b.Y+b.Height-vh)
	}
}

// ScreenToWorld converts a point in root screen coordinates into world
// coordinates as seen by this camera.
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	z := c.zoom()
	return c.ScrollX + (sx-float64(c.Viewport.X))/z, c.ScrollY + (sy-float64(c.Viewport.Y))/z
}

// WorldToScreen is the inverse of ScreenToWorld.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	z := c.zoom()
	return float64(c.Viewport.X) + (wx-c.ScrollX)*z, float64(c.Viewport.Y) + (wy-c.ScrollY)*z
}

// VisibleBounds returns the world rectangle the camera sees.
func (c *Camera) VisibleBounds() Rect {
	return Rect{X: c.ScrollX, Y: c.ScrollY, Width: c.ViewWidth(), Height: c.ViewHeight()}
}

// Run runs the camera's scripts and HUD children, then applies follow,
// scroll tween and bounds.
func (c *Camera) Run() {
	if !c.active || c.destroyed {
		return
	}
	c.Entity.Run()
	if c.destroyed {
		return
	}

	if t := c.followTarget; t != nil {
		if tb := t.Base(); tb.destroyed {
			c.followTarget = nil
		} else {
			wx, wy := tb.WorldPosition()
			tx := wx + c.FollowOffsetX - c.ViewWidth()/2
			ty := wy + c.FollowOffsetY - c.ViewHeight()/2
			c.ScrollX += (tx - c.ScrollX) * c.followLerp
			c.ScrollY += (ty - c.ScrollY) * c.followLerp
		}
	}

	if st := c.scrollTween; st != nil {
		var dt float32 = 1 / float32(defaultFPS)
		if c.ctx != nil {
			dt = c.ctx.TickSeconds()
		}
		cx, cy := c.CenterX(), c.CenterY()
		if !st.doneX {
			v, done := st.tweenX.Update(dt)
			cx, st.doneX = float64(v), done
		}
		if !st.doneY {
			v, done := st.tweenY.Update(dt)
			cy, st.doneY = float64(v), done
		}
		c.ScrollX = cx - c.ViewWidth()/2
		c.ScrollY = cy - c.ViewHeight()/2
		if st.doneX && st.doneY {
			c.scrollTween = nil
		}
	}

	c.ClampToBounds()
}

// Draw clips to the viewport and draws the scene's entities through the
// camera, then the camera's own children unscrolled.
func (c *Camera) Draw(vx, vy, vw, vh int) {
	ctx := c.ctx
	if ctx == nil || !c.Visible || c.destroyed {
		return
	}

	ox, oy := vx+c.Viewport.X, vy+c.Viewport.Y
	x0, y0 := max(ox, vx), max(oy, vy)
	x1 := min(ox+c.Viewport.Width, vx+vw)
	y1 := min(oy+c.Viewport.Height, vy+vh)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	in := ctx.State
	target := ctx.Target
	prevCam := ctx.CurrentCamera
	ctx.CurrentCamera = c
	if target != nil {
		ctx.Target = target.SubImage(image.Rect(x0, y0, x1, y1)).(*ebiten.Image)
	}

	z := c.zoom()
	world := DrawState{
		ZoomX: z, ZoomY: z,
		Alpha:   clamp01(c.Alpha),
		ScrollX: c.ScrollX, ScrollY: c.ScrollY,
	}
	if s := c.scene; s != nil {
		snapshot := append(c.drawBuf[:0], s.children...)
		for _, n := range snapshot {
			nb := n.Base()
			if nb.destroyed || nb.parent != &s.Entity {
				continue
			}
			ctx.State = world
			n.Draw(ox, oy, c.Viewport.Width, c.Viewport.Height)
		}
		clear(snapshot)
		c.drawBuf = snapshot[:0]
	}

	ctx.State = RootState()
	c.drawChildren(ox, oy, c.Viewport.Width, c.Viewport.Height)

	ctx.State = in
	ctx.Target = target
	ctx.CurrentCamera = prevCam
}
