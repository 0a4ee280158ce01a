package stagehand

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

const epsilon = 1e-6

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(0, 0, 800, 600)
	if cam.Zoom != 1 {
		t.Errorf("Zoom = %f, want 1", cam.Zoom)
	}
	if cam.ViewWidth() != 800 || cam.ViewHeight() != 600 {
		t.Errorf("view = %vx%v, want 800x600", cam.ViewWidth(), cam.ViewHeight())
	}
	if cam.CenterX() != 400 || cam.CenterY() != 300 {
		t.Errorf("center = (%v,%v), want (400,300)", cam.CenterX(), cam.CenterY())
	}
}

func TestCameraCenterOn(t *testing.T) {
	cam := NewCamera(0, 0, 800, 600)
	cam.CenterOn(1000, 1000)
	if cam.ScrollX != 600 || cam.ScrollY != 700 {
		t.Errorf("scroll = (%v,%v), want (600,700)", cam.ScrollX, cam.ScrollY)
	}
}

func TestCameraSetZoomKeepsCenter(t *testing.T) {
	cam := NewCamera(0, 0, 800, 600)
	cam.CenterOn(500, 500)
	cam.SetZoom(2)
	if !approxEqual(cam.CenterX(), 500, epsilon) || !approxEqual(cam.CenterY(), 500, epsilon) {
		t.Errorf("center = (%v,%v), want (500,500)", cam.CenterX(), cam.CenterY())
	}
	if cam.ViewWidth() != 400 {
		t.Errorf("ViewWidth = %v, want 400", cam.ViewWidth())
	}
	cam.SetZoom(0)
	if cam.Zoom != 2 {
		t.Errorf("SetZoom(0) changed zoom to %v", cam.Zoom)
	}
}

func TestCameraBounds(t *testing.T) {
	tests := []struct {
		name             string
		bounds           Rect
		centerX, centerY float64
		wantX, wantY     float64
	}{
		{"inside", Rect{Width: 2000, Height: 2000}, 1000, 1000, 600, 700},
		{"clamp low", Rect{Width: 2000, Height: 2000}, -500, -500, 0, 0},
		{"clamp high", Rect{Width: 2000, Height: 2000}, 5000, 5000, 1200, 1400},
		{"smaller than view", Rect{X: 100, Y: 100, Width: 400, Height: 200}, 0, 0, -100, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(0, 0, 800, 600)
			cam.SetBounds(tt.bounds.X, tt.bounds.Y, tt.bounds.Width, tt.bounds.Height)
			cam.CenterOn(tt.centerX, tt.centerY)
			if cam.ScrollX != tt.wantX || cam.ScrollY != tt.wantY {
				t.Errorf("scroll = (%v,%v), want (%v,%v)", cam.ScrollX, cam.ScrollY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCameraRemoveBounds(t *testing.T) {
	cam := NewCamera(0, 0, 800, 600)
	cam.SetBounds(0, 0, 1000, 1000)
	cam.RemoveBounds()
	cam.CenterOn(-1000, -1000)
	if cam.ScrollX != -1400 {
		t.Errorf("ScrollX = %v, want -1400 without bounds", cam.ScrollX)
	}
}

func TestCameraScreenWorldRoundTrip(t *testing.T) {
	cam := NewCamera(100, 50, 400, 300)
	cam.ScrollX, cam.ScrollY = 20, 30
	cam.Zoom = 2

	wx, wy := cam.ScreenToWorld(300, 150)
	if wx != 120 || wy != 80 {
		t.Errorf("ScreenToWorld = (%v,%v), want (120,80)", wx, wy)
	}
	sx, sy := cam.WorldToScreen(wx, wy)
	if sx != 300 || sy != 150 {
		t.Errorf("WorldToScreen = (%v,%v), want (300,150)", sx, sy)
	}
	vb := cam.VisibleBounds()
	if vb != (Rect{X: 20, Y: 30, Width: 200, Height: 150}) {
		t.Errorf("VisibleBounds = %+v", vb)
	}
}

func TestCameraFollow(t *testing.T) {
	ctx := NewContext(nil)
	cam := NewCamera(0, 0, 100, 100)
	ctx.Scenes.Overlay().Add(cam)
	target := NewActor()
	ctx.Scenes.Overlay().Add(target)
	target.X, target.Y = 250, 150

	cam.Follow(target, 1)
	cam.Run()
	if cam.CenterX() != 250 || cam.CenterY() != 150 {
		t.Errorf("snap follow center = (%v,%v), want (250,150)", cam.CenterX(), cam.CenterY())
	}

	cam.Follow(target, 0.5)
	target.X = 350
	cam.Run()
	if cam.CenterX() != 300 {
		t.Errorf("lerp follow CenterX = %v, want 300", cam.CenterX())
	}

	target.Destroy(true)
	cam.Run()
	if cam.Following() != nil {
		t.Error("camera still follows a destroyed target")
	}
}

func TestCameraScrollTo(t *testing.T) {
	ctx := NewContext(nil)
	cam := NewCamera(0, 0, 100, 100)
	ctx.Scenes.Overlay().Add(cam)

	cam.ScrollTo(500, 300, 0.5, ease.Linear)
	if !cam.Scrolling() {
		t.Fatal("Scrolling = false after ScrollTo")
	}
	ticks := int(math.Ceil(0.5*float64(ctx.LPS))) + 1
	for range ticks {
		cam.Run()
	}
	if cam.Scrolling() {
		t.Error("scroll tween still running")
	}
	if !approxEqual(cam.CenterX(), 500, 1e-3) || !approxEqual(cam.CenterY(), 300, 1e-3) {
		t.Errorf("center = (%v,%v), want (500,300)", cam.CenterX(), cam.CenterY())
	}
}

func TestCameraHUDChildrenUnscrolled(t *testing.T) {
	ctx := NewContext(nil)
	cam := NewCamera(0, 0, 100, 100)
	ctx.Scenes.Overlay().Add(cam)
	cam.ScrollX = 500
	hud := &drawCounter{}
	cam.Add(hud)

	cam.Draw(0, 0, 100, 100)
	if hud.draws != 1 || hud.scrolls[0] != 0 {
		t.Errorf("hud draws=%d scrolls=%v, want one unscrolled draw", hud.draws, hud.scrolls)
	}
}

func TestCameraOutsideViewportSkipsDraw(t *testing.T) {
	ctx := NewContext(nil)
	cam := NewCamera(200, 200, 50, 50)
	ctx.Scenes.Overlay().Add(cam)
	hud := &drawCounter{}
	cam.Add(hud)

	cam.Draw(0, 0, 100, 100)
	if hud.draws != 0 {
		t.Errorf("drew %d times outside the viewport", hud.draws)
	}
}
