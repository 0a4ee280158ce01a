package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// colorScale returns the premultiplied scale for tint c at alpha.
func colorScale(c Color, alpha float64) ebiten.ColorScale {
	var cs ebiten.ColorScale
	a := clamp01(c.A) * alpha
	cs.Scale(float32(c.R*a), float32(c.G*a), float32(c.B*a), float32(a))
	return cs
}

// Rectangle is a solid color fill.
type Rectangle struct {
	Actor
	Width, Height    float64
	Color            Color
	OriginX, OriginY float64
}

// NewRectangle creates a filled rectangle at (x, y).
func NewRectangle(x, y, w, h float64, c Color) *Rectangle {
	r := &Rectangle{Width: w, Height: h, Color: c}
	r.Defaults()
	r.X, r.Y = x, y
	return r
}

// Draw fills the rectangle, then draws its children.
func (r *Rectangle) Draw(vx, vy, vw, vh int) {
	ctx := r.ctx
	if ctx == nil || !r.Visible || r.destroyed {
		return
	}
	if target := ctx.Target; target != nil && r.Width > 0 && r.Height > 0 {
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(r.Width, r.Height)
		op.GeoM.Concat(ctx.State.GeoM(&r.Entity, r.Width, r.Height, r.OriginX, r.OriginY, vx, vy))
		op.ColorScale = colorScale(r.Color, ctx.State.EffectiveAlpha(&r.Entity))
		target.DrawImage(WhitePixel, &op)
	}
	r.Actor.Draw(vx, vy, vw, vh)
}

// imageHolder is satisfied by anything embedding Image.
type imageHolder interface {
	ImageBase() *Image
}

// Image draws a loaded texture, or one frame of a spritesheet.
type Image struct {
	Actor

	// TextureKey is the Loader key the texture resolves from.
	TextureKey string
	// Frame selects the spritesheet frame, wrapped into range.
	Frame int
	// OriginX and OriginY pivot the image in [0, 1] of its frame size.
	OriginX, OriginY float64
	// Tint multiplies the texture color. The zero value draws untinted.
	Tint  Color
	Blend BlendMode

	texture *ImageTexture
	sheet   *Spritesheet
}

// NewImage creates an image at (x, y) drawing the asset under key. The key
// resolves against the Loader on first draw.
func NewImage(x, y float64, key string) *Image {
	img := &Image{TextureKey: key}
	img.Defaults()
	img.X, img.Y = x, y
	return img
}

// ImageBase returns the image itself.
func (img *Image) ImageBase() *Image { return img }

// SetTexture switches to the asset under key. Reports false when the key is
// not loaded; the image then draws nothing.
func (img *Image) SetTexture(key string) bool {
	img.TextureKey = key
	img.texture, img.sheet = nil, nil
	return img.resolve()
}

// SetTextureAsset draws a directly and bypasses the Loader.
func (img *Image) SetTextureAsset(a Asset) {
	img.texture, img.sheet = nil, nil
	switch t := a.(type) {
	case *Spritesheet:
		img.sheet = t
		img.texture = &t.ImageTexture
		img.TextureKey = t.Key()
	case *ImageTexture:
		img.texture = t
		img.TextureKey = t.Key()
	}
}

func (img *Image) resolve() bool {
	if img.texture != nil {
		return true
	}
	if img.TextureKey == "" || img.ctx == nil || img.ctx.Loader == nil {
		return false
	}
	a := img.ctx.Loader.Get(img.TextureKey)
	if a == nil {
		img.ctx.Log.Warn("image texture not found", zap.String("key", img.TextureKey), zap.String("entity", img.ID))
		img.TextureKey = ""
		return false
	}
	img.SetTextureAsset(a)
	if img.texture == nil {
		img.ctx.Log.Warn("asset is not an image", zap.String("key", a.Key()), zap.Stringer("type", a.Type()))
		return false
	}
	return true
}

// Sheet returns the spritesheet being drawn, or nil for plain textures.
func (img *Image) Sheet() *Spritesheet {
	img.resolve()
	return img.sheet
}

// Size returns the drawn frame size before scaling.
func (img *Image) Size() (float64, float64) {
	if !img.resolve() {
		return 0, 0
	}
	if img.sheet != nil {
		return float64(img.sheet.FrameWidth), float64(img.sheet.FrameHeight)
	}
	return float64(img.texture.Width), float64(img.texture.Height)
}

// SetOrigin sets both origin components.
func (img *Image) SetOrigin(ox, oy float64) *Image {
	img.OriginX, img.OriginY = ox, oy
	return img
}

// Draw renders the texture, then the image's children.
func (img *Image) Draw(vx, vy, vw, vh int) {
	ctx := img.ctx
	if ctx == nil || !img.Visible || img.destroyed {
		return
	}
	if target := ctx.Target; target != nil && img.resolve() {
		src := img.texture.Image
		w, h := float64(img.texture.Width), float64(img.texture.Height)
		if s := img.sheet; s != nil {
			src = src.SubImage(s.FrameRect(img.Frame)).(*ebiten.Image)
			w, h = float64(s.FrameWidth), float64(s.FrameHeight)
		}
		tint := img.Tint
		if tint == (Color{}) {
			tint = ColorWhite
		}
		op := &ebiten.DrawImageOptions{
			GeoM:  ctx.State.GeoM(&img.Entity, w, h, img.OriginX, img.OriginY, vx, vy),
			Blend: img.Blend.EbitenBlend(),
		}
		op.ColorScale = colorScale(tint, ctx.State.EffectiveAlpha(&img.Entity))
		target.DrawImage(src, op)
	}
	img.Actor.Draw(vx, vy, vw, vh)
}

// animationScriptID is the script ID Sprite.Play uses.
const animationScriptID = "animation"

type animScript struct {
	Behavior
	key   string
	anim  *Animation
	img   *Image
	index int
	ticks int
}

// PlayAnimation steps a spritesheet animation on the Image (or Sprite) it is
// recited on. Non-looping animations finish on their last frame.
func PlayAnimation(key string) Script {
	a := &animScript{key: key}
	a.ID = animationScriptID
	a.DeleteOnFinish = true
	return a
}

func (a *animScript) Prepare() {
	a.index, a.ticks = 0, 0
	h, ok := a.Actor().(imageHolder)
	if !ok {
		return
	}
	a.img = h.ImageBase()
	if sheet := a.img.Sheet(); sheet != nil {
		a.anim = sheet.Anim(a.key)
	}
	if a.anim != nil && len(a.anim.Frames) > 0 {
		a.img.Frame = a.anim.Frames[0]
	}
}

func (a *animScript) Advance() {
	if a.img == nil || a.anim == nil {
		a.Prepare()
	}
	if a.anim == nil || len(a.anim.Frames) == 0 {
		if ctx := a.Context(); ctx != nil {
			ctx.Log.Warn("animation not found", zap.String("anim", a.key))
		}
		a.Finish()
		return
	}

	lps := defaultFPS
	if ctx := a.Context(); ctx != nil && ctx.LPS > 0 {
		lps = ctx.LPS
	}
	perFrame := 1
	if a.anim.FrameRate > 0 {
		perFrame = max(lps/a.anim.FrameRate, 1)
	}

	a.img.Frame = a.anim.Frames[a.index]
	a.ticks++
	if a.ticks < perFrame {
		return
	}
	a.ticks = 0
	a.index++
	if a.index >= len(a.anim.Frames) {
		if a.anim.Loop {
			a.index = 0
			return
		}
		a.index = len(a.anim.Frames) - 1
		a.Finish()
	}
}

// Sprite is an Image that plays spritesheet animations.
type Sprite struct {
	Image
}

// NewSprite creates a sprite at (x, y) drawing the spritesheet under key.
func NewSprite(x, y float64, key string) *Sprite {
	s := &Sprite{Image: Image{TextureKey: key}}
	s.Defaults()
	s.X, s.Y = x, y
	return s
}

// Play starts the animation under key, replacing the current one.
func (s *Sprite) Play(key string) Script {
	s.StopAnimation()
	return s.Recite(PlayAnimation(key))
}

// StopAnimation stops the current animation on its current frame.
func (s *Sprite) StopAnimation() {
	for s.GetScript(animationScriptID) != nil {
		s.ClearScript(animationScriptID)
	}
}

// Animating reports whether an animation is playing.
func (s *Sprite) Animating() bool {
	return s.GetScript(animationScriptID) != nil
}
