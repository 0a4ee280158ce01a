package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
)

// Text draws a string with a font asset.
type Text struct {
	Actor

	// FontKey is the Loader key of a FontAsset.
	FontKey string
	Content string
	// Color is the fill color. The zero value draws white.
	Color Color
	// Align aligns lines within the block.
	Align TextAlign
	// LineSpacing is the distance between baselines in pixels. Zero uses
	// 1.2 times the font size.
	LineSpacing      float64
	OriginX, OriginY float64

	font *FontAsset
}

// NewText creates a text entity at (x, y).
func NewText(x, y float64, fontKey, content string) *Text {
	t := &Text{FontKey: fontKey, Content: content}
	t.Defaults()
	t.X, t.Y = x, y
	return t
}

// SetText replaces the content.
func (t *Text) SetText(s string) *Text {
	t.Content = s
	return t
}

// SetFont switches to the font asset under key.
func (t *Text) SetFont(key string) *Text {
	t.FontKey = key
	t.font = nil
	return t
}

func (t *Text) resolve() *FontAsset {
	if t.font != nil {
		return t.font
	}
	if t.FontKey == "" || t.ctx == nil || t.ctx.Loader == nil {
		return nil
	}
	a := t.ctx.Loader.Get(t.FontKey)
	f, ok := a.(*FontAsset)
	if !ok {
		t.ctx.Log.Warn("text font not found", zap.String("key", t.FontKey), zap.String("entity", t.ID))
		t.FontKey = ""
		return nil
	}
	t.font = f
	return f
}

func (t *Text) lineSpacing(f *FontAsset) float64 {
	if t.LineSpacing > 0 {
		return t.LineSpacing
	}
	return f.Size * 1.2
}

// Measure returns the unscaled size of the laid-out text, or zero without a font.
func (t *Text) Measure() (float64, float64) {
	f := t.resolve()
	if f == nil {
		return 0, 0
	}
	return text.Measure(t.Content, f.Face(), t.lineSpacing(f))
}

// Draw renders the text, then the entity's children.
func (t *Text) Draw(vx, vy, vw, vh int) {
	ctx := t.ctx
	if ctx == nil || !t.Visible || t.destroyed {
		return
	}
	if target := ctx.Target; target != nil && t.Content != "" {
		if f := t.resolve(); f != nil {
			face := f.Face()
			ls := t.lineSpacing(f)
			w, h := text.Measure(t.Content, face, ls)

			op := &text.DrawOptions{}
			op.LineSpacing = ls
			switch t.Align {
			case TextAlignCenter:
				op.PrimaryAlign = text.AlignCenter
				op.GeoM.Translate(w/2, 0)
			case TextAlignRight:
				op.PrimaryAlign = text.AlignEnd
				op.GeoM.Translate(w, 0)
			}
			op.GeoM.Concat(ctx.State.GeoM(&t.Entity, w, h, t.OriginX, t.OriginY, vx, vy))

			c := t.Color
			if c == (Color{}) {
				c = ColorWhite
			}
			op.ColorScale = colorScale(c, ctx.State.EffectiveAlpha(&t.Entity))
			text.Draw(target, t.Content, face, op)
		}
	}
	t.Actor.Draw(vx, vy, vw, vh)
}
