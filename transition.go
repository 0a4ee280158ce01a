package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

type transitionPhase uint8

const (
	phaseFadeIn transitionPhase = iota
	phaseSwitch
	phaseWait
	phaseFadeOut
	phaseDone
)

// defaultFadeTicks is the fade length when none is given.
const defaultFadeTicks = 10

// FillTransition covers the screen with a color, switches scenes under the
// cover, waits until the next scene allows it, then uncovers. Start it with
// SceneManager.StartTransition so it survives the switch.
type FillTransition struct {
	Actor

	Next  string
	Color Color
	// FadeIn and FadeOut are durations in logic ticks.
	FadeIn, FadeOut int
	Ease            ease.TweenFunc

	phase transitionPhase
	tween *gween.Tween
}

// NewFillTransition creates a black fade to the scene under next. Non-positive
// durations use the default.
func NewFillTransition(next string, fadeIn, fadeOut int) *FillTransition {
	if fadeIn <= 0 {
		fadeIn = defaultFadeTicks
	}
	if fadeOut <= 0 {
		fadeOut = defaultFadeTicks
	}
	t := &FillTransition{Next: next, Color: ColorBlack, FadeIn: fadeIn, FadeOut: fadeOut, Ease: ease.Linear}
	t.Defaults()
	t.ID = "transition:" + next
	return t
}

// Phase names the current step for logging and tests.
func (t *FillTransition) Phase() string {
	switch t.phase {
	case phaseFadeIn:
		return "fade-in"
	case phaseSwitch:
		return "switch"
	case phaseWait:
		return "wait"
	case phaseFadeOut:
		return "fade-out"
	default:
		return "done"
	}
}

func (t *FillTransition) Create() {
	t.Alpha = 0
	t.phase = phaseFadeIn
	t.tween = gween.New(0, 1, float32(max(t.FadeIn, 1)), t.easing())
}

func (t *FillTransition) easing() ease.TweenFunc {
	if t.Ease == nil {
		return ease.Linear
	}
	return t.Ease
}

func (t *FillTransition) Update() {
	ctx := t.ctx
	switch t.phase {
	case phaseFadeIn:
		v, done := t.tween.Update(1)
		t.Alpha = float64(v)
		if done {
			t.Alpha = 1
			t.phase = phaseSwitch
		}
	case phaseSwitch:
		if !ctx.Scenes.Start(t.Next) {
			ctx.Log.Warn("transition target missing", zap.String("scene", t.Next))
			t.phase = phaseDone
			t.Destroy(true)
			return
		}
		t.phase = phaseWait
	case phaseWait:
		s := ctx.Scenes.Current()
		if s == nil || s.Key != t.Next || !s.TransitionPermitted() {
			return
		}
		t.phase = phaseFadeOut
		t.tween = gween.New(1, 0, float32(max(t.FadeOut, 1)), t.easing())
	case phaseFadeOut:
		v, done := t.tween.Update(1)
		t.Alpha = float64(v)
		if done {
			t.Alpha = 0
			t.phase = phaseDone
			t.Destroy(true)
		}
	}
}

// Draw fills the whole viewport, then draws children.
func (t *FillTransition) Draw(vx, vy, vw, vh int) {
	ctx := t.ctx
	if ctx == nil || !t.Visible || t.destroyed {
		return
	}
	t.Alpha = clamp01(t.Alpha)
	if target := ctx.Target; target != nil && t.Alpha > 0 {
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(float64(vw), float64(vh))
		op.GeoM.Translate(float64(vx), float64(vy))
		op.ColorScale = colorScale(t.Color, ctx.State.Alpha*t.Alpha)
		target.DrawImage(WhitePixel, &op)
	}
	t.Actor.Draw(vx, vy, vw, vh)
}
