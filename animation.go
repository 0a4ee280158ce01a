package stagehand

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// tweenScript animates up to four float64 fields of its actor's entity.
// Start values are read when the script is prepared, so a tween recited
// behind another in a chain starts where the previous one ended.
type tweenScript struct {
	Behavior

	to       [4]float64
	count    int
	duration float32
	fn       ease.TweenFunc
	fields   func(e *Entity) [4]*float64

	tweens [4]*gween.Tween
	ptrs   [4]*float64
}

func newTween(count int, duration float32, fn ease.TweenFunc, fields func(e *Entity) [4]*float64, to ...float64) *tweenScript {
	if fn == nil {
		fn = ease.Linear
	}
	t := &tweenScript{count: count, duration: duration, fn: fn, fields: fields}
	copy(t.to[:], to)
	t.DeleteOnFinish = true
	return t
}

func (t *tweenScript) Prepare() {
	e := t.Entity()
	if e == nil {
		return
	}
	t.ptrs = t.fields(e)
	for i := range t.count {
		t.tweens[i] = gween.New(float32(*t.ptrs[i]), float32(t.to[i]), t.duration, t.fn)
	}
}

func (t *tweenScript) Advance() {
	e := t.Entity()
	if e == nil || e.destroyed {
		t.Finish()
		return
	}
	if t.tweens[0] == nil {
		t.Prepare()
	}
	dt := float32(1) / defaultFPS
	if ctx := e.ctx; ctx != nil {
		dt = ctx.TickSeconds()
	}
	done := true
	for i := range t.count {
		v, finished := t.tweens[i].Update(dt)
		*t.ptrs[i] = float64(v)
		done = done && finished
	}
	if done {
		t.Finish()
	}
}

// TweenPosition moves the actor to (x, y) over duration seconds of logic
// ticks. A nil ease function is linear.
func TweenPosition(x, y float64, duration float32, fn ease.TweenFunc) Script {
	return newTween(2, duration, fn, func(e *Entity) [4]*float64 {
		return [4]*float64{&e.X, &e.Y}
	}, x, y)
}

// TweenScale scales the actor to (sx, sy).
func TweenScale(sx, sy float64, duration float32, fn ease.TweenFunc) Script {
	return newTween(2, duration, fn, func(e *Entity) [4]*float64 {
		return [4]*float64{&e.ScaleX, &e.ScaleY}
	}, sx, sy)
}

// TweenAlpha fades the actor to alpha a.
func TweenAlpha(a float64, duration float32, fn ease.TweenFunc) Script {
	return newTween(1, duration, fn, func(e *Entity) [4]*float64 {
		return [4]*float64{&e.Alpha}
	}, a)
}

// TweenAngle rotates the actor to angle degrees.
func TweenAngle(angle float64, duration float32, fn ease.TweenFunc) Script {
	return newTween(1, duration, fn, func(e *Entity) [4]*float64 {
		return [4]*float64{&e.Angle}
	}, angle)
}

type waitScript struct {
	Behavior
	ticks int
	count int
}

func (w *waitScript) Prepare() { w.count = 0 }

func (w *waitScript) Advance() {
	w.count++
	if w.count >= w.ticks {
		w.Finish()
	}
}

// Wait finishes after ticks logic ticks. Chain scripts behind it to delay them.
func Wait(ticks int) Script {
	w := &waitScript{ticks: ticks}
	w.DeleteOnFinish = true
	return w
}

type doScript struct {
	Behavior
	fn func()
}

func (d *doScript) Advance() {
	if d.fn != nil {
		d.fn()
	}
	d.Finish()
}

// Do runs fn once on its first tick and finishes.
func Do(fn func()) Script {
	d := &doScript{fn: fn}
	d.DeleteOnFinish = true
	return d
}

// Sequence chains scripts in order and returns the first, or nil when
// scripts is empty. Recite the result to run them one after another.
func Sequence(scripts ...Script) Script {
	if len(scripts) == 0 {
		return nil
	}
	for i := 0; i < len(scripts)-1; i++ {
		scripts[i].behavior().Chain(scripts[i+1])
	}
	return scripts[0]
}
