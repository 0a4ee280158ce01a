package stagehand

import "time"

const defaultFPS = 60

// FrameTimer converts draw frames into logic updates for independently set
// draw (fps) and logic (lps) rates.
//
//   - fps < lps: every draw runs floor(lps/fps) updates.
//   - fps > lps: logic runs once every floor(fps/lps) draws.
//   - equal: one update per draw.
type FrameTimer struct {
	fps, lps int
	counter  int
}

// NewFrameTimer creates a timer for the given rates. Panics on non-positive rates.
func NewFrameTimer(fps, lps int) FrameTimer {
	var t FrameTimer
	t.SetRates(fps, lps)
	return t
}

// SetRates changes both rates. The next Advance always runs logic.
func (t *FrameTimer) SetRates(fps, lps int) {
	if fps <= 0 || lps <= 0 {
		panic("stagehand: frame and logic rates must be positive")
	}
	t.fps, t.lps = fps, lps
	t.counter = t.LogicDelay()
}

// FPS returns the draw rate.
func (t *FrameTimer) FPS() int { return t.fps }

// LPS returns the logic rate.
func (t *FrameTimer) LPS() int { return t.lps }

// LogicDelay returns how many draws pass between logic updates when logic is
// slower than drawing, or 0.
func (t *FrameTimer) LogicDelay() int {
	if t.fps > t.lps {
		return t.fps / t.lps
	}
	return 0
}

// FrameDuration is the target wall time of one draw, 1000/fps ms truncated
// to whole milliseconds.
func (t *FrameTimer) FrameDuration() time.Duration {
	return time.Duration(1000/t.fps) * time.Millisecond
}

// Advance accounts for one draw and returns how many logic updates to run
// before it.
func (t *FrameTimer) Advance() int {
	n := 0
	if t.counter >= t.LogicDelay() {
		n = 1
		t.counter = 0
	}
	t.counter++
	if t.fps < t.lps {
		n += t.lps/t.fps - 1
	}
	return n
}

// Clock is the time source for the headless loop.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
