package stagehand

import (
	"encoding/json"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string     `json:"action"`
	Label  string     `json:"label,omitempty"`
	Key    string     `json:"key,omitempty"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	FromX  float64    `json:"fromX,omitempty"`
	FromY  float64    `json:"fromY,omitempty"`
	ToX    float64    `json:"toX,omitempty"`
	ToY    float64    `json:"toY,omitempty"`
	Frames int        `json:"frames,omitempty"`
	key    ebiten.Key
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner plays a scripted sequence of synthetic input, waits and
// screenshots, one step per logic update. Attach it with Game.SetTestRunner.
//
//	{"steps": [
//	  {"action": "tap", "key": "Space"},
//	  {"action": "wait", "frames": 30},
//	  {"action": "screenshot", "label": "after-jump"},
//	  {"action": "quit"}
//	]}
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script. Key names are validated up front.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("stagehand: parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("stagehand: parse test script: no steps")
	}
	for i := range script.Steps {
		st := &script.Steps[i]
		switch st.Action {
		case "press", "release", "tap":
			if err := st.key.UnmarshalText([]byte(st.Key)); err != nil {
				return nil, fmt.Errorf("stagehand: parse test script: step %d: %w", i, err)
			}
		case "move", "click", "drag", "wait", "screenshot", "quit":
		default:
			return nil, fmt.Errorf("stagehand: parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a runner. Pass nil to detach.
func (g *Game) SetTestRunner(r *TestRunner) {
	g.testRunner = r
}

// Done reports whether every step has run and its input has been consumed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one logic update.
func (r *TestRunner) step(g *Game) {
	if r.done {
		return
	}
	if len(g.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "press":
		g.InjectKeyDown(st.key)
	case "release":
		g.InjectKeyUp(st.key)
	case "tap":
		g.InjectKeyTap(st.key)
	case "move":
		g.InjectMove(st.X, st.Y)
	case "click":
		g.InjectClick(st.X, st.Y)
	case "drag":
		g.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	case "screenshot":
		g.Screenshot(st.Label)
	case "quit":
		g.InjectQuit()
	}
	g.log.Debug("test step", zap.Int("step", r.cursor), zap.String("action", st.Action))

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(g.injectQueue) == 0 {
		r.done = true
	}
}
