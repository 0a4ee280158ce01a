package stagehand

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// defaultTapTime is how many ticks a press may last and still count as a tap.
const defaultTapTime = 15

// Key tracks one digital input across ticks.
type Key struct {
	Code ebiten.Key
	// TapTime is the tap window in ticks.
	TapTime int

	isDown      bool
	justDown    bool
	justUp      bool
	tapped      bool
	held        bool
	activated   bool
	downCounter int
}

// NewKey creates a key with the default tap window.
func NewKey(code ebiten.Key) *Key {
	return &Key{Code: code, TapTime: defaultTapTime}
}

// Press records a press. Repeated presses while down only re-activate.
func (k *Key) Press() {
	if !k.isDown {
		k.isDown = true
		k.downCounter = 0
		k.justDown = true
		k.held = false
	}
	k.activated = true
}

// Release records a release. A release within the tap window marks a tap.
func (k *Key) Release() {
	k.justUp = true
	k.justDown = false
	k.isDown = false
	k.activated = false
	k.held = false
	if k.downCounter < k.TapTime {
		k.tapped = true
	}
}

// Manage advances the key one tick, clearing one-tick flags.
func (k *Key) Manage() {
	k.justUp = false
	k.justDown = false
	k.tapped = false
	if k.isDown {
		k.downCounter++
		if k.downCounter > k.TapTime {
			k.held = true
		}
	}
	k.activated = false
}

func (k *Key) IsDown() bool    { return k.isDown }
func (k *Key) JustDown() bool  { return k.justDown }
func (k *Key) JustUp() bool    { return k.justUp }
func (k *Key) Tapped() bool    { return k.tapped }
func (k *Key) Held() bool      { return k.held }
func (k *Key) Activated() bool { return k.activated }

// DownTicks returns how many ticks the key has been held.
func (k *Key) DownTicks() int { return k.downCounter }

// Keyboard owns a Key per ebiten key code.
type Keyboard struct {
	keys map[ebiten.Key]*Key

	// LastDown is the most recently pressed key, or nil.
	LastDown *Key
	pressed  []ebiten.Key
}

// NewKeyboard creates an empty keyboard.
func NewKeyboard() *Keyboard {
	return &Keyboard{keys: make(map[ebiten.Key]*Key)}
}

// AddKey returns the Key for code, creating it if needed.
func (kb *Keyboard) AddKey(code ebiten.Key) *Key {
	if k, ok := kb.keys[code]; ok {
		return k
	}
	k := NewKey(code)
	kb.keys[code] = k
	return k
}

// Get returns the Key for code, or nil if it was never added or pressed.
func (kb *Keyboard) Get(code ebiten.Key) *Key {
	return kb.keys[code]
}

// Press presses code, creating its Key on first use.
func (kb *Keyboard) Press(code ebiten.Key) {
	k := kb.AddKey(code)
	k.Press()
	kb.LastDown = k
	kb.pressed = append(kb.pressed, code)
}

// Release releases code. Unknown keys are ignored.
func (kb *Keyboard) Release(code ebiten.Key) {
	if k := kb.keys[code]; k != nil {
		k.Release()
	}
}

// PressedThisTick returns the key codes pressed since the last Manage.
// The returned slice MUST NOT be mutated by the caller.
func (kb *Keyboard) PressedThisTick() []ebiten.Key {
	return kb.pressed
}

// Manage advances every key one tick.
func (kb *Keyboard) Manage() {
	for _, k := range kb.keys {
		k.Manage()
	}
	kb.pressed = kb.pressed[:0]
}

// Mouse tracks the cursor, buttons and wheel in logical screen coordinates.
type Mouse struct {
	X, Y           float64
	WheelX, WheelY float64
	Moved          bool

	Left   *Key
	Right  *Key
	Middle *Key
}

// NewMouse creates a mouse with all buttons up.
func NewMouse() *Mouse {
	return &Mouse{
		Left:   NewKey(-1),
		Right:  NewKey(-1),
		Middle: NewKey(-1),
	}
}

// Button returns the Key for b.
func (m *Mouse) Button(b MouseButton) *Key {
	switch b {
	case MouseButtonRight:
		return m.Right
	case MouseButtonMiddle:
		return m.Middle
	default:
		return m.Left
	}
}

// Manage advances the buttons one tick and clears wheel and motion state.
func (m *Mouse) Manage() {
	m.Left.Manage()
	m.Right.Manage()
	m.Middle.Manage()
	m.WheelX, m.WheelY = 0, 0
	m.Moved = false
}

// InputManager groups the keyboard and mouse.
type InputManager struct {
	Keyboard *Keyboard
	Mouse    *Mouse
}

// NewInputManager creates a keyboard and mouse.
func NewInputManager() *InputManager {
	return &InputManager{Keyboard: NewKeyboard(), Mouse: NewMouse()}
}

// Manage advances keyboard and mouse one tick.
func (im *InputManager) Manage() {
	im.Keyboard.Manage()
	im.Mouse.Manage()
}

// InputEventKind identifies a queued input event.
type InputEventKind uint8

const (
	InputKeyDown InputEventKind = iota
	InputKeyUp
	InputMouseMove
	InputMouseDown
	InputMouseUp
	InputMouseWheel
	InputQuit
)

// InputEvent is one input occurrence fed to the game between ticks. Real
// device input and synthetic test input share this path.
type InputEvent struct {
	Kind   InputEventKind
	Key    ebiten.Key
	Button MouseButton
	X, Y   float64
}

// Apply feeds ev into the input state. Quit events are ignored here.
func (im *InputManager) Apply(ev InputEvent) {
	switch ev.Kind {
	case InputKeyDown:
		im.Keyboard.Press(ev.Key)
	case InputKeyUp:
		im.Keyboard.Release(ev.Key)
	case InputMouseMove:
		im.Mouse.X, im.Mouse.Y = ev.X, ev.Y
		im.Mouse.Moved = true
	case InputMouseDown:
		im.Mouse.X, im.Mouse.Y = ev.X, ev.Y
		im.Mouse.Button(ev.Button).Press()
	case InputMouseUp:
		im.Mouse.X, im.Mouse.Y = ev.X, ev.Y
		im.Mouse.Button(ev.Button).Release()
	case InputMouseWheel:
		im.Mouse.WheelX += ev.X
		im.Mouse.WheelY += ev.Y
	}
}

var ebitenButtons = [...]struct {
	button MouseButton
	ebiten ebiten.MouseButton
}{
	{MouseButtonLeft, ebiten.MouseButtonLeft},
	{MouseButtonRight, ebiten.MouseButtonRight},
	{MouseButtonMiddle, ebiten.MouseButtonMiddle},
}

// ebitenPoller turns Ebitengine's polled device state into InputEvents.
type ebitenPoller struct {
	keys         []ebiten.Key
	lastX, lastY int
}

// poll appends this frame's events to buf. Call once per ebiten Update.
func (p *ebitenPoller) poll(buf []InputEvent) []InputEvent {
	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		buf = append(buf, InputEvent{Kind: InputKeyDown, Key: k})
	}
	p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
	for _, k := range p.keys {
		buf = append(buf, InputEvent{Kind: InputKeyUp, Key: k})
	}

	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)
	if x != p.lastX || y != p.lastY {
		buf = append(buf, InputEvent{Kind: InputMouseMove, X: fx, Y: fy})
		p.lastX, p.lastY = x, y
	}
	for _, b := range ebitenButtons {
		if inpututil.IsMouseButtonJustPressed(b.ebiten) {
			buf = append(buf, InputEvent{Kind: InputMouseDown, Button: b.button, X: fx, Y: fy})
		}
		if inpututil.IsMouseButtonJustReleased(b.ebiten) {
			buf = append(buf, InputEvent{Kind: InputMouseUp, Button: b.button, X: fx, Y: fy})
		}
	}
	if wx, wy := ebiten.Wheel(); wx != 0 || wy != 0 {
		buf = append(buf, InputEvent{Kind: InputMouseWheel, X: wx, Y: wy})
	}
	return buf
}
