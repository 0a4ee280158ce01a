package stagehand

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Control is a named action bound to one or more keys. Its state is the
// union of its keys' states, refreshed once per tick.
type Control struct {
	ID   string
	keys []*Key

	isDown    bool
	justDown  bool
	justUp    bool
	tapped    bool
	held      bool
	activated bool
}

// Keys returns the bound keys. The returned slice MUST NOT be mutated by the caller.
func (c *Control) Keys() []*Key { return c.keys }

// AddKey binds k unless it is already bound.
func (c *Control) AddKey(k *Key) {
	for _, existing := range c.keys {
		if existing == k {
			return
		}
	}
	c.keys = append(c.keys, k)
}

// SetKey replaces every binding with k.
func (c *Control) SetKey(k *Key) {
	c.keys = append(c.keys[:0], k)
}

// RemoveKey unbinds k. Reports whether it was bound.
func (c *Control) RemoveKey(k *Key) bool {
	for i, existing := range c.keys {
		if existing == k {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Control) run() {
	c.isDown, c.justDown, c.justUp = false, false, false
	c.tapped, c.held, c.activated = false, false, false
	for _, k := range c.keys {
		c.isDown = c.isDown || k.IsDown()
		c.justDown = c.justDown || k.JustDown()
		c.justUp = c.justUp || k.JustUp()
		c.tapped = c.tapped || k.Tapped()
		c.held = c.held || k.Held()
		c.activated = c.activated || k.Activated()
	}
}

func (c *Control) IsDown() bool    { return c.isDown }
func (c *Control) JustDown() bool  { return c.justDown }
func (c *Control) JustUp() bool    { return c.justUp }
func (c *Control) Tapped() bool    { return c.tapped }
func (c *Control) Held() bool      { return c.held }
func (c *Control) Activated() bool { return c.activated }

// ControlScheme maps control ids to keyboard bindings.
type ControlScheme struct {
	input    *InputManager
	controls map[string]*Control
	order    []*Control
	log      *zap.Logger
}

// NewControlScheme creates an empty scheme over input.
func NewControlScheme(input *InputManager, log *zap.Logger) *ControlScheme {
	if log == nil {
		log = zap.NewNop()
	}
	return &ControlScheme{
		input:    input,
		controls: make(map[string]*Control),
		log:      log.Named("controls"),
	}
}

// NewControl registers a control. An existing id returns the existing control.
func (cs *ControlScheme) NewControl(id string) *Control {
	if c, ok := cs.controls[id]; ok {
		cs.log.Debug("control already exists", zap.String("id", id))
		return c
	}
	c := &Control{ID: id}
	cs.controls[id] = c
	cs.order = append(cs.order, c)
	return c
}

// Get returns the control for id, or nil.
func (cs *ControlScheme) Get(id string) *Control {
	return cs.controls[id]
}

// AddKey binds key to the control id, creating the control if needed.
func (cs *ControlScheme) AddKey(id string, key ebiten.Key) *Control {
	c, ok := cs.controls[id]
	if !ok {
		cs.log.Debug("creating control", zap.String("id", id))
		c = cs.NewControl(id)
	}
	c.AddKey(cs.input.Keyboard.AddKey(key))
	return c
}

// SetKey makes key the only binding of control id, creating it if needed.
func (cs *ControlScheme) SetKey(id string, key ebiten.Key) *Control {
	c, ok := cs.controls[id]
	if !ok {
		cs.log.Debug("creating control", zap.String("id", id))
		c = cs.NewControl(id)
	}
	c.SetKey(cs.input.Keyboard.AddKey(key))
	return c
}

// Run refreshes every control from its keys. The game calls it once per
// tick after input has been applied.
func (cs *ControlScheme) Run() {
	for _, c := range cs.order {
		c.run()
	}
}

func (cs *ControlScheme) query(id string, f func(*Control) bool) bool {
	c, ok := cs.controls[id]
	if !ok {
		cs.log.Debug("control not found", zap.String("id", id))
		return false
	}
	return f(c)
}

// IsDown reports whether any key of control id is down. Unknown ids are false.
func (cs *ControlScheme) IsDown(id string) bool { return cs.query(id, (*Control).IsDown) }

func (cs *ControlScheme) JustDown(id string) bool  { return cs.query(id, (*Control).JustDown) }
func (cs *ControlScheme) JustUp(id string) bool    { return cs.query(id, (*Control).JustUp) }
func (cs *ControlScheme) Tapped(id string) bool    { return cs.query(id, (*Control).Tapped) }
func (cs *ControlScheme) Held(id string) bool      { return cs.query(id, (*Control).Held) }
func (cs *ControlScheme) Activated(id string) bool { return cs.query(id, (*Control).Activated) }

// ControlBindings maps control ids to key names as accepted by
// ebiten.Key.UnmarshalText, for example:
//
//	up: [ArrowUp, W]
//	fire: [Space]
type ControlBindings map[string][]string

// ParseControlBindings decodes YAML bindings.
func ParseControlBindings(data []byte) (ControlBindings, error) {
	var b ControlBindings
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("stagehand: parse control bindings: %w", err)
	}
	return b, nil
}

// Apply adds every binding to cs. Unknown key names are an error; bindings
// before the bad one stay applied.
func (b ControlBindings) Apply(cs *ControlScheme) error {
	for id, names := range b {
		for _, name := range names {
			var k ebiten.Key
			if err := k.UnmarshalText([]byte(name)); err != nil {
				return fmt.Errorf("stagehand: control %q: %w", id, err)
			}
			cs.AddKey(id, k)
		}
	}
	return nil
}

// LoadControlBindings reads a YAML bindings file into cs.
func (cs *ControlScheme) LoadControlBindings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("stagehand: read control bindings: %w", err)
	}
	b, err := ParseControlBindings(data)
	if err != nil {
		return err
	}
	return b.Apply(cs)
}
