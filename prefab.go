package stagehand

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityConfig describes an entity tree in YAML or JSON. Optional fields
// left unset keep the entity's current value.
//
//	- id: player
//	  type: sprite
//	  x: 32
//	  y: 48
//	  depth: 2
//	  children:
//	    - id: shadow
//	      alpha: 0.5
type EntityConfig struct {
	ID            string         `yaml:"id,omitempty" json:"id,omitempty"`
	Type          string         `yaml:"type,omitempty" json:"type,omitempty"`
	X             float64        `yaml:"x,omitempty" json:"x,omitempty"`
	Y             float64        `yaml:"y,omitempty" json:"y,omitempty"`
	ScaleX        *float64       `yaml:"scale_x,omitempty" json:"scale_x,omitempty"`
	ScaleY        *float64       `yaml:"scale_y,omitempty" json:"scale_y,omitempty"`
	ScrollFactorX *float64       `yaml:"scroll_factor_x,omitempty" json:"scroll_factor_x,omitempty"`
	ScrollFactorY *float64       `yaml:"scroll_factor_y,omitempty" json:"scroll_factor_y,omitempty"`
	Angle         float64        `yaml:"angle,omitempty" json:"angle,omitempty"`
	Alpha         *float64       `yaml:"alpha,omitempty" json:"alpha,omitempty"`
	Depth         int            `yaml:"depth,omitempty" json:"depth,omitempty"`
	Visible       *bool          `yaml:"visible,omitempty" json:"visible,omitempty"`
	Props         map[string]any `yaml:"props,omitempty" json:"props,omitempty"`
	Children      []EntityConfig `yaml:"children,omitempty" json:"children,omitempty"`
}

// ParseEntityConfigs decodes a list of configs, or a single config, from
// YAML or JSON.
func ParseEntityConfigs(data []byte) ([]EntityConfig, error) {
	var list []EntityConfig
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one EntityConfig
	if err := yaml.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("stagehand: parse entity config: %w", err)
	}
	return []EntityConfig{one}, nil
}

// LoadEntityConfigs reads a config file.
func LoadEntityConfigs(path string) ([]EntityConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stagehand: read entity config: %w", err)
	}
	return ParseEntityConfigs(data)
}

// Configure applies cfg's transform fields to e. Children are not touched.
func (e *Entity) Configure(cfg EntityConfig) *Entity {
	if !e.defaulted {
		e.Defaults()
	}
	if cfg.ID != "" {
		e.ID = cfg.ID
	}
	e.X, e.Y = cfg.X, cfg.Y
	if cfg.ScaleX != nil {
		e.ScaleX = *cfg.ScaleX
	}
	if cfg.ScaleY != nil {
		e.ScaleY = *cfg.ScaleY
	}
	if cfg.ScrollFactorX != nil {
		e.ScrollFactorX = *cfg.ScrollFactorX
	}
	if cfg.ScrollFactorY != nil {
		e.ScrollFactorY = *cfg.ScrollFactorY
	}
	e.Angle = cfg.Angle
	if cfg.Alpha != nil {
		e.Alpha = *cfg.Alpha
	}
	e.Depth = cfg.Depth
	if cfg.Visible != nil {
		e.Visible = *cfg.Visible
	}
	return e
}

func ptr[T any](v T) *T { return &v }

// Config captures e and its live children as a config tree.
func (e *Entity) Config() EntityConfig {
	cfg := EntityConfig{
		ID:            e.ID,
		Type:          e.prefabType,
		Props:         maps.Clone(e.props),
		X:             e.X,
		Y:             e.Y,
		ScaleX:        ptr(e.ScaleX),
		ScaleY:        ptr(e.ScaleY),
		ScrollFactorX: ptr(e.ScrollFactorX),
		ScrollFactorY: ptr(e.ScrollFactorY),
		Angle:         e.Angle,
		Alpha:         ptr(e.Alpha),
		Depth:         e.Depth,
		Visible:       ptr(e.Visible),
	}
	for _, c := range e.children {
		cb := c.Base()
		if cb.destroyed || cb.parent != e {
			continue
		}
		cfg.Children = append(cfg.Children, cb.Config())
	}
	return cfg
}

// MarshalJSON encodes the entity as its EntityConfig.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Config())
}

// PrefabType returns the registry type the entity was built from, or "".
func (e *Entity) PrefabType() string { return e.prefabType }

// PrefabFunc builds the node for a config type. The registry configures
// the returned node and builds its children afterwards.
type PrefabFunc func(cfg EntityConfig) (Node, error)

// PrefabRegistry maps config types to constructors. The empty type builds
// a plain Actor.
type PrefabRegistry struct {
	types map[string]PrefabFunc
}

// NewPrefabRegistry creates a registry with no custom types.
func NewPrefabRegistry() *PrefabRegistry {
	return &PrefabRegistry{types: make(map[string]PrefabFunc)}
}

// Register binds name to fn, replacing any earlier binding.
func (r *PrefabRegistry) Register(name string, fn PrefabFunc) {
	r.types[name] = fn
}

// Build constructs the tree described by cfg. Nodes are not yet in a tree;
// add the result to a scene to run Create hooks.
func (r *PrefabRegistry) Build(cfg EntityConfig) (Node, error) {
	var n Node
	if cfg.Type == "" {
		n = NewActor()
	} else {
		var fn PrefabFunc
		if r != nil {
			fn = r.types[cfg.Type]
		}
		if fn == nil {
			return nil, fmt.Errorf("stagehand: unknown prefab type %q", cfg.Type)
		}
		var err error
		if n, err = fn(cfg); err != nil {
			return nil, fmt.Errorf("stagehand: build prefab %q: %w", cfg.Type, err)
		}
		b := n.Base()
		b.prefabType = cfg.Type
		b.props = maps.Clone(cfg.Props)
	}
	n.Base().Configure(cfg)
	for _, cc := range cfg.Children {
		child, err := r.Build(cc)
		if err != nil {
			return nil, err
		}
		n.Base().Add(child)
	}
	return n, nil
}

// NewEntityFromConfig builds an Actor tree from cfg. Custom types need a
// PrefabRegistry.
func NewEntityFromConfig(cfg EntityConfig) (Node, error) {
	var r *PrefabRegistry
	return r.Build(cfg)
}
