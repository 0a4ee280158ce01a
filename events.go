package stagehand

// EntityStore is the interface for optional ECS integration.
// When set on a Context, entity lifecycle events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event LifecycleEvent)
}

// LifecycleEventType identifies a lifecycle transition.
type LifecycleEventType uint8

const (
	EventEntityCreated   LifecycleEventType = iota // fires when an entity is initialized into a tree
	EventEntityDestroyed                           // fires when Destroy marks an entity
	EventEntityReleased                            // fires when the TaskManager drains an entity
	EventSceneStarted                              // fires when a scene begins preloading
	EventSceneCreated                              // fires once a scene has loaded and created
)

func (t LifecycleEventType) String() string {
	switch t {
	case EventEntityCreated:
		return "created"
	case EventEntityDestroyed:
		return "destroyed"
	case EventEntityReleased:
		return "released"
	case EventSceneStarted:
		return "scene-started"
	case EventSceneCreated:
		return "scene-created"
	default:
		return "unknown"
	}
}

// LifecycleEvent carries lifecycle data for the ECS bridge.
type LifecycleEvent struct {
	Type   LifecycleEventType
	Handle Handle
	ID     string
	// Scene is the key of the scene involved, when known.
	Scene string
}
