package ecs

import (
	"github.com/phanxgames/stagehand"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LifecycleEventType is the Donburi event type for stagehand lifecycle
// events. Subscribe to it to observe entity creation, destruction and
// release, and scene starts.
var LifecycleEventType = events.NewEventType[stagehand.LifecycleEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are queued on LifecycleEventType and delivered by ProcessEvents.
func NewDonburiStore(world donburi.World) stagehand.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event stagehand.LifecycleEvent) {
	LifecycleEventType.Publish(s.world, event)
}
