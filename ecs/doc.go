// Package ecs provides ECS adapters for stagehand.
//
// [NewDonburiStore] forwards stagehand entity and scene lifecycle events
// into a [Donburi] world as typed events. Subscribe to [LifecycleEventType]
// in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	game.Context().SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
