// Package stagehand is a 2D game engine core for [Ebitengine].
//
// Stagehand provides the entity tree, per-actor script queues, scenes with
// asynchronous loading, cameras, deferred deletion, and a fixed-timestep
// game loop that also runs headless for tests.
//
// # Quick start
//
//	type title struct{ stagehand.Scene }
//
//	func (s *title) Preload() { s.Load.Image("logo", "logo.png") }
//
//	func (s *title) Create() {
//		s.Add(stagehand.NewImage(320, 240, "logo"))
//	}
//
//	game, err := stagehand.NewGame(stagehand.DefaultConfig())
//	if err != nil { ... }
//	game.Add("title", &title{})
//	game.Start("title")
//
// # Entities and actors
//
// Every drawable or updatable thing is a [Node]. [Entity] carries the
// transform and children; [Actor] adds a [Scripts] queue. Custom types embed
// one of them and implement any of [Creator], [Updater] and [Releaser].
// Hooks are found through the outermost type, so a type's own Update runs
// even though the tree only holds its embedded Entity.
//
// Entities are never freed where Destroy is called. The [TaskManager]
// releases them at the end of each frame, after drawing.
//
// # Scripts
//
// A [Script] runs once per tick on its actor until it calls Finish.
// Scripts run in recital order; Chain queues a successor:
//
//	a.Recite(stagehand.Sequence(
//		stagehand.TweenPosition(100, 0, 0.5, ease.OutQuad),
//		stagehand.Wait(30),
//		stagehand.Do(func() { a.Destroy(true) }),
//	))
//
// # Scenes
//
// A scene is an actor that owns cameras and a [LoadManager]. Preload queues
// assets, which load a few per tick; Create runs once they are all done.
// [SceneManager.Start] switches scenes at the end of the current tick.
// Scene transitions such as [FillTransition] live on the manager's overlay
// so they survive the switch.
//
// # Headless runs
//
// [Game.Run] steps the same loop without a window. Together with
// [Game.SetTestRunner] and the Inject methods it drives scripted input for
// integration tests and screenshot capture.
//
// [Ebitengine]: https://ebitengine.org
package stagehand
