package stagehand

import (
	"slices"

	"go.uber.org/zap"
)

// Preloader is implemented by scenes that queue assets before creation.
type Preloader interface {
	Preload()
}

// SceneNode is a scene as the SceneManager stores it. Embedding Scene
// satisfies it.
type SceneNode interface {
	Node
	SceneBase() *Scene
}

// Scene is a top-level actor that owns a camera set, a load queue and its
// entities. Embed it and implement Preload, Create and Update as needed:
//
//	type TitleScene struct {
//		stagehand.Scene
//	}
//
//	func (s *TitleScene) Preload() { s.Load.Image("logo", "logo.png") }
//	func (s *TitleScene) Create()  { s.Add(stagehand.NewImage(0, 0, "logo")) }
type Scene struct {
	Actor

	Key  string
	Game *Game
	Load *LoadManager

	// MainCamera is recreated on every start and covers the resolution.
	MainCamera *Camera

	// ManualPermission makes transitions into this scene wait for
	// PermitTransition instead of finishing as soon as loading does.
	ManualPermission bool

	cameras        []*Camera
	camBuf         []*Camera
	initialLoaded  bool
	initialCreated bool
	permitted      bool
	manager        *SceneManager
}

// SceneBase returns the scene itself.
func (s *Scene) SceneBase() *Scene { return s }

// Loaded reports whether the initial load queue has drained.
func (s *Scene) Loaded() bool { return s.initialLoaded }

// Created reports whether the Create hook has run since the last start.
func (s *Scene) Created() bool { return s.initialCreated }

// PermitTransition lets a waiting transition into this scene finish.
func (s *Scene) PermitTransition() { s.permitted = true }

// TransitionPermitted reports whether a transition may leave its wait phase.
func (s *Scene) TransitionPermitted() bool {
	return s.initialLoaded && (!s.ManualPermission || s.permitted)
}

// Cameras returns the scene's cameras. The returned slice MUST NOT be
// mutated by the caller.
func (s *Scene) Cameras() []*Camera { return s.cameras }

// AddCamera attaches cam to the scene and returns it.
func (s *Scene) AddCamera(cam *Camera) *Camera {
	if cam == nil {
		panic("stagehand: cannot add nil camera")
	}
	if cam.destroyed {
		panic("stagehand: cannot add destroyed camera " + quoteID(&cam.Entity))
	}
	s.cameras = append(s.cameras, cam)
	cam.Entity.init(s.ctx, s, nil, cam)
	return cam
}

// RemoveCamera detaches cam without destroying it. Reports whether it was found.
func (s *Scene) RemoveCamera(cam *Camera) bool {
	i := slices.Index(s.cameras, cam)
	if i < 0 {
		return false
	}
	s.cameras = slices.Delete(s.cameras, i, i+1)
	return true
}

// setup binds the scene to its manager. Scenes emit their own lifecycle
// events, so the generic Create dispatch is suppressed.
func (s *Scene) setup(m *SceneManager, key string, self SceneNode) {
	s.Key = key
	s.manager = m
	s.Game = m.ctx.Game
	if s.Load == nil {
		s.Load = NewLoadManager(m.ctx.Loader, m.ctx.Log)
	}
	s.created = true
	s.Entity.init(m.ctx, s, nil, self)
}

// teardown destroys the scene's cameras and entities and drops its scripts.
func (s *Scene) teardown() {
	for _, cam := range s.cameras {
		cam.Destroy(true)
	}
	clear(s.cameras)
	s.cameras = s.cameras[:0]
	s.MainCamera = nil

	for _, c := range slices.Clone(s.children) {
		c.Base().Destroy(true)
	}
	s.ClearScripts()
}

// start resets the scene and runs its Preload hook.
func (s *Scene) start() {
	ctx := s.ctx
	s.initialLoaded = false
	s.initialCreated = false
	s.permitted = false
	s.active = true
	s.Load.Reset()
	s.teardown()

	s.MainCamera = s.AddCamera(NewCamera(0, 0, ctx.Resolution.Width, ctx.Resolution.Height))
	if p, ok := s.self.(Preloader); ok {
		p.Preload()
	}
	ctx.emit(LifecycleEvent{Type: EventSceneStarted, Handle: s.handle, ID: s.ID, Scene: s.Key})
	ctx.Log.Info("scene started", zap.String("scene", s.Key), zap.Int("load_tasks", s.Load.Len()))
}

// Run advances the scene one tick. Until loading finishes it only steps the
// load queue; the tick that finishes loading runs Create.
func (s *Scene) Run() {
	ctx := s.ctx
	if ctx == nil || !s.active || s.destroyed {
		return
	}
	if ctx.beginTick() {
		defer ctx.endTick()
	}
	if s.lastRun == ctx.tick {
		return
	}
	s.lastRun = ctx.tick
	ctx.CurrentScene = s

	if !s.initialLoaded {
		s.Load.Run()
		if !s.Load.StillLoading() {
			s.initialLoaded = true
			if c, ok := s.self.(Creator); ok {
				c.Create()
			}
			s.initialCreated = true
			ctx.emit(LifecycleEvent{Type: EventSceneCreated, Handle: s.handle, ID: s.ID, Scene: s.Key})
		}
		return
	}

	snapshot := s.snapshotChildren()
	if u, ok := s.self.(Updater); ok {
		u.Update()
	}
	s.ReciteScripts()
	if !s.destroyed {
		s.runSnapshot(snapshot)
	}
	s.recycle(snapshot)

	cams := append(s.camBuf[:0], s.cameras...)
	for _, cam := range cams {
		if !cam.destroyed && cam.addedTick != ctx.tick {
			cam.Run()
		}
	}
	clear(cams)
	s.camBuf = cams[:0]
}

// Draw renders the scene through each camera in depth order. Cameras and
// entities are stable-sorted by depth first.
func (s *Scene) Draw(vx, vy, vw, vh int) {
	ctx := s.ctx
	if ctx == nil || !s.Visible || s.destroyed {
		return
	}
	ctx.CurrentScene = s
	in := ctx.State

	s.cameras = slices.DeleteFunc(s.cameras, func(c *Camera) bool { return c.destroyed })
	sortByDepth(s.cameras)
	s.sortChildren()

	cams := append(s.camBuf[:0], s.cameras...)
	for _, cam := range cams {
		ctx.State = RootState()
		cam.Draw(vx, vy, vw, vh)
	}
	clear(cams)
	s.camBuf = cams[:0]
	ctx.State = in
	ctx.CurrentCamera = nil
}

// SceneManager owns the registered scenes, the current one, and an overlay
// root for nodes that outlive scene switches such as transitions.
type SceneManager struct {
	ctx     *Context
	scenes  map[string]SceneNode
	current SceneNode
	pending SceneNode
	overlay *Entity
	log     *zap.Logger
}

func newSceneManager(ctx *Context) *SceneManager {
	overlay := NewEntity()
	overlay.ID = "overlay"
	overlay.self = overlay
	overlay.active = true
	overlay.created = true
	overlay.ctx = ctx
	return &SceneManager{
		ctx:     ctx,
		scenes:  make(map[string]SceneNode),
		overlay: overlay,
		log:     ctx.Log.Named("scenes"),
	}
}

// Add registers s under key and returns it. Panics on a duplicate key.
func (m *SceneManager) Add(key string, s SceneNode) SceneNode {
	if s == nil {
		panic("stagehand: cannot add nil scene")
	}
	if _, ok := m.scenes[key]; ok {
		panic("stagehand: scene " + key + " already added")
	}
	m.scenes[key] = s
	s.SceneBase().setup(m, key, s)
	return s
}

// Get returns the scene registered under key, or nil.
func (m *SceneManager) Get(key string) SceneNode {
	s, ok := m.scenes[key]
	if !ok {
		m.log.Warn("scene not found", zap.String("scene", key))
		return nil
	}
	return s
}

// Start switches to the scene under key at the end of the current tick.
// Reports false when no such scene exists.
func (m *SceneManager) Start(key string) bool {
	s := m.Get(key)
	if s == nil {
		return false
	}
	m.pending = s
	return true
}

// Restart restarts the current scene at the end of the current tick.
func (m *SceneManager) Restart() {
	if m.current != nil {
		m.pending = m.current
	}
}

// Current returns the running scene, or nil.
func (m *SceneManager) Current() *Scene {
	if m.current == nil {
		return nil
	}
	return m.current.SceneBase()
}

// Overlay returns the root drawn above every scene.
func (m *SceneManager) Overlay() *Entity { return m.overlay }

// StartTransition adds n to the overlay and returns it.
func (m *SceneManager) StartTransition(n Node) Node {
	return m.overlay.Add(n)
}

// Run advances the current scene, then the overlay, as one logic tick.
func (m *SceneManager) Run() {
	if m.ctx.beginTick() {
		defer m.ctx.endTick()
	}
	if m.current != nil {
		m.current.Run()
	}
	m.overlay.Run()
}

// ManageTasks applies a pending scene switch. The outgoing scene is torn
// down and deactivated; the incoming one is started.
func (m *SceneManager) ManageTasks() {
	next := m.pending
	if next == nil {
		return
	}
	m.pending = nil
	if prev := m.current; prev != nil && prev != next {
		ps := prev.SceneBase()
		ps.teardown()
		ps.active = false
		m.log.Debug("scene stopped", zap.String("scene", ps.Key))
	}
	m.current = next
	next.SceneBase().start()
}

// Draw draws the current scene over the full resolution, then the overlay.
func (m *SceneManager) Draw() {
	res := m.ctx.Resolution
	if m.current != nil {
		m.ctx.State = RootState()
		m.current.Draw(0, 0, res.Width, res.Height)
	}
	m.ctx.State = RootState()
	m.overlay.Draw(0, 0, res.Width, res.Height)
}
