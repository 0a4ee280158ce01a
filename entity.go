package stagehand

import (
	"cmp"
	"slices"
)

// Node is anything that can live in the entity tree. Embedding Entity (or
// Actor) satisfies it; a type may override Run or Draw and call the embedded
// version to keep the default traversal.
type Node interface {
	Base() *Entity
	Run()
	Draw(vx, vy, vw, vh int)
}

// Creator is implemented by nodes that want a hook once they join a tree.
type Creator interface {
	Create()
}

// Updater is implemented by nodes with per-tick logic.
type Updater interface {
	Update()
}

// Releaser is implemented by nodes and scripts that hold resources to free
// when the TaskManager drains them.
type Releaser interface {
	Release()
}

// scripted is satisfied by anything embedding Scripts.
type scripted interface {
	ScriptQueue() *Scripts
}

// Entity is the base scene-tree node: transform, flags, and owned children.
type Entity struct {
	ID string

	X, Y                         float64
	ScaleX, ScaleY               float64
	ScrollFactorX, ScrollFactorY float64
	// Angle is in degrees, clockwise.
	Angle float64
	Alpha float64
	// Depth orders siblings for drawing. Ties keep insertion order.
	Depth   int
	Visible bool

	active    bool
	destroyed bool
	released  bool
	created   bool
	defaulted bool

	self     Node
	ctx      *Context
	scene    *Scene
	parent   *Entity
	children []Node
	iterBuf  []Node
	handle   Handle

	// lastRun and addedTick are context tick stamps.
	lastRun   uint64
	addedTick uint64

	// prefabType and props record how a PrefabRegistry built the entity.
	prefabType string
	props      map[string]any
}

// NewEntity creates a bare entity with default transform values.
func NewEntity() *Entity {
	e := &Entity{}
	e.Defaults()
	return e
}

// Defaults resets scale, scroll factor, alpha and visibility to their
// defaults. Zero-valued embedded entities receive these when first added to
// a tree, so call Defaults first when setting those fields before adding.
func (e *Entity) Defaults() *Entity {
	e.ScaleX, e.ScaleY = 1, 1
	e.ScrollFactorX, e.ScrollFactorY = 1, 1
	e.Alpha = 1
	e.Visible = true
	e.defaulted = true
	return e
}

// Base returns the entity itself.
func (e *Entity) Base() *Entity { return e }

// SetID sets the string identifier.
func (e *Entity) SetID(id string) *Entity {
	e.ID = id
	return e
}

// Context returns the shared game context, or nil before the entity joins a tree.
func (e *Entity) Context() *Context { return e.ctx }

// Scene returns the owning scene, or nil.
func (e *Entity) Scene() *Scene { return e.scene }

// Parent returns the parent entity, or nil for roots and orphans.
func (e *Entity) Parent() *Entity { return e.parent }

// Self returns the outermost node this entity was added as.
func (e *Entity) Self() Node {
	if e.self == nil {
		return e
	}
	return e.self
}

// Handle returns the TaskManager handle, zero until the entity joins a game.
func (e *Entity) Handle() Handle { return e.handle }

// IsActive reports whether the entity takes part in Run.
func (e *Entity) IsActive() bool { return e.active }

// SetActive toggles participation in Run. Destroyed entities stay inactive.
func (e *Entity) SetActive(active bool) *Entity {
	if !e.destroyed {
		e.active = active
	}
	return e
}

// IsDestroyed reports whether Destroy has been called.
func (e *Entity) IsDestroyed() bool { return e.destroyed }

// IsReleased reports whether the TaskManager has drained this entity.
func (e *Entity) IsReleased() bool { return e.released }

// --- Tree manipulation ---

// Add appends n to the children and initializes it with this entity as its
// parent. A node that already has a parent is detached from it first.
// Returns n for chaining. Panics on nil, self, destroyed, or cyclic adds.
func (e *Entity) Add(n Node) Node {
	if n == nil {
		panic("stagehand: cannot add nil node")
	}
	child := n.Base()
	if e.ctx != nil && e.ctx.Debug {
		debugCheckDestroyed(e, "Add (parent)")
	}
	if child.destroyed {
		panic("stagehand: cannot add destroyed entity " + quoteID(child))
	}
	if isAncestor(child, e) {
		panic("stagehand: adding entity would create a cycle")
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	e.children = append(e.children, n)
	child.init(e.ctx, e.scene, e, n)
	if e.ctx != nil && e.ctx.Debug {
		debugCheckTreeDepth(e.ctx.Log, child)
		debugCheckChildCount(e.ctx.Log, e)
	}
	return n
}

// Remove detaches n without destroying it and clears its parent.
// Returns nil if n is not a child of this entity.
func (e *Entity) Remove(n Node) Node {
	if n == nil {
		return nil
	}
	child := n.Base()
	for i, c := range e.children {
		if c.Base() == child {
			return e.RemoveAt(i)
		}
	}
	return nil
}

// RemoveAt detaches and returns the child at index. Its subtree is untouched.
func (e *Entity) RemoveAt(index int) Node {
	if index < 0 || index >= len(e.children) {
		panic("stagehand: child index out of range")
	}
	n := e.children[index]
	e.children = slices.Delete(e.children, index, index+1)
	n.Base().parent = nil
	return n
}

// RemoveFromParent detaches this entity from its parent. No-op for roots.
func (e *Entity) RemoveFromParent() {
	if e.parent != nil {
		e.parent.removeChild(e)
		e.parent = nil
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (e *Entity) Children() []Node {
	return e.children
}

// NumChildren returns the number of children.
func (e *Entity) NumChildren() int {
	return len(e.children)
}

// ChildAt returns the child at the given index.
func (e *Entity) ChildAt(index int) Node {
	return e.children[index]
}

// Find returns the first descendant with the given ID, depth first.
func (e *Entity) Find(id string) Node {
	for _, c := range e.children {
		cb := c.Base()
		if cb.ID == id && !cb.destroyed {
			return c
		}
		if found := cb.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// --- Lifecycle ---

// Destroy detaches the entity from its parent, destroys (recursive) or
// orphans its children, marks it destroyed, and queues it for deferred
// release. Memory is never released inside Destroy. Calling it twice is a no-op.
func (e *Entity) Destroy(recursive bool) {
	if e.destroyed {
		return
	}
	e.RemoveFromParent()

	kids := e.children
	e.children = nil
	for _, c := range kids {
		cb := c.Base()
		if cb.parent != e {
			continue
		}
		cb.parent = nil
		if recursive {
			cb.Destroy(true)
		}
	}
	clear(kids)

	e.destroyed = true
	e.active = false
	if e.ctx != nil {
		e.ctx.emit(LifecycleEvent{Type: EventEntityDestroyed, Handle: e.handle, ID: e.ID, Scene: sceneKey(e.scene)})
		if e.ctx.Tasks != nil {
			e.ctx.Tasks.QueueDeletion(e.Self())
		}
	}
}

// init wires an entity into a tree. Create runs once, the first time the
// entity has a context.
func (e *Entity) init(ctx *Context, scene *Scene, parent *Entity, self Node) {
	if !e.defaulted {
		e.Defaults()
	}
	e.parent = parent
	e.self = self
	e.active = true
	if ctx != nil {
		e.addedTick = ctx.tick
	}
	e.bind(ctx, scene)
}

func (e *Entity) bind(ctx *Context, scene *Scene) {
	e.scene = scene
	if ctx == nil {
		return
	}
	e.ctx = ctx
	if s, ok := e.self.(scripted); ok {
		s.ScriptQueue().attach(e.self)
	}
	if e.handle.IsZero() && ctx.Tasks != nil {
		e.handle = ctx.Tasks.Register(e.Self())
	}
	if !e.created {
		e.created = true
		ctx.emit(LifecycleEvent{Type: EventEntityCreated, Handle: e.handle, ID: e.ID, Scene: sceneKey(scene)})
		if c, ok := e.self.(Creator); ok {
			c.Create()
		}
	}
	for _, c := range slices.Clone(e.children) {
		cb := c.Base()
		if cb.parent != e || (cb.ctx == ctx && cb.scene == scene && cb.created) {
			continue
		}
		cb.bind(ctx, scene)
	}
}

// release is called once by the TaskManager at the drain point.
func (e *Entity) release() {
	if e.released {
		return
	}
	e.released = true
	if s, ok := e.self.(scripted); ok {
		s.ScriptQueue().ClearScripts()
	}
	if r, ok := e.self.(Releaser); ok {
		r.Release()
	}
	clear(e.iterBuf)
	e.iterBuf = nil
	e.children = nil
	e.parent = nil
	e.scene = nil
	e.handle = 0
}

// --- Traversal ---

// Run advances this entity for one tick: scripts (for actors), the Update
// hook, then every live child in current order. The child list is
// snapshotted before any hook runs, and nodes attached anywhere in the tree
// during the tick start running next tick. A node runs at most once per
// tick even if it moves under a parent that runs later. A root called
// outside a tick opens one for its subtree.
func (e *Entity) Run() {
	if !e.active || e.destroyed {
		return
	}
	if ctx := e.ctx; ctx != nil {
		if ctx.beginTick() {
			defer ctx.endTick()
		}
		if e.lastRun == ctx.tick {
			return
		}
		e.lastRun = ctx.tick
	}
	snapshot := e.snapshotChildren()
	if s, ok := e.self.(scripted); ok {
		s.ScriptQueue().ReciteScripts()
	}
	if u, ok := e.self.(Updater); ok {
		u.Update()
	}
	if !e.destroyed {
		e.runSnapshot(snapshot)
	}
	e.recycle(snapshot)
}

// snapshotChildren copies the child list into the reusable buffer. The
// caller owns the buffer until recycle.
func (e *Entity) snapshotChildren() []Node {
	snapshot := append(e.iterBuf[:0], e.children...)
	e.iterBuf = nil
	return snapshot
}

func (e *Entity) recycle(snapshot []Node) {
	clear(snapshot)
	if !e.released && e.iterBuf == nil {
		e.iterBuf = snapshot[:0]
	}
}

func (e *Entity) runSnapshot(snapshot []Node) {
	ctx := e.ctx
	for _, c := range snapshot {
		cb := c.Base()
		if cb.destroyed || cb.parent != e {
			continue
		}
		if ctx != nil && ctx.ticking && cb.addedTick == ctx.tick {
			continue
		}
		c.Run()
	}
}

// Draw draws every visible child with this entity's inherited draw state.
// The entity itself has no visual; renderable types override Draw, render
// themselves, then call the embedded Draw for their children.
func (e *Entity) Draw(vx, vy, vw, vh int) {
	if !e.Visible || e.destroyed || e.ctx == nil {
		return
	}
	e.drawChildren(vx, vy, vw, vh)
}

func (e *Entity) drawChildren(vx, vy, vw, vh int) {
	ctx := e.ctx
	in := ctx.State
	e.Alpha = clamp01(e.Alpha)
	rec := in.Push(e)

	e.sortChildren()
	snapshot := e.snapshotChildren()
	for _, c := range snapshot {
		ctx.State = rec
		cb := c.Base()
		if cb.destroyed || cb.parent != e {
			continue
		}
		c.Draw(vx, vy, vw, vh)
	}
	e.recycle(snapshot)
	ctx.State = in
}

// sortChildren stable-sorts children by depth ascending.
func (e *Entity) sortChildren() {
	sortByDepth(e.children)
}

func sortByDepth[N Node](nodes []N) {
	if len(nodes) < 2 {
		return
	}
	slices.SortStableFunc(nodes, func(a, b N) int {
		return cmp.Compare(a.Base().Depth, b.Base().Depth)
	})
}

// --- Helpers ---

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Entity) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChild removes child from e.children without clearing child.parent.
func (e *Entity) removeChild(child *Entity) {
	for i, c := range e.children {
		if c.Base() == child {
			e.children = slices.Delete(e.children, i, i+1)
			return
		}
	}
}

func sceneKey(s *Scene) string {
	if s == nil {
		return ""
	}
	return s.Key
}

func quoteID(e *Entity) string {
	if e.ID == "" {
		return "(unnamed)"
	}
	return `"` + e.ID + `"`
}
