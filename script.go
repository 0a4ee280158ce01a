package stagehand

import (
	"slices"

	"go.uber.org/zap"
)

// Script is one unit of per-tick behavior attached to an actor. Implement it
// by embedding Behavior and defining Advance, which runs once per tick until
// the script calls Finish.
//
//	type blink struct {
//		stagehand.Behavior
//		ticks int
//	}
//
//	func (b *blink) Advance() {
//		e := b.Entity()
//		e.Visible = !e.Visible
//		if b.ticks++; b.ticks == 10 {
//			b.Finish()
//		}
//	}
type Script interface {
	behavior() *Behavior
	Advance()
}

// Preparer is implemented by scripts that need one-time setup when recited.
type Preparer interface {
	Prepare()
}

// Canceler is implemented by scripts that react to abrupt interruption.
type Canceler interface {
	Cancel()
}

// Behavior carries the bookkeeping every Script shares.
type Behavior struct {
	// ID is an optional lookup key for GetScript and ClearScript.
	ID string
	// DeleteOnFinish releases the script when it leaves the queue.
	DeleteOnFinish bool

	finished   bool
	cancelled  bool
	released   bool
	queued     bool
	unprepared bool
	next       Script
	actor      Node
}

func (b *Behavior) behavior() *Behavior { return b }

// Finish marks the script finished. It leaves the queue at the end of the
// current tick's sweep.
func (b *Behavior) Finish() { b.finished = true }

// Finished reports whether Finish was called.
func (b *Behavior) Finished() bool { return b.finished }

// Cancelled reports whether the script was stopped by CancelScripts.
func (b *Behavior) Cancelled() bool { return b.cancelled }

// Released reports whether the script has been released.
func (b *Behavior) Released() bool { return b.released }

// Chain sets the successor recited when this script finishes and returns
// it. Use Sequence to chain several at once.
func (b *Behavior) Chain(next Script) Script {
	b.next = next
	return next
}

// Next returns the chained successor, or nil.
func (b *Behavior) Next() Script { return b.next }

// Actor returns the node the script is attached to.
func (b *Behavior) Actor() Node { return b.actor }

// Entity returns the base entity of the attached node, or nil.
func (b *Behavior) Entity() *Entity {
	if b.actor == nil {
		return nil
	}
	return b.actor.Base()
}

// Context returns the attached node's context, or nil.
func (b *Behavior) Context() *Context {
	if e := b.Entity(); e != nil {
		return e.ctx
	}
	return nil
}

// Scripts is the ordered queue of active scripts an Actor embeds.
type Scripts struct {
	list   []Script
	runBuf []Script
	paused bool
	owner  Node
}

// ScriptQueue returns the queue itself. It lets the tree find the queue on
// any type embedding Scripts.
func (q *Scripts) ScriptQueue() *Scripts { return q }

// attach binds the queue to its owner and prepares scripts recited before
// the owner joined a tree.
func (q *Scripts) attach(owner Node) {
	q.owner = owner
	for _, s := range slices.Clone(q.list) {
		b := s.behavior()
		b.actor = owner
		if b.unprepared {
			prepare(s)
		}
	}
}

// Recite attaches s to the end of the queue and runs its Prepare hook once.
// Returns s.
func (q *Scripts) Recite(s Script) Script {
	if s == nil {
		panic("stagehand: cannot recite nil script")
	}
	b := s.behavior()
	if b.queued {
		panic("stagehand: script already recited")
	}
	b.finished = false
	b.cancelled = false
	b.released = false
	b.queued = true
	b.actor = q.owner
	q.list = append(q.list, s)
	if q.owner != nil {
		prepare(s)
	} else {
		b.unprepared = true
	}
	return s
}

func prepare(s Script) {
	s.behavior().unprepared = false
	if p, ok := s.(Preparer); ok {
		p.Prepare()
	}
}

// ReciteScripts advances every unfinished script once, then sweeps finished
// scripts out of the queue. Chained successors are recited after the sweep
// and first advance on the next tick.
func (q *Scripts) ReciteScripts() {
	if len(q.list) == 0 || q.paused {
		return
	}

	run := append(q.runBuf[:0], q.list...)
	for _, s := range run {
		b := s.behavior()
		if !b.queued || b.finished {
			continue
		}
		s.Advance()
	}
	clear(run)
	q.runBuf = run[:0]

	var chained []Script
	list := q.list
	q.list = nil
	kept := list[:0]
	for _, s := range list {
		b := s.behavior()
		if !b.finished {
			kept = append(kept, s)
			continue
		}
		b.queued = false
		if b.next != nil {
			chained = append(chained, b.next)
		}
		if b.DeleteOnFinish {
			release(s)
		}
	}
	clear(list[len(kept):])
	q.list = append(kept, q.list...)

	for _, s := range chained {
		q.Recite(s)
	}
}

// NumScripts returns the number of scripts in the queue.
func (q *Scripts) NumScripts() int { return len(q.list) }

// ActiveScripts returns the queue. The returned slice MUST NOT be mutated by the caller.
func (q *Scripts) ActiveScripts() []Script { return q.list }

// IsActing reports whether any script is queued.
func (q *Scripts) IsActing() bool { return len(q.list) > 0 }

// GetScript returns the first queued script with the given ID, or nil.
func (q *Scripts) GetScript(id string) Script {
	for _, s := range q.list {
		if s.behavior().ID == id {
			return s
		}
	}
	return nil
}

// ClearScript removes the first script with the given ID immediately,
// reciting its successor and releasing it when DeleteOnFinish is set.
// Reports whether a script was found.
func (q *Scripts) ClearScript(id string) bool {
	for i, s := range q.list {
		b := s.behavior()
		if b.ID != id {
			continue
		}
		q.list = slices.Delete(q.list, i, i+1)
		b.queued = false
		if b.next != nil {
			q.Recite(b.next)
		}
		if b.DeleteOnFinish {
			release(s)
		}
		return true
	}
	q.logger().Debug("script not found", zap.String("id", id))
	return false
}

// ClearScripts empties the queue without running chains, releasing
// DeleteOnFinish scripts.
func (q *Scripts) ClearScripts() {
	list := q.list
	q.list = nil
	for _, s := range list {
		b := s.behavior()
		b.queued = false
		if b.DeleteOnFinish {
			release(s)
		}
	}
}

// CancelScripts calls each script's Cancel hook, releases it, and empties the
// queue. Successors are never recited.
func (q *Scripts) CancelScripts() {
	list := q.list
	q.list = nil
	for _, s := range list {
		b := s.behavior()
		b.queued = false
		b.cancelled = true
		if c, ok := s.(Canceler); ok {
			c.Cancel()
		}
		release(s)
	}
}

// PauseActing stops ReciteScripts until ResumeActing. The queue is untouched.
func (q *Scripts) PauseActing() { q.paused = true }

// ResumeActing undoes PauseActing.
func (q *Scripts) ResumeActing() { q.paused = false }

// IsActingPaused reports whether acting is paused.
func (q *Scripts) IsActingPaused() bool { return q.paused }

func (q *Scripts) logger() *zap.Logger {
	if q.owner != nil {
		if ctx := q.owner.Base().ctx; ctx != nil {
			return ctx.Log.Named("scripts")
		}
	}
	return zap.NewNop()
}

func release(s Script) {
	b := s.behavior()
	if b.released {
		return
	}
	b.released = true
	if r, ok := s.(Releaser); ok {
		r.Release()
	}
}

// Actor is an Entity that runs a queue of scripts each tick before its
// Update hook.
type Actor struct {
	Entity
	Scripts
}

// NewActor creates an actor with default transform values.
func NewActor() *Actor {
	a := &Actor{}
	a.Defaults()
	return a
}
