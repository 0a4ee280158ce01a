package stagehand

import "go.uber.org/zap"

// Handle is a generational reference to an entity slot. It encodes a 32-bit
// slot index in the lower bits and a 32-bit generation in the upper bits.
// The generation bumps when the slot is released, so stale handles resolve
// to nil instead of a recycled entity.
type Handle uint64

func newHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

type taskSlot struct {
	node       Node
	generation uint32
	queued     bool
}

// TaskManager owns the deferred-deletion arena. Destroyed entities stay
// tombstoned in their slot until Run drains the queue at the end of a frame.
type TaskManager struct {
	slots    []taskSlot
	freeList []uint32
	queue    []uint32
	log      *zap.Logger

	// OnRelease, when set, is called for each entity just before it is released.
	OnRelease func(Node)
}

// NewTaskManager creates an empty arena.
func NewTaskManager(log *zap.Logger) *TaskManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskManager{
		slots:    make([]taskSlot, 0, 256),
		freeList: make([]uint32, 0, 64),
		queue:    make([]uint32, 0, 64),
		log:      log.Named("tasks"),
	}
}

// Register allocates a slot for n and returns its handle.
func (t *TaskManager) Register(n Node) Handle {
	var idx uint32
	if len(t.freeList) > 0 {
		idx = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, taskSlot{generation: 1})
	}
	t.slots[idx].node = n
	return newHandle(idx, t.slots[idx].generation)
}

// Resolve returns the node behind h, or nil if h is stale or zero. A
// destroyed node still resolves until the queue is drained.
func (t *TaskManager) Resolve(h Handle) Node {
	idx := h.Index()
	if h.IsZero() || int(idx) >= len(t.slots) {
		return nil
	}
	s := &t.slots[idx]
	if s.generation != h.Generation() {
		return nil
	}
	return s.node
}

// QueueDeletion tombstones n for release at the next Run. An entity is queued
// at most once; unregistered entities are registered first.
func (t *TaskManager) QueueDeletion(n Node) {
	e := n.Base()
	if t.Resolve(e.handle) == nil {
		e.handle = t.Register(n)
	}
	s := &t.slots[e.handle.Index()]
	if s.queued {
		return
	}
	s.queued = true
	t.queue = append(t.queue, e.handle.Index())
}

// Pending returns the number of entities waiting for release.
func (t *TaskManager) Pending() int {
	return len(t.queue)
}

// Live returns the number of occupied slots, tombstoned ones included.
func (t *TaskManager) Live() int {
	return len(t.slots) - len(t.freeList)
}

// Run drains the deletion queue, releasing every queued entity and recycling
// its slot. Entities queued by release hooks are drained in the same call.
// Returns the number released.
func (t *TaskManager) Run() int {
	n := 0
	for i := 0; i < len(t.queue); i++ {
		idx := t.queue[i]
		node := t.slots[idx].node
		if t.OnRelease != nil {
			t.OnRelease(node)
		}
		node.Base().release()

		// Release hooks may register entities and grow slots.
		s := &t.slots[idx]
		s.node = nil
		s.queued = false
		s.generation++
		if s.generation == 0 {
			s.generation = 1
		}
		t.freeList = append(t.freeList, idx)
		n++
	}
	t.queue = t.queue[:0]
	if n > 0 {
		t.log.Debug("released entities", zap.Int("count", n))
	}
	return n
}
