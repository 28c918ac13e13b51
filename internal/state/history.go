package state

import "sync/atomic"

// DefaultCapacity is the number of samples kept when no capacity is given.
const DefaultCapacity = 10000

// Generation is one incarnation of the ring storage. Reset never touches an
// existing Generation, so a reader holding one sees consistent data.
type Generation struct {
	id    uint64
	slots []atomic.Pointer[Sample]
	next  atomic.Uint64 // writes claimed so far
}

func newGeneration(id uint64, capacity int) *Generation {
	return &Generation{id: id, slots: make([]atomic.Pointer[Sample], capacity)}
}

func (g *Generation) ID() uint64 { return g.id }

func (g *Generation) Capacity() int { return len(g.slots) }

// Cursor returns the slot the next sample will be written to.
func (g *Generation) Cursor() int {
	return int(g.next.Load() % uint64(len(g.slots)))
}

// Len returns the number of filled slots.
func (g *Generation) Len() int {
	n := g.next.Load()
	if n > uint64(len(g.slots)) {
		return len(g.slots)
	}
	return int(n)
}

// Wrapped reports whether the ring has overwritten at least one sample.
func (g *Generation) Wrapped() bool {
	return g.next.Load() > uint64(len(g.slots))
}

func (g *Generation) record(s *Sample) {
	n := g.next.Add(1) - 1
	g.slots[n%uint64(len(g.slots))].Store(s)
}

// Snapshot copies the filled slots in slot order. After the ring wrapped the
// order is not chronological; slot 0 holds the newest of the overwritten range.
func (g *Generation) Snapshot() []Sample {
	out := make([]Sample, 0, g.Len())
	for i := range g.slots {
		if s := g.slots[i].Load(); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// History is the fixed-capacity touch ring shared by the input path and the
// render loop. Record never blocks and never fails; readers tolerate a sample
// that is being written concurrently.
type History struct {
	capacity int
	dirty    *Flag
	session  *Session
	gen      atomic.Pointer[Generation]
}

// NewHistory creates a ring of the given capacity. A nil dirty flag or
// session gets a private one.
func NewHistory(capacity int, dirty *Flag, session *Session) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if dirty == nil {
		dirty = &Flag{}
	}
	if session == nil {
		session = NewSession()
	}
	h := &History{capacity: capacity, dirty: dirty, session: session}
	h.gen.Store(newGeneration(session.Generation(), capacity))
	return h
}

func (h *History) Capacity() int { return h.capacity }

func (h *History) Dirty() *Flag { return h.dirty }

// Current returns the live generation. Holding it across a Reset keeps the
// pre-reset contents readable.
func (h *History) Current() *Generation { return h.gen.Load() }

// Cursor returns the write position in the live generation.
func (h *History) Cursor() int { return h.gen.Load().Cursor() }

// Record appends a sample at the cursor and marks the history dirty.
func (h *History) Record(finger int, x, y, pressure float32) {
	h.gen.Load().record(&Sample{Finger: finger, X: x, Y: y, Pressure: pressure})
	h.dirty.Mark()
}

// Reset swaps in fresh, empty storage. A render pass already reading the old
// generation finishes against it.
func (h *History) Reset() uint64 {
	id := h.session.nextGeneration()
	h.gen.Store(newGeneration(id, h.capacity))
	h.dirty.Mark()
	return id
}

// Snapshot copies the live generation in slot order.
func (h *History) Snapshot() []Sample { return h.gen.Load().Snapshot() }
