package ebitenhost

import (
	"cmp"
	"slices"

	"TouchTrails/internal/state"
)

// maxSlots bounds the simultaneous touches tracked. Beyond the fixed palette
// the tracer decides what to keep.
const maxSlots = 10

type touch struct {
	id   int
	x, y float32
}

// touchSlots gives each touch id a stable finger slot for as long as it is
// down, reusing the lowest free slot for new touches.
type touchSlots struct {
	ids  [maxSlots]int
	used [maxSlots]bool
	last [maxSlots]state.Point
	seen [maxSlots]bool // last holds a position
}

// slot returns the slot of id, allocating one if needed. It returns -1 when
// every slot is taken.
func (s *touchSlots) slot(id int) int {
	for i := range s.ids {
		if s.used[i] && s.ids[i] == id {
			return i
		}
	}
	for i := range s.ids {
		if !s.used[i] {
			s.used[i] = true
			s.ids[i] = id
			s.seen[i] = false
			return i
		}
	}
	return -1
}

// update maps the touches currently down to pointers, keeping only those that
// moved since the last update. Slots of lifted touches are released first so
// a new touch can take them.
func (s *touchSlots) update(touches []touch) []state.Pointer {
	for i := range s.used {
		if s.used[i] && !slices.ContainsFunc(touches, func(t touch) bool { return t.id == s.ids[i] }) {
			s.used[i] = false
			s.seen[i] = false
		}
	}
	var moved []state.Pointer
	for _, t := range touches {
		i := s.slot(t.id)
		if i < 0 {
			continue
		}
		p := state.Point{X: t.x, Y: t.y, Pressure: touchPressure}
		if s.seen[i] && s.last[i] == p {
			continue
		}
		s.last[i], s.seen[i] = p, true
		moved = append(moved, state.Pointer{Finger: i, Current: p})
	}
	slices.SortFunc(moved, func(a, b state.Pointer) int { return cmp.Compare(a.Finger, b.Finger) })
	return moved
}
