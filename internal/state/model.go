package state

// Point is one position reported for a pointer, either historical or current.
type Point struct{ X, Y, Pressure float32 }

// Sample is one recorded touch. Samples are never modified after Record.
type Sample struct {
	Finger   int
	X, Y     float32
	Pressure float32 // presentation only (point radius)
}

type Action uint8

const (
	ActionDown Action = iota
	ActionMove
	ActionUp
	ActionCancel
)

// Pointer is the per-finger part of a MotionEvent. History holds the
// coalesced sub-frame positions since the previous event, oldest first.
type Pointer struct {
	Finger  int
	History []Point
	Current Point
}

// Points returns the history followed by the current position.
func (p Pointer) Points() []Point {
	pts := make([]Point, 0, len(p.History)+1)
	pts = append(pts, p.History...)
	return append(pts, p.Current)
}

// MotionEvent is one input event delivered by a host.
type MotionEvent struct {
	Action   Action
	Pointers []Pointer
}
