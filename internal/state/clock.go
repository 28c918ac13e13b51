package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Session identifies one run of the visualizer. The generation counter
// advances on every History reset.
type Session struct {
	id         string
	generation atomic.Uint64
}

func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

func (s *Session) ID() string { return s.id }

// Generation returns the number of resets seen so far.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

func (s *Session) nextGeneration() uint64 {
	return s.generation.Add(1)
}
