package state

import "sync/atomic"

// Flag is the dirty flag shared by the input path and the render loop.
// Mark may be called from any goroutine; Take is meant for the single render
// goroutine.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Mark() { f.v.Store(true) }

// Take clears the flag and reports whether it was set.
func (f *Flag) Take() bool { return f.v.Swap(false) }

func (f *Flag) IsSet() bool { return f.v.Load() }
