package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"TouchTrails/internal/logging"
	"TouchTrails/internal/state"
)

const (
	DefaultFrameInterval   = 20 * time.Millisecond
	DefaultShutdownTimeout = 2 * time.Second
)

// ErrShutdownTimeout is returned by Stop when the render goroutine did not
// finish within the shutdown timeout. The scheduler stays in the stopping
// state; a later Stop waits again.
var ErrShutdownTimeout = errors.New("render: shutdown timed out")

// PanicError wraps a panic recovered from a draw call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("render: draw panicked: %v", e.Value) }

// DrawFunc paints one frame into dst.
type DrawFunc func(dst *image.RGBA) error

type Options struct {
	Interval        time.Duration
	ShutdownTimeout time.Duration
	// OnError observes draw and present failures. It runs on the render
	// goroutine and must not call Stop.
	OnError func(error)
}

// Scheduler redraws the surface at a fixed cadence whenever the dirty flag is
// set. Only its own goroutine takes the flag.
type Scheduler struct {
	surface Surface
	draw    DrawFunc
	dirty   *state.Flag
	opts    Options

	mu     sync.Mutex // start/stop transitions
	cancel context.CancelFunc
	done   chan struct{}

	frames   atomic.Uint64
	skipped  atomic.Uint64
	failures atomic.Uint64
}

func NewScheduler(surface Surface, draw DrawFunc, dirty *state.Flag, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultFrameInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if dirty == nil {
		dirty = &state.Flag{}
	}
	return &Scheduler{surface: surface, draw: draw, dirty: dirty, opts: opts}
}

// Start launches the render goroutine. It marks the flag so the first frame
// is drawn even without input. Calling Start while running does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	s.dirty.Mark()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	logging.Logger().Debug("[RENDER] started", "interval", s.opts.Interval)
}

// Stop cancels the render goroutine and waits until it has returned, so no
// pass runs after Stop returns nil. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	t := time.NewTimer(s.opts.ShutdownTimeout)
	defer t.Stop()
	select {
	case <-s.done:
		s.cancel, s.done = nil, nil
		logging.Logger().Debug("[RENDER] stopped", "frames", s.frames.Load())
		return nil
	case <-t.C:
		logging.Logger().Error("[RENDER] render loop did not stop", "timeout", s.opts.ShutdownTimeout)
		return ErrShutdownTimeout
	}
}

// Running reports whether the render goroutine was started and not yet
// confirmed stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Frames returns the number of presented frames.
func (s *Scheduler) Frames() uint64 { return s.frames.Load() }

// Skipped returns the number of dirty ticks skipped for lack of a surface.
func (s *Scheduler) Skipped() uint64 { return s.skipped.Load() }

// Failures returns the number of passes that failed to draw or present.
func (s *Scheduler) Failures() uint64 { return s.failures.Load() }

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		start := time.Now()
		s.pass()

		wait := s.opts.Interval - time.Since(start)
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// pass performs one tick: draw and present if the flag is set and the
// surface is there.
func (s *Scheduler) pass() {
	if !s.dirty.IsSet() {
		return
	}
	dst, err := s.surface.Acquire()
	if err != nil {
		s.skipped.Add(1)
		if !errors.Is(err, ErrSurfaceUnavailable) {
			s.report(fmt.Errorf("acquire surface: %w", err))
		}
		return
	}

	// Cleared before the snapshot so input arriving mid-draw triggers the
	// next frame.
	s.dirty.Take()
	if err := s.safeDraw(dst); err != nil {
		s.report(err)
		return
	}
	if err := s.surface.Present(dst); err != nil {
		s.report(fmt.Errorf("present frame: %w", err))
		return
	}
	s.frames.Add(1)
}

func (s *Scheduler) safeDraw(dst *image.RGBA) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return s.draw(dst)
}

func (s *Scheduler) report(err error) {
	s.failures.Add(1)
	logging.Logger().Warn("[RENDER] pass failed", "err", err)
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
}
