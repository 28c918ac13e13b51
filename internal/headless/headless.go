// Package headless drives the tracer without a window, replaying synthetic
// multi-finger gestures on a fixed tick.
package headless

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"TouchTrails/internal/export"
	"TouchTrails/internal/logging"
	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
	"TouchTrails/internal/trace"
)

// historySteps is the number of batched points delivered before the current
// one in every synthetic event.
const historySteps = 3

// Config controls the no-window runner.
type Config struct {
	Hz      int
	Ticks   uint64 // stop after this many ticks; 0 runs until ctx is done
	Fingers int
	Width   int
	Height  int
	Out     string // PNG of the final frame, skipped when empty
}

type Result struct {
	Session string
	Ticks   uint64
	Frames  uint64
	Samples int
	Image   *image.RGBA
}

// Run feeds one gesture event per tick into a fresh tracer and renders the
// final state once the ticks are used up.
func Run(ctx context.Context, tcfg trace.Config, cfg Config) (*Result, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.Fingers <= 0 {
		cfg.Fingers = 1
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid headless size %dx%d", cfg.Width, cfg.Height)
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return nil, fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	size := image.Pt(cfg.Width, cfg.Height)
	surface := render.NewImageSurface(size.X, size.Y)
	tr, err := trace.New(tcfg, surface)
	if err != nil {
		return nil, err
	}
	log := logging.Logger().With("session", tr.Session().ID())
	tr.Start()

	res := &Result{Session: tr.Session().ID()}
	runErr := loop(ctx, d, cfg, func(tick uint64) {
		tr.HandleMotion(Gesture(tick, cfg.Fingers, size))
		res.Ticks = tick + 1
	})
	if err := tr.Stop(); err != nil {
		return nil, errors.Join(runErr, err)
	}
	res.Frames = tr.Frames()
	res.Samples = len(tr.Snapshot())
	if runErr != nil {
		return res, runErr
	}

	img, err := tr.Render(size)
	if err != nil {
		return res, fmt.Errorf("render final frame: %w", err)
	}
	res.Image = img
	if cfg.Out != "" {
		if err := export.PNG(cfg.Out, img, image.Point{}); err != nil {
			return res, err
		}
	}
	log.Info("[TRACE] headless run finished", "ticks", res.Ticks, "frames", res.Frames, "samples", res.Samples)
	return res, nil
}

func loop(ctx context.Context, d time.Duration, cfg Config, step func(tick uint64)) error {
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			step(tick)
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

// Gesture returns the move event for tick: every finger travels its own
// ellipse around the centre of size, with historySteps batched points
// leading up to the current one.
func Gesture(tick uint64, fingers int, size image.Point) state.MotionEvent {
	ev := state.MotionEvent{Action: state.ActionMove, Pointers: make([]state.Pointer, fingers)}
	for f := range ev.Pointers {
		p := state.Pointer{Finger: f, History: make([]state.Point, historySteps)}
		base := float64(tick) * (historySteps + 1)
		for i := range p.History {
			p.History[i] = orbit(f, fingers, base+float64(i), size)
		}
		p.Current = orbit(f, fingers, base+historySteps, size)
		ev.Pointers[f] = p
	}
	return ev
}

func orbit(finger, fingers int, step float64, size image.Point) state.Point {
	phase := 2 * math.Pi * float64(finger) / float64(fingers)
	a := step*0.02 + phase
	rx := float64(size.X) * 0.4 * (1 - 0.5*float64(finger)/float64(fingers))
	ry := float64(size.Y) * 0.4 * (1 - 0.5*float64(finger)/float64(fingers))
	return state.Point{
		X:        float32(float64(size.X)/2 + rx*math.Cos(a)),
		Y:        float32(float64(size.Y)/2 + ry*math.Sin(2*a)),
		Pressure: float32(1 + 4*(1+math.Sin(step*0.05))/2),
	}
}
