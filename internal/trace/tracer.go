// Package trace wires the touch ring, the color policy and the render loop
// into the core that hosts talk to.
package trace

import (
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"TouchTrails/internal/logging"
	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
)

type Option func(*Tracer)

// WithErrorHandler registers an observer for render failures. It runs on the
// render goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(t *Tracer) { t.onError = fn }
}

// Tracer records touch input and keeps the host surface up to date.
// Input methods never block and may be called from any goroutine.
type Tracer struct {
	cfg      Config
	session  *state.Session
	dirty    *state.Flag
	history  *state.History
	colors   state.Colors
	capped   bool // fixed palette: pointers beyond MaxFingers are ignored
	limit    int  // pointers at or beyond this index are ignored
	legend   atomic.Bool
	sched    *render.Scheduler
	onError  func(error)

	drawMu   sync.Mutex // the renderer is shared by the loop and exports
	renderer *render.Renderer
}

func New(cfg Config, surface render.Surface, opts ...Option) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	colors, err := state.NewColors(cfg.Colors)
	if err != nil {
		return nil, err
	}
	if _, ok := colors.(*state.Heatmap); ok {
		colors = state.NewHeatmapLimit(cfg.HeatmapLimit)
	}
	bg, err := ParseColor(cfg.Background)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(render.WithBackground(bg), render.WithFontSize(cfg.FontSize))
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	session := state.NewSession()
	dirty := &state.Flag{}
	t := &Tracer{
		cfg:      cfg,
		session:  session,
		dirty:    dirty,
		history:  state.NewHistory(cfg.Capacity, dirty, session),
		colors:   colors,
		renderer: renderer,
	}
	_, dynamic := colors.(*state.Heatmap)
	t.capped = !dynamic
	t.limit = cfg.HeatmapLimit
	if t.capped {
		t.limit = cfg.MaxFingers
	}
	t.legend.Store(cfg.Legend)
	for _, opt := range opts {
		opt(t)
	}
	t.sched = render.NewScheduler(surface, t.draw, dirty, render.Options{
		Interval:        cfg.FrameInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
		OnError:         t.onError,
	})

	logging.Logger().Info("[TRACE] session created",
		"session", session.ID(), "capacity", cfg.Capacity, "colors", cfg.Colors)
	return t, nil
}

func (t *Tracer) Config() Config               { return t.cfg }
func (t *Tracer) Session() *state.Session      { return t.session }
func (t *Tracer) Colors() state.Colors         { return t.colors }
func (t *Tracer) History() *state.History      { return t.history }
func (t *Tracer) Scheduler() *render.Scheduler { return t.sched }

// finger maps a host pointer index to a recorded finger index. ok is false
// when the pointer is beyond what the color policy tracks.
func (t *Tracer) finger(i int) (int, bool) {
	if i < 0 {
		i = 0
	}
	if i >= t.limit {
		return 0, false
	}
	return i, true
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// OnInputBatch records one pointer's points, oldest first. Only move events
// are recorded; points with a non-finite coordinate are dropped.
func (t *Tracer) OnInputBatch(finger int, points []state.Point, move bool) {
	if !move || len(points) == 0 {
		return
	}
	f, ok := t.finger(finger)
	if !ok {
		return
	}
	if !t.capped {
		t.colors.Observe(f + 1)
	}
	for _, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		if !finite(p.Pressure) {
			p.Pressure = 0
		}
		t.history.Record(f, p.X, p.Y, p.Pressure)
	}
}

// HandleMotion records a multi-pointer event. Each pointer's history and
// current position are recorded before the next pointer is visited.
func (t *Tracer) HandleMotion(ev state.MotionEvent) {
	if ev.Action != state.ActionMove {
		return
	}
	pointers := ev.Pointers
	if len(pointers) > t.limit {
		pointers = pointers[:t.limit]
	}
	if !t.capped {
		t.colors.Observe(len(pointers))
	}
	for _, p := range pointers {
		t.OnInputBatch(p.Finger, p.Points(), true)
	}
}

// Start begins rendering. The first frame is drawn even without input.
func (t *Tracer) Start() {
	t.sched.Start()
}

// Stop halts rendering and waits for the render loop to finish.
func (t *Tracer) Stop() error {
	if err := t.sched.Stop(); err != nil {
		return fmt.Errorf("stop render loop: %w", err)
	}
	return nil
}

func (t *Tracer) Running() bool { return t.sched.Running() }

// Reset discards all samples and the heatmap table.
func (t *Tracer) Reset() {
	gen := t.history.Reset()
	t.colors.Reset()
	logging.Logger().Info("[TRACE] reset", "session", t.session.ID(), "generation", gen)
}

func (t *Tracer) SetLegendVisible(v bool) {
	t.legend.Store(v)
	t.dirty.Mark()
}

func (t *Tracer) LegendVisible() bool { return t.legend.Load() }

// ToggleLegend flips legend visibility and returns the new state.
func (t *Tracer) ToggleLegend() bool {
	for {
		old := t.legend.Load()
		if t.legend.CompareAndSwap(old, !old) {
			t.dirty.Mark()
			return !old
		}
	}
}

// Snapshot returns the recorded samples in slot order.
func (t *Tracer) Snapshot() []state.Sample { return t.history.Snapshot() }

// Frame captures what the next draw would render.
func (t *Tracer) Frame() render.Frame {
	return render.Frame{
		Samples:        t.history.Snapshot(),
		Colors:         t.colors,
		Legend:         t.legend.Load(),
		PressureRadius: t.cfg.PressureRadius,
	}
}

// Frames returns the number of frames presented so far.
func (t *Tracer) Frames() uint64 { return t.sched.Frames() }

// Legend lays out the legend for a target of the given size. It returns nil
// while the legend is hidden.
func (t *Tracer) Legend(size image.Point) []render.LegendEntry {
	if !t.legend.Load() {
		return nil
	}
	t.drawMu.Lock()
	defer t.drawMu.Unlock()
	return t.renderer.Legend(size, t.colors)
}

// Render draws the current state into a new image of the given size,
// independently of the host surface.
func (t *Tracer) Render(size image.Point) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if err := t.draw(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func (t *Tracer) draw(dst *image.RGBA) error {
	f := t.Frame()
	t.drawMu.Lock()
	defer t.drawMu.Unlock()
	return t.renderer.Draw(dst, f)
}
