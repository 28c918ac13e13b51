package trace

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
)

func newTracer(t *testing.T, mutate func(*Config)) (*Tracer, *render.ImageSurface) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	surf := render.NewImageSurface(120, 80)
	tr, err := New(cfg, surf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = tr.Stop() })
	return tr, surf
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors = "sepia"
	if _, err := New(cfg, render.NewImageSurface(1, 1)); err == nil {
		t.Fatal("invalid config accepted")
	}
}

func TestHandleMotionKeepsHistoricalOrder(t *testing.T) {
	tr, _ := newTracer(t, nil)
	tr.HandleMotion(state.MotionEvent{
		Action: state.ActionMove,
		Pointers: []state.Pointer{{
			Finger:  0,
			History: []state.Point{{X: 1}, {X: 2}, {X: 3}},
			Current: state.Point{X: 4},
		}},
	})

	got := tr.Snapshot()
	if len(got) != 4 {
		t.Fatalf("samples = %d, want 4", len(got))
	}
	for i, s := range got {
		if s.X != float32(i+1) || s.Finger != 0 {
			t.Errorf("sample %d = %+v", i, s)
		}
	}
}

func TestHandleMotionPointerByPointer(t *testing.T) {
	tr, _ := newTracer(t, nil)
	tr.HandleMotion(state.MotionEvent{
		Action: state.ActionMove,
		Pointers: []state.Pointer{
			{Finger: 0, History: []state.Point{{X: 1}}, Current: state.Point{X: 2}},
			{Finger: 1, History: []state.Point{{X: 3}}, Current: state.Point{X: 4}},
		},
	})
	want := []int{0, 0, 1, 1}
	got := tr.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("samples = %d", len(got))
	}
	for i, s := range got {
		if s.Finger != want[i] || s.X != float32(i+1) {
			t.Errorf("sample %d = %+v", i, s)
		}
	}
}

func TestNonMoveEventsIgnored(t *testing.T) {
	tr, _ := newTracer(t, nil)
	for _, a := range []state.Action{state.ActionDown, state.ActionUp, state.ActionCancel} {
		tr.HandleMotion(state.MotionEvent{Action: a, Pointers: []state.Pointer{{Current: state.Point{X: 1}}}})
	}
	tr.OnInputBatch(0, []state.Point{{X: 1}}, false)
	if n := len(tr.Snapshot()); n != 0 {
		t.Fatalf("recorded %d samples from non-move input", n)
	}
}

func TestPaletteIgnoresExtraFingers(t *testing.T) {
	tr, _ := newTracer(t, nil)
	pointers := make([]state.Pointer, 7)
	for i := range pointers {
		pointers[i] = state.Pointer{Finger: i, Current: state.Point{X: float32(i)}}
	}
	tr.HandleMotion(state.MotionEvent{Action: state.ActionMove, Pointers: pointers})
	tr.OnInputBatch(9, []state.Point{{X: 9}}, true)
	tr.OnInputBatch(-3, []state.Point{{X: -3}}, true)

	got := tr.Snapshot()
	if len(got) != 6 {
		t.Fatalf("samples = %d, want 6", len(got))
	}
	for _, s := range got {
		if s.Finger < 0 || s.Finger >= 5 {
			t.Errorf("finger %d recorded", s.Finger)
		}
	}
	if last := got[5]; last.Finger != 0 || last.X != -3 {
		t.Errorf("negative finger not mapped to 0: %+v", last)
	}
}

func TestHeatmapGrowsWithFingers(t *testing.T) {
	tr, _ := newTracer(t, func(c *Config) { c.Colors = "heatmap" })
	if tr.Colors().Len() != 0 {
		t.Fatalf("fresh heatmap has %d entries", tr.Colors().Len())
	}
	pointers := make([]state.Pointer, 8)
	for i := range pointers {
		pointers[i] = state.Pointer{Finger: i}
	}
	tr.HandleMotion(state.MotionEvent{Action: state.ActionMove, Pointers: pointers})
	if n := len(tr.Snapshot()); n != 8 {
		t.Fatalf("samples = %d, want 8", n)
	}
	if n := tr.Colors().Len(); n != 8 {
		t.Fatalf("heatmap entries = %d, want 8", n)
	}
	first := tr.Colors().Color(0)

	tr.OnInputBatch(11, []state.Point{{}}, true)
	if n := tr.Colors().Len(); n != 12 {
		t.Fatalf("heatmap entries = %d, want 12", n)
	}
	if tr.Colors().Color(0) != first {
		t.Error("existing finger changed color")
	}
}

func TestResetClearsSamplesAndHeatmap(t *testing.T) {
	tr, _ := newTracer(t, func(c *Config) { c.Colors = "heatmap" })
	tr.OnInputBatch(2, []state.Point{{X: 1}, {X: 2}}, true)
	before := tr.History().Current()

	tr.Reset()
	if n := len(tr.Snapshot()); n != 0 {
		t.Fatalf("samples after reset = %d", n)
	}
	if n := tr.Colors().Len(); n != 0 {
		t.Fatalf("heatmap entries after reset = %d", n)
	}
	if n := len(before.Snapshot()); n != 2 {
		t.Fatalf("old generation lost samples: %d", n)
	}
	if tr.History().Current().ID() == before.ID() {
		t.Error("reset kept the generation id")
	}
}

func TestLegendToggleRedraws(t *testing.T) {
	tr, surf := newTracer(t, nil)
	tr.Start()
	waitFrames(t, tr, 1)

	if !tr.LegendVisible() {
		t.Fatal("legend hidden by default")
	}
	if tr.ToggleLegend() || tr.LegendVisible() {
		t.Fatal("toggle did not hide legend")
	}
	waitFrames(t, tr, 2)
	tr.SetLegendVisible(true)
	waitFrames(t, tr, 3)
	if surf.Frame() == nil {
		t.Fatal("nothing presented")
	}
}

func TestStartStopRendersInput(t *testing.T) {
	tr, surf := newTracer(t, nil)
	tr.Start()
	waitFrames(t, tr, 1)

	tr.OnInputBatch(1, []state.Point{{X: 60.5, Y: 40.5, Pressure: 1}}, true)
	waitFrames(t, tr, 2)
	if err := tr.Stop(); err != nil {
		t.Fatal(err)
	}
	if tr.Running() {
		t.Fatal("running after Stop")
	}

	got := surf.Frame().RGBAAt(60, 40)
	want := state.DefaultPalette[1]
	if got.B < 0xf0 || got.A < 0xf0 {
		t.Errorf("pixel = %v, want about %v", got, want)
	}

	frames := tr.Frames()
	tr.OnInputBatch(1, []state.Point{{X: 10, Y: 10}}, true)
	time.Sleep(10 * time.Millisecond)
	if tr.Frames() != frames {
		t.Fatal("frame presented after Stop")
	}
}

func TestErrorHandlerReceivesFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	errs := make(chan error, 4)
	tr, err := New(cfg, failingSurface{}, WithErrorHandler(func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	tr.Start()
	defer tr.Stop()

	select {
	case err := <-errs:
		if !errors.Is(err, errPresent) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no failure reported")
	}
}

var errPresent = errors.New("present failed")

type failingSurface struct{}

func (failingSurface) Acquire() (*image.RGBA, error) { return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil }
func (failingSurface) Present(*image.RGBA) error      { return errPresent }

func waitFrames(t *testing.T, tr *Tracer, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for tr.Frames() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for frame %d (have %d)", n, tr.Frames())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNonFinitePointsDropped(t *testing.T) {
	tr, _ := newTracer(t, nil)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tr.OnInputBatch(0, []state.Point{
		{X: nan, Y: 1},
		{X: 1, Y: -inf},
		{X: 2, Y: 3, Pressure: inf},
		{X: 4, Y: 5, Pressure: nan},
	}, true)

	got := tr.Snapshot()
	if len(got) != 2 {
		t.Fatalf("samples = %+v, want the two finite points", got)
	}
	for _, s := range got {
		if s.Pressure != 0 {
			t.Errorf("non-finite pressure kept: %+v", s)
		}
	}
	if _, err := tr.Render(image.Pt(32, 32)); err != nil {
		t.Fatal(err)
	}
}

func TestRenderLoopSurvivesNonFiniteInput(t *testing.T) {
	tr, _ := newTracer(t, nil)
	tr.Start()
	waitFrames(t, tr, 1)

	tr.OnInputBatch(0, []state.Point{{X: float32(math.NaN()), Y: float32(math.NaN())}}, true)
	for i := 0; i < 20; i++ {
		tr.OnInputBatch(0, []state.Point{{X: float32(i), Y: float32(i)}}, true)
		waitFrames(t, tr, uint64(i)+2)
	}
	if n := tr.Scheduler().Failures(); n != 0 {
		t.Fatalf("render failures = %d", n)
	}
}

func TestHeatmapFingerCeiling(t *testing.T) {
	tr, _ := newTracer(t, func(c *Config) {
		c.Colors = "heatmap"
		c.HeatmapLimit = 8
	})
	tr.OnInputBatch(math.MaxInt, []state.Point{{X: 1}}, true)
	tr.OnInputBatch(1<<28, []state.Point{{X: 2}}, true)
	if n := len(tr.Snapshot()); n != 0 {
		t.Fatalf("recorded %d samples beyond the ceiling", n)
	}
	if n := tr.Colors().Len(); n != 0 {
		t.Fatalf("heatmap grew to %d for ignored fingers", n)
	}

	pointers := make([]state.Pointer, 20)
	for i := range pointers {
		pointers[i] = state.Pointer{Finger: i}
	}
	tr.HandleMotion(state.MotionEvent{Action: state.ActionMove, Pointers: pointers})
	if n := len(tr.Snapshot()); n != 8 {
		t.Errorf("samples = %d, want 8", n)
	}
	if n := tr.Colors().Len(); n != 8 {
		t.Errorf("heatmap entries = %d, want 8", n)
	}
	if _, err := tr.Render(image.Pt(64, 64)); err != nil {
		t.Fatal(err)
	}
}
