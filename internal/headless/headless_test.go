package headless

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"TouchTrails/internal/trace"
)

func testConfig() trace.Config {
	cfg := trace.DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	return cfg
}

func TestRunRecordsEveryTick(t *testing.T) {
	out := filepath.Join(t.TempDir(), "final.png")
	res, err := Run(context.Background(), testConfig(), Config{
		Hz:      1000,
		Ticks:   20,
		Fingers: 3,
		Width:   160,
		Height:  120,
		Out:     out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Ticks != 20 {
		t.Errorf("ticks = %d", res.Ticks)
	}
	if want := 20 * 3 * (historySteps + 1); res.Samples != want {
		t.Errorf("samples = %d, want %d", res.Samples, want)
	}
	if res.Frames == 0 {
		t.Error("no frame presented")
	}
	if res.Session == "" {
		t.Error("missing session id")
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(160, 120) {
		t.Errorf("png size = %v", img.Bounds().Size())
	}
}

func TestRunFingersBeyondPalette(t *testing.T) {
	res, err := Run(context.Background(), testConfig(), Config{Hz: 1000, Ticks: 2, Fingers: 8, Width: 64, Height: 64})
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 * 5 * (historySteps + 1); res.Samples != want {
		t.Errorf("samples = %d, want %d", res.Samples, want)
	}
}

func TestRunStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	res, err := Run(ctx, testConfig(), Config{Hz: 200, Width: 32, Height: 32})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if res == nil || res.Image != nil {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	if _, err := Run(context.Background(), testConfig(), Config{Ticks: 1}); err == nil {
		t.Error("zero size accepted")
	}
	bad := testConfig()
	bad.Capacity = 0
	if _, err := Run(context.Background(), bad, Config{Ticks: 1, Width: 8, Height: 8}); err == nil {
		t.Error("invalid trace config accepted")
	}
}

func TestGestureInBounds(t *testing.T) {
	size := image.Pt(200, 100)
	for tick := uint64(0); tick < 500; tick += 7 {
		ev := Gesture(tick, 4, size)
		if len(ev.Pointers) != 4 {
			t.Fatalf("pointers = %d", len(ev.Pointers))
		}
		for _, p := range ev.Pointers {
			for _, pt := range p.Points() {
				if pt.X < 0 || pt.Y < 0 || pt.X > 200 || pt.Y > 100 || pt.Pressure < 1 {
					t.Fatalf("tick %d finger %d point %+v out of range", tick, p.Finger, pt)
				}
			}
		}
	}
}
