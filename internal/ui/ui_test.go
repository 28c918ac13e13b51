package ui

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"TouchTrails/internal/render"
	"TouchTrails/internal/trace"
)

func newTestWidget(t *testing.T) *TraceWidget {
	t.Helper()
	test.NewTempApp(t)
	cfg := trace.DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	tw, err := NewTraceWidget(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tw.Tracer().Stop() })
	return tw
}

func TestSurfaceAvailability(t *testing.T) {
	tw := newTestWidget(t)
	if _, err := tw.Acquire(); !errors.Is(err, render.ErrSurfaceUnavailable) {
		t.Fatalf("unsized widget: err = %v", err)
	}

	tw.Resize(fyne.NewSize(200, 100))
	dst, err := tw.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if got := dst.Bounds().Size(); got != image.Pt(200, 100) {
		t.Errorf("frame size = %v", got)
	}

	tw.Hide()
	if _, err := tw.Acquire(); !errors.Is(err, render.ErrSurfaceUnavailable) {
		t.Fatalf("hidden widget: err = %v", err)
	}
	tw.Show()
	if _, err := tw.Acquire(); err != nil {
		t.Fatal(err)
	}
}

func TestDragRecordsFingerZero(t *testing.T) {
	tw := newTestWidget(t)
	tw.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(1, 1)},
		Button:     desktop.MouseButtonPrimary,
	})
	if n := len(tw.Tracer().Snapshot()); n != 0 {
		t.Fatalf("mouse down recorded %d samples", n)
	}

	tw.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 6)}})
	tw.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(7, 8)}})
	got := tw.Tracer().Snapshot()
	if len(got) != 2 {
		t.Fatalf("samples = %d, want 2", len(got))
	}
	if s := got[0]; s.Finger != 0 || s.X != 5 || s.Y != 6 || s.Pressure != pointerPressure {
		t.Errorf("first sample = %+v", s)
	}
}

func TestRenderLoopPresentsToImage(t *testing.T) {
	tw := newTestWidget(t)
	w := test.NewTempWindow(t, tw)
	w.Resize(fyne.NewSize(320, 320))

	tw.Tracer().Start()
	deadline := time.Now().Add(2 * time.Second)
	for tw.Tracer().Frames() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no frame presented")
		}
		time.Sleep(time.Millisecond)
	}
	if err := tw.Tracer().Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestCommandKeys(t *testing.T) {
	tw := newTestWidget(t)
	w := test.NewTempWindow(t, tw)
	cmds := NewCommands(tw, w)

	tw.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 6)}})
	cmds.TypedKey(&fyne.KeyEvent{Name: fyne.KeyR})
	if n := len(tw.Tracer().Snapshot()); n != 0 {
		t.Errorf("R left %d samples", n)
	}

	cmds.TypedKey(&fyne.KeyEvent{Name: fyne.KeyL})
	if tw.Tracer().LegendVisible() {
		t.Error("L did not hide the legend")
	}

	cmds.TypedKey(&fyne.KeyEvent{Name: fyne.KeyF11})
	if !w.FullScreen() {
		t.Fatal("F11 did not enter fullscreen")
	}
	cmds.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if w.FullScreen() {
		t.Fatal("Escape did not leave fullscreen")
	}
}

func TestExportTo(t *testing.T) {
	tw := newTestWidget(t)
	tw.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 6)}})

	var buf bytes.Buffer
	if err := tw.ExportTo(&buf, "trails.PNG"); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != defaultExportSize {
		t.Errorf("png size = %v", img.Bounds().Size())
	}

	buf.Reset()
	if err := tw.ExportTo(&buf, "trails.pdf"); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("pdf export is not a PDF")
	}
}

func TestStatusText(t *testing.T) {
	tw := newTestWidget(t)
	s := statusText(tw)
	if !strings.Contains(s, "Frames: 0") || !strings.Contains(s, "Points: 0") {
		t.Errorf("status = %q", s)
	}
}
