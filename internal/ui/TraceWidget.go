package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
	"TouchTrails/internal/trace"
)

// Fyne reports no pressure; every point gets the same one.
const pointerPressure = 1

// TraceWidget shows the trails and feeds pointer input to its tracer. It is
// also the tracer's render surface: frames are drawn off the UI goroutine and
// handed to a canvas.Image.
type TraceWidget struct {
	widget.BaseWidget
	tracer    *trace.Tracer
	image     *canvas.Image
	statusBar *widget.Label

	mu      sync.Mutex
	size    image.Point
	visible bool
}

var _ fyne.Widget = (*TraceWidget)(nil)
var _ fyne.Draggable = (*TraceWidget)(nil)
var _ desktop.Mouseable = (*TraceWidget)(nil)
var _ render.Surface = (*TraceWidget)(nil)

func NewTraceWidget(cfg trace.Config, opts ...trace.Option) (*TraceWidget, error) {
	w := &TraceWidget{visible: true, statusBar: widget.NewLabel("Ready")}
	w.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	w.image.FillMode = canvas.ImageFillStretch
	w.image.ScaleMode = canvas.ImageScalePixels
	w.ExtendBaseWidget(w)

	tr, err := trace.New(cfg, w, opts...)
	if err != nil {
		return nil, err
	}
	w.tracer = tr
	return w, nil
}

func (w *TraceWidget) Tracer() *trace.Tracer { return w.tracer }

func (w *TraceWidget) StatusBar() *widget.Label { return w.statusBar }

// SetStatus updates the status bar from any goroutine.
func (w *TraceWidget) SetStatus(text string) {
	fyne.Do(func() {
		w.statusBar.SetText(text)
	})
}

// Size in surface pixels. One pixel per fyne unit, so input positions map
// directly onto the frame.
func (w *TraceWidget) pixelSize() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *TraceWidget) Resize(size fyne.Size) {
	w.BaseWidget.Resize(size)
	w.mu.Lock()
	w.size = image.Pt(int(size.Width), int(size.Height))
	w.mu.Unlock()
	w.tracer.History().Dirty().Mark()
}

func (w *TraceWidget) Show() {
	w.BaseWidget.Show()
	w.setVisible(true)
}

func (w *TraceWidget) Hide() {
	w.BaseWidget.Hide()
	w.setVisible(false)
}

func (w *TraceWidget) setVisible(v bool) {
	w.mu.Lock()
	w.visible = v
	w.mu.Unlock()
	if v {
		w.tracer.History().Dirty().Mark()
	}
}

func (w *TraceWidget) Acquire() (*image.RGBA, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.visible || w.size.X <= 0 || w.size.Y <= 0 {
		return nil, render.ErrSurfaceUnavailable
	}
	return image.NewRGBA(image.Rectangle{Max: w.size}), nil
}

// Present swaps the frame in on the UI goroutine. fyne.Do does not wait, so
// stopping the tracer from a UI callback cannot deadlock.
func (w *TraceWidget) Present(frame *image.RGBA) error {
	fyne.Do(func() {
		w.image.Image = frame
		w.image.Refresh()
	})
	return nil
}

func (w *TraceWidget) record(action state.Action, pos fyne.Position) {
	w.tracer.HandleMotion(state.MotionEvent{
		Action: action,
		Pointers: []state.Pointer{{
			Finger:  0,
			Current: state.Point{X: pos.X, Y: pos.Y, Pressure: pointerPressure},
		}},
	})
}

func (w *TraceWidget) Dragged(e *fyne.DragEvent) {
	w.record(state.ActionMove, e.Position)
}

func (w *TraceWidget) DragEnd() {}

func (w *TraceWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.record(state.ActionDown, e.Position)
	}
}

func (w *TraceWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.record(state.ActionUp, e.Position)
	}
}

func (w *TraceWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &traceWidgetRenderer{trace: w}
	r.background = canvas.NewRectangle(color.Black)
	return r
}

type traceWidgetRenderer struct {
	trace      *TraceWidget
	background *canvas.Rectangle
}

func (r *traceWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.trace.image}
}

func (r *traceWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.trace.image.Resize(size)
}

func (r *traceWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *traceWidgetRenderer) Refresh() {
	canvas.Refresh(r.trace)
}

func (r *traceWidgetRenderer) Destroy() {}
