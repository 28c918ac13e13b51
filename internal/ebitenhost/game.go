// Package ebitenhost runs the tracer in an ebiten window with native
// multi-touch ids.
package ebitenhost

import (
	"errors"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"TouchTrails/internal/logging"
	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
	"TouchTrails/internal/trace"
)

const (
	touchPressure  = 1
	hintDuration   = 3 * time.Second
	fullscreenHint = "Press Escape to leave fullscreen"
)

type Options struct {
	Trace      trace.Config
	Width      int
	Height     int
	Fullscreen bool
}

// Run opens the window and blocks until it is closed.
func Run(opts Options) error {
	surface := render.NewImageSurface(opts.Width, opts.Height)
	tr, err := trace.New(opts.Trace, surface)
	if err != nil {
		return err
	}
	g := NewGame(tr, surface)

	ebiten.SetWindowTitle("Touch Trails")
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	if opts.Fullscreen {
		g.setFullscreen(true)
	}

	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	return errors.Join(err, tr.Stop())
}

// Game adapts the tracer to ebiten's update/draw loop. Frames come from the
// tracer's render goroutine through an ImageSurface and are uploaded once.
type Game struct {
	tracer  *trace.Tracer
	surface *render.ImageSurface

	touchIDs []ebiten.TouchID
	touches  []touch
	slots    touchSlots
	mouse    touchSlots

	focused   bool
	size      image.Point
	img       *ebiten.Image
	uploaded  uint64
	hintUntil time.Time
}

var _ ebiten.Game = (*Game)(nil)

func NewGame(tr *trace.Tracer, surface *render.ImageSurface) *Game {
	return &Game{tracer: tr, surface: surface}
}

func (g *Game) Update() error {
	g.updateFocus(ebiten.IsFocused())
	g.handleKeys()

	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	g.touches = g.touches[:0]
	for _, id := range g.touchIDs {
		x, y := ebiten.TouchPosition(id)
		g.touches = append(g.touches, touch{id: int(id), x: float32(x), y: float32(y)})
	}
	if len(g.touches) > 0 {
		g.record(g.slots.update(g.touches))
		return nil
	}
	g.slots.update(nil)

	// Without touches the left button drags finger 0.
	var held []touch
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		held = append(held, touch{x: float32(x), y: float32(y)})
	}
	g.record(g.mouse.update(held))
	return nil
}

func (g *Game) record(pointers []state.Pointer) {
	if len(pointers) == 0 {
		return
	}
	g.tracer.HandleMotion(state.MotionEvent{Action: state.ActionMove, Pointers: pointers})
}

// updateFocus renders only while the window has focus.
func (g *Game) updateFocus(focused bool) {
	if focused == g.focused {
		return
	}
	g.focused = focused
	g.surface.SetAvailable(focused)
	if focused {
		g.tracer.Start()
		logging.Logger().Debug("[UI] resumed")
		return
	}
	if err := g.tracer.Stop(); err != nil {
		logging.Logger().Error("[UI] pause", "err", err)
	}
	logging.Logger().Debug("[UI] paused")
}

func (g *Game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.tracer.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.tracer.ToggleLegend()
	case inpututil.IsKeyJustPressed(ebiten.KeyF), inpututil.IsKeyJustPressed(ebiten.KeyF11):
		g.setFullscreen(!ebiten.IsFullscreen())
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.setFullscreen(false)
	}
}

func (g *Game) setFullscreen(on bool) {
	if ebiten.IsFullscreen() == on {
		return
	}
	ebiten.SetFullscreen(on)
	if on {
		g.hintUntil = time.Now().Add(hintDuration)
	} else {
		g.hintUntil = time.Time{}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if n := g.surface.Presented(); n != g.uploaded {
		if frame := g.surface.Frame(); frame != nil {
			w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
			if g.img == nil || g.img.Bounds().Dx() != w || g.img.Bounds().Dy() != h {
				if g.img != nil {
					g.img.Deallocate()
				}
				g.img = ebiten.NewImage(w, h)
			}
			g.img.WritePixels(frame.Pix)
		}
		g.uploaded = n
	}
	if g.img != nil {
		screen.DrawImage(g.img, nil)
	}
	if time.Now().Before(g.hintUntil) {
		ebitenutil.DebugPrint(screen, fullscreenHint)
	}
}

// Layout draws at the window's own size; a change forces a redraw.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *Game) resize(w, h int) {
	if g.size == image.Pt(w, h) {
		return
	}
	g.size = image.Pt(w, h)
	g.surface.Resize(w, h)
	g.surface.SetAvailable(g.focused)
	g.tracer.History().Dirty().Mark()
}
