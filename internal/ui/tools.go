package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const fullscreenHint = "Press Escape to leave fullscreen"

// Commands are the host actions shared by the toolbar and the keyboard.
type Commands struct {
	trace  *TraceWidget
	window fyne.Window
}

func NewCommands(tw *TraceWidget, win fyne.Window) *Commands {
	return &Commands{trace: tw, window: win}
}

func (c *Commands) Reset() {
	c.trace.tracer.Reset()
	c.trace.SetStatus("Cleared")
}

func (c *Commands) ToggleLegend() {
	if c.trace.tracer.ToggleLegend() {
		c.trace.SetStatus("Legend shown")
	} else {
		c.trace.SetStatus("Legend hidden")
	}
}

func (c *Commands) SetFullScreen(on bool) {
	if c.window.FullScreen() == on {
		return
	}
	c.window.SetFullScreen(on)
	if on {
		c.trace.SetStatus(fullscreenHint)
	} else {
		c.trace.SetStatus("Ready")
	}
}

func (c *Commands) ToggleFullScreen() { c.SetFullScreen(!c.window.FullScreen()) }

func (c *Commands) Export() {
	d := dialog.NewFileSave(c.trace.SaveToFile, c.window)
	d.SetFileName("trails.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	d.Show()
}

// TypedKey binds R, L, F11 and Escape.
func (c *Commands) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyR:
		c.Reset()
	case fyne.KeyL:
		c.ToggleLegend()
	case fyne.KeyF11:
		c.ToggleFullScreen()
	case fyne.KeyEscape:
		c.SetFullScreen(false)
	}
}

// NewToolbar builds the command bar above the trace area.
func NewToolbar(c *Commands) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentClearIcon(), c.Reset),
		widget.NewToolbarAction(theme.VisibilityIcon(), c.ToggleLegend),
		widget.NewToolbarAction(theme.ViewFullScreenIcon(), c.ToggleFullScreen),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), c.Export),
	)
	return container.NewHBox(
		tb,
		layout.NewSpacer(),
		c.trace.statusBar,
	)
}

func statusText(tw *TraceWidget) string {
	tr := tw.tracer
	id := tr.Session().ID()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Frames: %d | Points: %d | Session: %s", tr.Frames(), tr.History().Current().Len(), id)
}
