package ui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"TouchTrails/internal/logging"
	"TouchTrails/internal/trace"
)

const statsInterval = 500 * time.Millisecond

type Options struct {
	Trace      trace.Config
	Width      float32
	Height     float32
	Fullscreen bool
}

// RunApp opens the trace window and blocks until it is closed.
func RunApp(opts Options) error {
	myApp := app.New()
	myWindow := myApp.NewWindow("Touch Trails")
	if opts.Width > 0 && opts.Height > 0 {
		myWindow.Resize(fyne.NewSize(opts.Width, opts.Height))
	}

	tw, err := NewTraceWidget(opts.Trace, trace.WithErrorHandler(func(err error) {
		logging.Logger().Warn("[UI] frame failed", "err", err)
	}))
	if err != nil {
		return err
	}
	tr := tw.Tracer()
	cmds := NewCommands(tw, myWindow)

	stats := widget.NewLabel(statusText(tw))
	content := container.NewBorder(NewToolbar(cmds), stats, nil, nil, tw)
	myWindow.SetContent(content)
	myWindow.Canvas().SetOnTypedKey(cmds.TypedKey)

	// Render only while the app is in front.
	lc := myApp.Lifecycle()
	lc.SetOnEnteredForeground(func() {
		tr.Start()
		logging.Logger().Debug("[UI] resumed")
	})
	lc.SetOnExitedForeground(func() {
		if err := tr.Stop(); err != nil {
			logging.Logger().Error("[UI] pause", "err", err)
		}
		logging.Logger().Debug("[UI] paused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refreshStats(ctx, tw, stats)

	if opts.Fullscreen {
		cmds.SetFullScreen(true)
	}
	tr.Start()
	logging.Logger().Info("[UI] window open", "session", tr.Session().ID())
	myWindow.ShowAndRun()

	cancel()
	return tr.Stop()
}

func refreshStats(ctx context.Context, tw *TraceWidget, stats *widget.Label) {
	t := time.NewTicker(statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			text := statusText(tw)
			fyne.Do(func() { stats.SetText(text) })
		}
	}
}
