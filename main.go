// Command touchtrails records multi-finger touch input and draws every sample
// as a colored trail, in a fyne window or headless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"TouchTrails/internal/headless"
	"TouchTrails/internal/logging"
	"TouchTrails/internal/trace"
	"TouchTrails/internal/ui"
)

func main() {
	cfg := trace.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)

	runHeadless := flag.Bool("headless", false, "Run without a window, replaying synthetic gestures.")
	ticks := flag.Uint64("ticks", 300, "Headless: number of ticks to run (0 runs until interrupted).")
	hz := flag.Int("hz", 60, "Headless: ticks per second.")
	fingers := flag.Int("fingers", 3, "Headless: simultaneous synthetic fingers.")
	out := flag.String("out", "", "Headless: write the final frame to this PNG file.")
	width := flag.Int("width", 1024, "Window or headless frame width.")
	height := flag.Int("height", 768, "Window or headless frame height.")
	fullscreen := flag.Bool("fullscreen", false, "Start in fullscreen.")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error or off.")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *runHeadless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		res, err := headless.Run(ctx, cfg, headless.Config{
			Hz:      *hz,
			Ticks:   *ticks,
			Fingers: *fingers,
			Width:   *width,
			Height:  *height,
			Out:     *out,
		})
		if err != nil && ctx.Err() == nil {
			logging.Logger().Error("[TRACE] headless run failed", "err", err)
			os.Exit(1)
		}
		if res != nil {
			fmt.Printf("session %s: %d ticks, %d frames, %d samples\n", res.Session, res.Ticks, res.Frames, res.Samples)
		}
		return
	}

	err := ui.RunApp(ui.Options{
		Trace:      cfg,
		Width:      float32(*width),
		Height:     float32(*height),
		Fullscreen: *fullscreen,
	})
	if err != nil {
		logging.Logger().Error("[UI] exit", "err", err)
		os.Exit(1)
	}
}
