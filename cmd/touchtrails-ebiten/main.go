// Command touchtrails-ebiten shows touch trails in an ebiten window. It is a
// separate binary because ebiten and fyne each link their own GLFW.
package main

import (
	"flag"
	"fmt"
	"os"

	"TouchTrails/internal/ebitenhost"
	"TouchTrails/internal/logging"
	"TouchTrails/internal/trace"
)

func main() {
	cfg := trace.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	width := flag.Int("width", 1024, "Window width.")
	height := flag.Int("height", 768, "Window height.")
	fullscreen := flag.Bool("fullscreen", false, "Start in fullscreen.")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error or off.")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	err := ebitenhost.Run(ebitenhost.Options{
		Trace:      cfg,
		Width:      *width,
		Height:     *height,
		Fullscreen: *fullscreen,
	})
	if err != nil {
		logging.Logger().Error("[UI] exit", "err", err)
		os.Exit(1)
	}
}
