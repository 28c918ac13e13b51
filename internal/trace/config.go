package trace

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
)

// Config holds the tunables of the core. Hosts bind it to flags with
// RegisterFlags and check it with Validate.
type Config struct {
	Capacity        int           // samples kept in the ring
	FrameInterval   time.Duration // render cadence
	ShutdownTimeout time.Duration // bound on Stop
	MaxFingers      int           // pointers recorded per event with the fixed palette
	HeatmapLimit    int           // highest finger count the heatmap tracks
	Colors          string        // "palette" or "heatmap"
	PressureRadius  bool          // derive point radius from pressure
	Legend          bool          // legend visible at start
	Background      string        // clear color as #RRGGBB or #RRGGBBAA; empty is transparent
	FontSize        float64       // legend label size
}

func DefaultConfig() Config {
	return Config{
		Capacity:        state.DefaultCapacity,
		FrameInterval:   render.DefaultFrameInterval,
		ShutdownTimeout: render.DefaultShutdownTimeout,
		MaxFingers:      5,
		HeatmapLimit:    state.DefaultHeatmapLimit,
		Colors:          "palette",
		Legend:          true,
		FontSize:        render.DefaultFontSize,
	}
}

// RegisterFlags binds the config fields to fs using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "Number of touch samples kept before the oldest is overwritten.")
	fs.DurationVar(&c.FrameInterval, "frame", c.FrameInterval, "Render interval.")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Maximum wait for the render loop to stop.")
	fs.IntVar(&c.MaxFingers, "max-fingers", c.MaxFingers, "Pointers recorded per event with the fixed palette.")
	fs.IntVar(&c.HeatmapLimit, "heatmap-limit", c.HeatmapLimit, "Fingers tracked with the heatmap; higher indices are ignored.")
	fs.StringVar(&c.Colors, "colors", c.Colors, "Finger color policy: palette or heatmap.")
	fs.BoolVar(&c.PressureRadius, "pressure", c.PressureRadius, "Scale point size with touch pressure.")
	fs.BoolVar(&c.Legend, "legend", c.Legend, "Show the finger legend.")
	fs.StringVar(&c.Background, "background", c.Background, "Background color (#RRGGBB[AA]); empty for transparent.")
	fs.Float64Var(&c.FontSize, "font-size", c.FontSize, "Legend label size in pixels.")
}

func (c Config) Validate() error {
	var errs []error
	if c.Capacity < 1 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout))
	}
	if c.MaxFingers < 1 {
		errs = append(errs, fmt.Errorf("max fingers must be positive, got %d", c.MaxFingers))
	}
	if c.HeatmapLimit < 1 {
		errs = append(errs, fmt.Errorf("heatmap limit must be positive, got %d", c.HeatmapLimit))
	}
	if _, err := state.NewColors(c.Colors); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseColor(c.Background); err != nil {
		errs = append(errs, err)
	}
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font size must be positive, got %v", c.FontSize))
	}
	return errors.Join(errs...)
}

// ParseColor parses #RRGGBB or #RRGGBBAA. The empty string is transparent.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return color.NRGBA{}, nil
	}
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
