package state

import (
	"fmt"
	"image/color"
	"math"
	"sync/atomic"
)

// Colors maps finger indices to display colors. Implementations must be safe
// for concurrent use by the input path and the render loop.
type Colors interface {
	// Color returns the color for a finger. It never fails.
	Color(finger int) color.NRGBA
	// Observe tells the policy that n fingers are down at once.
	Observe(n int)
	// Len is the number of legend entries.
	Len() int
	Reset()
}

// NewColors returns the policy registered under name ("palette" or "heatmap").
func NewColors(name string) (Colors, error) {
	switch name {
	case "", "palette":
		return NewPalette(), nil
	case "heatmap":
		return NewHeatmap(), nil
	}
	return nil, fmt.Errorf("unknown color policy %q", name)
}

// DefaultPalette is the five-finger table used by the fixed policy.
var DefaultPalette = []color.NRGBA{
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	{R: 0x22, G: 0x22, B: 0xff, A: 0xff},
	{R: 0x22, G: 0xff, B: 0x22, A: 0xff},
	{R: 0xff, G: 0xff, B: 0x22, A: 0xff},
	{R: 0xff, G: 0x22, B: 0x22, A: 0xff},
}

// Palette is a fixed color table. Out of range fingers are clamped to the
// nearest entry.
type Palette struct {
	colors []color.NRGBA
}

func NewPalette(colors ...color.NRGBA) *Palette {
	if len(colors) == 0 {
		colors = DefaultPalette
	}
	return &Palette{colors: colors}
}

func (p *Palette) Color(finger int) color.NRGBA {
	switch {
	case finger < 0:
		finger = 0
	case finger >= len(p.colors):
		finger = len(p.colors) - 1
	}
	return p.colors[finger]
}

func (p *Palette) Observe(int) {}
func (p *Palette) Len() int    { return len(p.colors) }
func (p *Palette) Reset()      {}

// DefaultHeatmapLimit caps the heatmap table when no limit is given.
const DefaultHeatmapLimit = 64

// Heatmap generates hues on demand. The table only grows: when n fingers are
// first seen, entries [len, n) get hues spaced for n fingers and existing
// entries keep their color until Reset. It never grows beyond its limit.
type Heatmap struct {
	limit int
	table atomic.Pointer[[]color.NRGBA]
}

func NewHeatmap() *Heatmap { return NewHeatmapLimit(DefaultHeatmapLimit) }

// NewHeatmapLimit returns a heatmap holding at most limit colors. A limit
// below one gets DefaultHeatmapLimit.
func NewHeatmapLimit(limit int) *Heatmap {
	if limit < 1 {
		limit = DefaultHeatmapLimit
	}
	h := &Heatmap{limit: limit}
	h.Reset()
	return h
}

func (h *Heatmap) Limit() int { return h.limit }

func (h *Heatmap) Observe(n int) {
	n = min(n, h.limit)
	for {
		cur := h.table.Load()
		if n <= len(*cur) {
			return
		}
		next := make([]color.NRGBA, n)
		copy(next, *cur)
		for i := len(*cur); i < n; i++ {
			next[i] = hsv(float64(i)*360/float64(n), 0.85, 1)
		}
		if h.table.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Color clamps finger into [0, limit) and grows the table to cover it.
func (h *Heatmap) Color(finger int) color.NRGBA {
	finger = max(0, min(finger, h.limit-1))
	h.Observe(finger + 1)
	return (*h.table.Load())[finger]
}

func (h *Heatmap) Len() int { return len(*h.table.Load()) }

func (h *Heatmap) Reset() {
	empty := []color.NRGBA{}
	h.table.Store(&empty)
}

// hsv converts hue in degrees, saturation and value in [0, 1] to an opaque color.
func hsv(hue, s, v float64) color.NRGBA {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case hue < 60:
		r, g, b = c, x, 0
	case hue < 120:
		r, g, b = x, c, 0
	case hue < 180:
		r, g, b = 0, c, x
	case hue < 240:
		r, g, b = 0, x, c
	case hue < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.NRGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 0xff,
	}
}
