package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"TouchTrails/internal/state"
)

const (
	DefaultFontSize = 20

	legendLeft   = 10 // swatch left edge of the first entry
	legendSwatch = 20 // swatch width
	legendGap    = 5  // swatch to label
	legendPad    = 35 // added to the widest label to get the entry pitch
	legendTop    = 30 // swatch top, measured from the bottom edge
	legendBottom = 10 // swatch bottom and label baseline, from the bottom edge

	fixedStroke    = 2
	pressureFactor = 20
)

var labelColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Frame is everything the draw routine needs besides the target.
type Frame struct {
	Samples        []state.Sample
	Colors         state.Colors
	Legend         bool
	PressureRadius bool
}

// LegendEntry is one swatch and label of the finger legend.
type LegendEntry struct {
	Finger   int
	Label    string
	Color    color.NRGBA
	Swatch   image.Rectangle
	Baseline image.Point
}

// Renderer turns a Frame into pixels. A Renderer is not safe for concurrent
// use; each render loop or exporter owns one.
type Renderer struct {
	face       font.Face
	background color.Color
	raster     *vector.Rasterizer
}

type Option func(*Renderer) error

// WithBackground sets the clear color. The default is fully transparent.
func WithBackground(c color.Color) Option {
	return func(r *Renderer) error {
		r.background = c
		return nil
	}
}

// WithFontSize sets the legend label size in pixels.
func WithFontSize(size float64) Option {
	return func(r *Renderer) error {
		if size <= 0 {
			return fmt.Errorf("invalid font size %v", size)
		}
		face, err := newFace(size)
		if err != nil {
			return err
		}
		r.face = face
		return nil
	}
}

func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		background: color.Transparent,
		raster:     vector.NewRasterizer(0, 0),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.face == nil {
		face, err := newFace(DefaultFontSize)
		if err != nil {
			return nil, err
		}
		r.face = face
	}
	return r, nil
}

func newFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}
	return face, nil
}

// Label returns the legend text for a finger.
func Label(finger int) string { return fmt.Sprintf("F %d", finger+1) }

// Legend lays out one entry per known finger along the bottom edge. The
// pitch is uniform and derived from the widest label.
func (r *Renderer) Legend(size image.Point, colors state.Colors) []LegendEntry {
	n := colors.Len()
	if n == 0 {
		return nil
	}
	var widest fixed.Int26_6
	for i := 0; i < n; i++ {
		if w := font.MeasureString(r.face, Label(i)); w > widest {
			widest = w
		}
	}
	pitch := legendPad + widest.Ceil()
	top := size.Y - legendTop
	bottom := size.Y - legendBottom

	entries := make([]LegendEntry, n)
	for i := range entries {
		x := legendLeft + i*pitch
		entries[i] = LegendEntry{
			Finger:   i,
			Label:    Label(i),
			Color:    colors.Color(i),
			Swatch:   image.Rect(x, top, x+legendSwatch, bottom),
			Baseline: image.Pt(x+legendSwatch+legendGap, bottom),
		}
	}
	return entries
}

// Radius returns the disc radius for a sample: half the stroke width, which
// is log(pressure*20) with pressure sizing and 2px otherwise. Never below 1.
func Radius(s state.Sample, pressureRadius bool) float32 {
	width := float64(fixedStroke)
	if pressureRadius && s.Pressure > 0 {
		width = math.Log(float64(s.Pressure) * pressureFactor)
	}
	r := width / 2
	if r < 1 || math.IsNaN(r) || math.IsInf(r, 0) {
		r = 1
	}
	return float32(r)
}

// Visible reports whether a disc of radius r at the sample overlaps size.
// Non-finite coordinates are never visible.
func Visible(s state.Sample, r float32, size image.Point) bool {
	x, y := float64(s.X), float64(s.Y)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	rr := float64(r)
	return x+rr >= 0 && y+rr >= 0 && x-rr <= float64(size.X) && y-rr <= float64(size.Y)
}

// Draw renders f into dst: clear, legend, then every sample as a disc in its
// finger's color.
func (r *Renderer) Draw(dst *image.RGBA, f Frame) error {
	if dst == nil {
		return errors.New("render: nil target")
	}
	bounds := dst.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("render: empty target %v", bounds)
	}
	colors := f.Colors
	if colors == nil {
		colors = state.NewPalette()
	}

	draw.Draw(dst, bounds, image.NewUniform(r.background), image.Point{}, draw.Src)

	if f.Legend {
		r.drawLegend(dst, colors)
	}
	r.drawSamples(dst, f.Samples, colors, f.PressureRadius)
	return nil
}

func (r *Renderer) drawLegend(dst *image.RGBA, colors state.Colors) {
	size := dst.Bounds().Size()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: r.face,
	}
	for _, e := range r.Legend(size, colors) {
		draw.Draw(dst, e.Swatch.Add(dst.Bounds().Min), image.NewUniform(e.Color), image.Point{}, draw.Over)
		d.Dot = fixed.P(dst.Bounds().Min.X+e.Baseline.X, dst.Bounds().Min.Y+e.Baseline.Y)
		d.DrawString(e.Label)
	}
}

func (r *Renderer) drawSamples(dst *image.RGBA, samples []state.Sample, colors state.Colors, pressureRadius bool) {
	if len(samples) == 0 {
		return
	}
	byFinger := make(map[int][]int)
	var order []int
	for i, s := range samples {
		if _, ok := byFinger[s.Finger]; !ok {
			order = append(order, s.Finger)
		}
		byFinger[s.Finger] = append(byFinger[s.Finger], i)
	}

	bounds := dst.Bounds()
	size := bounds.Size()
	for _, finger := range order {
		r.raster.Reset(size.X, size.Y)
		n := 0
		for _, i := range byFinger[finger] {
			s := samples[i]
			rad := Radius(s, pressureRadius)
			if !Visible(s, rad, size) {
				continue
			}
			addCircle(r.raster, s.X, s.Y, rad)
			n++
		}
		if n == 0 {
			continue
		}
		r.raster.Draw(dst, bounds, image.NewUniform(colors.Color(finger)), image.Point{})
	}
}

// addCircle appends a closed circle made of four cubic arcs.
func addCircle(z *vector.Rasterizer, x, y, r float32) {
	const k = 0.5522847498307936
	o := r * k
	z.MoveTo(x+r, y)
	z.CubeTo(x+r, y+o, x+o, y+r, x, y+r)
	z.CubeTo(x-o, y+r, x-r, y+o, x-r, y)
	z.CubeTo(x-r, y-o, x-o, y-r, x, y-r)
	z.CubeTo(x+o, y-r, x+r, y-o, x+r, y)
	z.ClosePath()
}
