package render

import (
	"errors"
	"image"
	"sync"
)

// ErrSurfaceUnavailable is returned by Surface.Acquire while there is nothing
// to draw on (window hidden, zero size). The scheduler skips the tick.
var ErrSurfaceUnavailable = errors.New("render: surface unavailable")

// Surface is the host-owned pixel target.
type Surface interface {
	// Acquire returns a target sized like the surface, or ErrSurfaceUnavailable.
	Acquire() (*image.RGBA, error)
	// Present hands a finished frame to the host. The surface owns frame
	// afterwards.
	Present(frame *image.RGBA) error
}

// ImageSurface is an in-memory Surface. Hosts without a native drawable (the
// headless runner, tests) present into it and read frames back with Frame.
type ImageSurface struct {
	mu        sync.Mutex
	size      image.Point
	available bool
	front     *image.RGBA
	presented uint64
}

func NewImageSurface(width, height int) *ImageSurface {
	s := &ImageSurface{}
	s.Resize(width, height)
	return s
}

// Resize changes the size of subsequent frames. A non-positive size makes the
// surface unavailable.
func (s *ImageSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = image.Pt(width, height)
	s.available = width > 0 && height > 0
}

// SetAvailable toggles availability without losing the size.
func (s *ImageSurface) SetAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = ok && s.size.X > 0 && s.size.Y > 0
}

func (s *ImageSurface) Acquire() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return nil, ErrSurfaceUnavailable
	}
	return image.NewRGBA(image.Rectangle{Max: s.size}), nil
}

func (s *ImageSurface) Present(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.front = frame
	s.presented++
	return nil
}

// Frame returns the last presented frame, or nil.
func (s *ImageSurface) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front
}

// Presented returns how many frames were presented.
func (s *ImageSurface) Presented() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}
