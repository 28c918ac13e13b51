package export

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// PNG saves img to path. A non-zero fit scales the image down to fit in it,
// keeping the aspect ratio.
func PNG(path string, img image.Image, fit image.Point) error {
	if img == nil {
		return errors.New("export: nil image")
	}
	if err := imaging.Save(scale(img, fit), path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes img as PNG to w.
func WritePNG(w io.Writer, img image.Image, fit image.Point) error {
	if img == nil {
		return errors.New("export: nil image")
	}
	return imaging.Encode(w, scale(img, fit), imaging.PNG)
}

func scale(img image.Image, fit image.Point) image.Image {
	if fit.X <= 0 || fit.Y <= 0 {
		return img
	}
	return imaging.Fit(img, fit.X, fit.Y, imaging.Lanczos)
}
