// Package export writes the current trails to files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"TouchTrails/internal/render"
	"TouchTrails/internal/state"
)

// PageBackground fills the PDF page behind the trails; finger 0 is white.
var PageBackground = color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}

// Page describes one exported page. Coordinates are surface pixels, written
// as PDF points.
type Page struct {
	Size    image.Point
	Frame   render.Frame
	Legend  []render.LegendEntry
	Session string
}

func newPDF(p Page) (*gofpdf.Fpdf, error) {
	if p.Size.X <= 0 || p.Size.Y <= 0 {
		return nil, fmt.Errorf("export: invalid page size %v", p.Size)
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(p.Size.X), Ht: float64(p.Size.Y)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("TouchTrails", false)
	pdf.SetCreator("touchtrails", false)
	if p.Session != "" {
		pdf.SetSubject("session "+p.Session, false)
	}
	pdf.AddPage()

	pdf.SetFillColor(int(PageBackground.R), int(PageBackground.G), int(PageBackground.B))
	pdf.Rect(0, 0, float64(p.Size.X), float64(p.Size.Y), "F")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(0xff, 0xff, 0xff)
	for _, e := range p.Legend {
		setFill(pdf, e.Color)
		r := e.Swatch
		pdf.Rect(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), "F")
		pdf.Text(float64(e.Baseline.X), float64(e.Baseline.Y), e.Label)
	}

	colors := p.Frame.Colors
	if colors == nil {
		colors = state.NewPalette()
	}
	last := -1
	for _, s := range p.Frame.Samples {
		r := render.Radius(s, p.Frame.PressureRadius)
		if !render.Visible(s, r, p.Size) {
			continue
		}
		if s.Finger != last {
			setFill(pdf, colors.Color(s.Finger))
			last = s.Finger
		}
		pdf.Circle(float64(s.X), float64(s.Y), float64(r), "F")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("export: build pdf: %w", err)
	}
	return pdf, nil
}

func setFill(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

// WritePDF writes p as a single page document to w.
func WritePDF(w io.Writer, p Page) error {
	if w == nil {
		return errors.New("export: nil writer")
	}
	pdf, err := newPDF(p)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

// PDF writes p to path.
func PDF(path string, p Page) error {
	pdf, err := newPDF(p)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
