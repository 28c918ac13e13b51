package ui

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"

	"TouchTrails/internal/export"
	"TouchTrails/internal/logging"
)

// Used when exporting before the widget was laid out.
var defaultExportSize = image.Pt(1024, 768)

// ExportTo writes the current trails to out. Names ending in .png get a
// raster image, anything else a PDF page.
func (w *TraceWidget) ExportTo(out io.Writer, name string) error {
	size := w.pixelSize()
	if size.X <= 0 || size.Y <= 0 {
		size = defaultExportSize
	}
	if strings.EqualFold(filepath.Ext(name), ".png") {
		img, err := w.tracer.Render(size)
		if err != nil {
			return err
		}
		return export.WritePNG(out, img, image.Point{})
	}
	return export.WritePDF(out, export.Page{
		Size:    size,
		Frame:   w.tracer.Frame(),
		Legend:  w.tracer.Legend(size),
		Session: w.tracer.Session().ID(),
	})
}

// SaveToFile is the file-save dialog callback.
func (w *TraceWidget) SaveToFile(writer fyne.URIWriteCloser, err error) {
	if err != nil {
		w.SetStatus("Export failed")
		logging.Logger().Error("[UI] save dialog", "err", err)
		return
	}
	if writer == nil {
		return
	}
	name := writer.URI().Name()
	log := logging.Logger().With("file", name, "session", w.tracer.Session().ID())

	err = w.ExportTo(writer, name)
	err = errors.Join(err, writer.Close())
	if err != nil {
		log.Error("[UI] export failed", "err", err)
		w.SetStatus("Export failed: " + err.Error())
		return
	}
	n := len(w.tracer.Snapshot())
	log.Info("[UI] exported", slog.Int("samples", n))
	w.SetStatus(fmt.Sprintf("Exported %d points to %s", n, name))
}
