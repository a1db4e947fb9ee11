// Package pdf assembles rasterized job sheet documents into A4 PDF files.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/sanitizer"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Page geometry in millimetres.
const (
	PageWidthMM  = rasterizer.PageWidthMM
	PageHeightMM = rasterizer.PageHeightMM

	// SafetyMarginMM is subtracted from the page height when deciding whether
	// a bitmap fits on one page.
	SafetyMarginMM = 10.0
	// TopMarginMM offsets a bitmap that fits on one page.
	TopMarginMM = 5.0
)

// ImageSanitizer inlines remote images before rasterization.
type ImageSanitizer interface {
	Sanitize(ctx context.Context, html string) (string, sanitizer.Stats, error)
}

// Generator owns one in-progress PDF document. It is not safe for concurrent
// use; build one per render.
type Generator struct {
	doc        *fpdf.Fpdf
	sanitizer  ImageSanitizer
	rasterizer rasterizer.Rasterizer
	logger     logger.Logger
	out        []byte
	images     int
}

// NewGenerator creates an empty A4 document.
func NewGenerator(s ImageSanitizer, r rasterizer.Rasterizer, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("jobsheet", true)
	doc.SetCompression(true)

	return &Generator{
		doc:        doc,
		sanitizer:  s,
		rasterizer: r,
		logger:     log,
	}
}

// RenderPageToPDF sanitizes and rasterizes one HTML document and appends it
// to the PDF. A bitmap that fits one page (less the safety margin) is placed
// with a small top margin; a taller one is cut into consecutive page-height
// bands of the same image. isFirstPage must be set on the first call only.
func (g *Generator) RenderPageToPDF(ctx context.Context, html string, isFirstPage bool) error {
	if g.out != nil {
		return newRenderError(StageAssemble, errors.New("document already finalized"))
	}
	if isFirstPage != (g.doc.PageCount() == 0) {
		return newRenderError(StageAssemble,
			fmt.Errorf("first page flag %t with %d pages already rendered", isFirstPage, g.doc.PageCount()))
	}

	clean, stats, err := g.sanitizer.Sanitize(ctx, html)
	if err != nil {
		return newRenderError(StageSanitize, err)
	}
	if stats.Failed > 0 {
		g.logger.Warn("Some images were replaced by placeholders",
			"failed", stats.Failed,
			"total", stats.Total)
	}

	bmp, err := g.rasterizer.Rasterize(ctx, clean)
	if err != nil {
		return newRenderError(StageRasterize, err)
	}

	pages, err := g.place(bmp)
	if err != nil {
		return newRenderError(StageAssemble, err)
	}

	g.logger.Debug("Rendered document into PDF",
		"width_px", bmp.Width,
		"height_px", bmp.Height,
		"height_mm", math.Round(bmp.HeightMM(PageWidthMM)*10)/10,
		"pdf_pages", pages)
	return nil
}

func (g *Generator) place(bmp *rasterizer.Bitmap) (int, error) {
	g.images++
	name := fmt.Sprintf("page-%d", g.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}

	g.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(bmp.PNG))
	if err := g.doc.Error(); err != nil {
		return 0, fmt.Errorf("registering bitmap: %w", err)
	}

	heightMM := bmp.HeightMM(PageWidthMM)
	bands := PageCountFor(heightMM)

	if bands == 1 && heightMM <= PageHeightMM-SafetyMarginMM {
		g.doc.AddPage()
		g.doc.ImageOptions(name, 0, TopMarginMM, PageWidthMM, heightMM, false, opts, 0, "")
	} else {
		for i := range bands {
			g.doc.AddPage()
			g.doc.ImageOptions(name, 0, -float64(i)*PageHeightMM, PageWidthMM, heightMM, false, opts, 0, "")
		}
	}

	if err := g.doc.Error(); err != nil {
		return 0, fmt.Errorf("placing bitmap: %w", err)
	}
	return bands, nil
}

// PageCountFor returns how many PDF pages a bitmap of heightMM occupies.
func PageCountFor(heightMM float64) int {
	if heightMM <= PageHeightMM-SafetyMarginMM {
		return 1
	}
	return int(math.Ceil(heightMM / PageHeightMM))
}

// PageCount returns the number of pages added so far.
func (g *Generator) PageCount() int {
	return g.doc.PageCount()
}

// Bytes finalizes the document and returns its contents. Further calls return
// the same bytes.
func (g *Generator) Bytes() ([]byte, error) {
	if g.out != nil {
		return g.out, nil
	}
	if g.doc.PageCount() == 0 {
		return nil, newRenderError(StageAssemble, errors.New("document has no pages"))
	}

	var buf bytes.Buffer
	if err := g.doc.Output(&buf); err != nil {
		return nil, newRenderError(StageAssemble, fmt.Errorf("writing PDF: %w", err))
	}
	g.out = buf.Bytes()
	return g.out, nil
}
