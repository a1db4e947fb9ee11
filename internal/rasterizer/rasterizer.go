// Package rasterizer turns a rendered HTML document into a PNG bitmap.
package rasterizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// A4 geometry shared by the rasterizer and the PDF assembler.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0

	// PageWidthPx is 210mm at the CSS reference density of 96 dpi.
	PageWidthPx = 794
	// PageHeightPx is 297mm at 96 dpi.
	PageHeightPx = 1123

	// ContainerSelector is the element captured from each document.
	ContainerSelector = ".pdf-container"
)

// Rasterizer renders an HTML document to a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string) (*Bitmap, error)
}

// Func adapts a function to the Rasterizer interface.
type Func func(ctx context.Context, html string) (*Bitmap, error)

// Rasterize calls f.
func (f Func) Rasterize(ctx context.Context, html string) (*Bitmap, error) {
	return f(ctx, html)
}

// Bitmap is a PNG-encoded raster and its pixel dimensions.
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// NewBitmap reads the dimensions of a PNG.
func NewBitmap(data []byte) (*Bitmap, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding bitmap header: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("empty bitmap %dx%d", cfg.Width, cfg.Height)
	}
	return &Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// EncodeBitmap PNG-encodes img.
func EncodeBitmap(img image.Image) (*Bitmap, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding bitmap: %w", err)
	}
	b := img.Bounds()
	return &Bitmap{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// HeightMM is the bitmap height when scaled to widthMM.
func (b *Bitmap) HeightMM(widthMM float64) float64 {
	if b.Width == 0 {
		return 0
	}
	return float64(b.Height) * widthMM / float64(b.Width)
}
