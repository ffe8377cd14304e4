package pdfrenderer

import (
	"context"
	"errors"
	"math"

	"pdf2img/pkg/raster"
)

// ErrPageNotFound is returned for a page index outside [1, PageCount].
var ErrPageNotFound = errors.New("page not found")

// Params describes where a document comes from. Exactly one of Data and
// Locator is set.
type Params struct {
	Data     []byte
	Locator  string
	Password string
}

// Opener opens PDF documents.
type Opener interface {
	Open(ctx context.Context, params Params) (Document, error)
}

// Document is an open PDF. Page may be called concurrently.
type Document interface {
	PageCount() int
	// Page returns the 1-based page index.
	Page(ctx context.Context, index int) (Page, error)
	Close() error
}

// Page is one loaded page. Release frees whatever the backend allocated for
// it and must be called exactly once.
type Page interface {
	Viewport(scale float64) Viewport
	RenderInto(ctx context.Context, target *raster.Target, viewport Viewport) error
	Release()
}

// Viewport is a page's pixel size at a scale, where scale 1 maps one PDF
// point to one pixel.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// NewViewport scales a page size given in points.
func NewViewport(widthPt, heightPt, scale float64) Viewport {
	return Viewport{
		Width:  pixels(widthPt * scale),
		Height: pixels(heightPt * scale),
		Scale:  scale,
	}
}

// DPI is the render resolution that yields this viewport.
func (v Viewport) DPI() float64 {
	return 72 * v.Scale
}

func pixels(v float64) int {
	n := int(math.Floor(v))
	if n < 1 {
		return 1
	}
	return n
}

// Renderer is an Opener that owns backend resources.
type Renderer interface {
	Opener
	Name() string
	Close() error
}

// NewRenderer creates the default PDFium-based renderer (pure Go, no CGo).
func NewRenderer() (Renderer, error) {
	return NewPDFiumRenderer(PDFiumConfig{})
}

// NewNamedRenderer creates the renderer registered under name: "pdfium" or "fitz".
func NewNamedRenderer(name string) (Renderer, error) {
	switch name {
	case "", "pdfium":
		return NewRenderer()
	case "fitz", "mupdf":
		return NewFitzRenderer()
	default:
		return nil, errors.New("unknown renderer " + name)
	}
}
