package pdfrenderer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gen2brain/go-fitz"

	"pdf2img/pkg/raster"
)

// FitzRenderer implements PDF rendering using go-fitz (requires MuPDF)
type FitzRenderer struct {
	client *http.Client
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

func (r *FitzRenderer) Name() string { return "fitz" }

func (r *FitzRenderer) Open(ctx context.Context, params Params) (Document, error) {
	if params.Password != "" {
		return nil, errors.New("fitz renderer does not support encrypted documents")
	}

	src, err := resolve(ctx, r.client, params)
	if err != nil {
		return nil, err
	}

	var doc *fitz.Document
	if src.data != nil {
		doc, err = fitz.NewFromMemory(src.data)
	} else {
		doc, err = fitz.New(src.path)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	return &fitzDocument{doc: doc, pages: doc.NumPage()}, nil
}

// Close is a no-op; documents are closed individually.
func (r *FitzRenderer) Close() error {
	return nil
}

// fitzDocument relies on go-fitz locking its own context, so pages may be
// rendered from several goroutines.
type fitzDocument struct {
	doc   *fitz.Document
	pages int
}

func (d *fitzDocument) PageCount() int { return d.pages }

func (d *fitzDocument) Page(ctx context.Context, index int) (Page, error) {
	if index < 1 || index > d.pages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageNotFound, index, d.pages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds, err := d.doc.Bound(index - 1)
	if err != nil {
		return nil, fmt.Errorf("unable to get bounds of page %d: %w", index, err)
	}
	return &fitzPage{
		doc:    d.doc,
		index:  index,
		width:  float64(bounds.Dx()),
		height: float64(bounds.Dy()),
	}, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

type fitzPage struct {
	doc    *fitz.Document
	index  int
	width  float64
	height float64
}

func (p *fitzPage) Viewport(scale float64) Viewport {
	return NewViewport(p.width, p.height, scale)
}

func (p *fitzPage) RenderInto(ctx context.Context, target *raster.Target, viewport Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := p.doc.ImageDPI(p.index-1, viewport.DPI())
	if err != nil {
		return fmt.Errorf("unable to render page %d: %w", p.index, err)
	}
	return target.Blit(img)
}

// Release is a no-op: go-fitz frees its pixmap before ImageDPI returns.
func (p *fitzPage) Release() {}
