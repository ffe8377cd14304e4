package pdfrenderer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"pdf2img/pkg/raster"
)

// PDFiumConfig sizes the WebAssembly worker pool. Each open document holds
// one instance until it is closed.
type PDFiumConfig struct {
	MaxInstances    int
	InstanceTimeout time.Duration
	HTTPClient      *http.Client
}

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	pool    pdfium.Pool
	timeout time.Duration
	client  *http.Client
}

// NewPDFiumRenderer initializes the WebAssembly pool.
func NewPDFiumRenderer(cfg PDFiumConfig) (*PDFiumRenderer, error) {
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = 2
	}
	if cfg.InstanceTimeout <= 0 {
		cfg.InstanceTimeout = 30 * time.Second
	}

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  cfg.MaxInstances,
		MaxTotal: cfg.MaxInstances,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	return &PDFiumRenderer{
		pool:    pool,
		timeout: cfg.InstanceTimeout,
		client:  cfg.HTTPClient,
	}, nil
}

func (r *PDFiumRenderer) Name() string { return "pdfium" }

// Open loads a document into a dedicated PDFium instance.
func (r *PDFiumRenderer) Open(ctx context.Context, params Params) (Document, error) {
	src, err := resolve(ctx, r.client, params)
	if err != nil {
		return nil, err
	}

	// The WebAssembly runtime has no view of the host filesystem.
	data := src.data
	if data == nil {
		if data, err = os.ReadFile(src.path); err != nil {
			return nil, err
		}
	}

	instance, err := r.pool.GetInstance(r.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	req := &requests.OpenDocument{File: &data}
	if params.Password != "" {
		req.Password = &params.Password
	}

	doc, err := instance.OpenDocument(req)
	if err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	count, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		_, _ = instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		_ = instance.Close()
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumDocument{
		instance: instance,
		doc:      doc.Document,
		pages:    count.PageCount,
	}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	if r.pool != nil {
		err := r.pool.Close()
		r.pool = nil
		return err
	}
	return nil
}

// pdfiumDocument serializes every call into its instance; a WebAssembly
// instance runs one call at a time.
type pdfiumDocument struct {
	mu       sync.Mutex
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
	pages    int
	closed   bool
}

func (d *pdfiumDocument) PageCount() int { return d.pages }

func (d *pdfiumDocument) Page(ctx context.Context, index int) (Page, error) {
	if index < 1 || index > d.pages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageNotFound, index, d.pages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("document closed")
	}

	loaded, err := d.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: d.doc,
		Index:    index - 1,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load page %d: %w", index, err)
	}

	size, err := d.instance.GetPageSize(&requests.GetPageSize{
		Page: requests.Page{ByReference: &loaded.Page},
	})
	if err != nil {
		_, _ = d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: loaded.Page})
		return nil, fmt.Errorf("unable to get size of page %d: %w", index, err)
	}

	return &pdfiumPage{
		doc:    d,
		ref:    loaded.Page,
		index:  index,
		width:  size.Width,
		height: size.Height,
	}, nil
}

func (d *pdfiumDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	_, closeErr := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.doc})
	if err := d.instance.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

type pdfiumPage struct {
	doc      *pdfiumDocument
	ref      references.FPDF_PAGE
	index    int
	width    float64
	height   float64
	released bool
}

func (p *pdfiumPage) Viewport(scale float64) Viewport {
	return NewViewport(p.width, p.height, scale)
}

func (p *pdfiumPage) RenderInto(ctx context.Context, target *raster.Target, viewport Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()

	rendered, err := p.doc.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   requests.Page{ByReference: &p.ref},
		Width:  viewport.Width,
		Height: viewport.Height,
	})
	if err != nil {
		return fmt.Errorf("unable to render page %d: %w", p.index, err)
	}
	// The bitmap lives in WebAssembly memory until Cleanup, so copy it out
	// before another call can touch the instance.
	defer rendered.Cleanup()

	return target.Blit(rendered.Result.Image)
}

func (p *pdfiumPage) Release() {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if p.released || p.doc.closed {
		return
	}
	p.released = true
	_, _ = p.doc.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: p.ref})
}
