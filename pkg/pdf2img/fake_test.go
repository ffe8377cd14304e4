package pdf2img

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"pdf2img/pkg/pdfrenderer"
	"pdf2img/pkg/raster"
)

var errRenderFailed = errors.New("render failed")

// fakeOpener is a deterministic backend: page n is a 20x10pt sheet filled
// with a colour derived from n.
type fakeOpener struct {
	pages    int
	openErr  error
	failPage int
	delay    func(index int) time.Duration

	mu         sync.Mutex
	params     []pdfrenderer.Params
	locatorSaw []bool
	docs       []*fakeDocument
}

func (o *fakeOpener) Open(ctx context.Context, params pdfrenderer.Params) (pdfrenderer.Document, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.params = append(o.params, params)
	if params.Locator != "" {
		_, err := os.Stat(params.Locator)
		o.locatorSaw = append(o.locatorSaw, err == nil)
	}
	if o.openErr != nil {
		return nil, o.openErr
	}

	doc := &fakeDocument{pages: o.pages, failPage: o.failPage, delay: o.delay}
	o.docs = append(o.docs, doc)
	return doc, nil
}

func (o *fakeOpener) lastDoc() *fakeDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.docs) == 0 {
		return nil
	}
	return o.docs[len(o.docs)-1]
}

type fakeDocument struct {
	pages    int
	failPage int
	delay    func(index int) time.Duration

	closed      atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32

	mu        sync.Mutex
	requested []int
	loaded    []*fakePage
	targets   []*raster.Target
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) Page(ctx context.Context, index int) (pdfrenderer.Page, error) {
	d.mu.Lock()
	d.requested = append(d.requested, index)
	d.mu.Unlock()

	if index < 1 || index > d.pages {
		return nil, fmt.Errorf("%w: page %d of %d", pdfrenderer.ErrPageNotFound, index, d.pages)
	}

	p := &fakePage{doc: d, index: index}
	d.mu.Lock()
	d.loaded = append(d.loaded, p)
	d.mu.Unlock()
	return p, nil
}

func (d *fakeDocument) Close() error {
	d.closed.Add(1)
	return nil
}

func (d *fakeDocument) requestedPages() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.requested...)
}

func (d *fakeDocument) allReleased() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.loaded {
		if p.releases.Load() != 1 {
			return false
		}
	}
	for _, t := range d.targets {
		if !t.Released() {
			return false
		}
	}
	return true
}

type fakePage struct {
	doc      *fakeDocument
	index    int
	releases atomic.Int32
}

func (p *fakePage) Viewport(scale float64) pdfrenderer.Viewport {
	return pdfrenderer.NewViewport(20, 10, scale)
}

func (p *fakePage) RenderInto(ctx context.Context, target *raster.Target, viewport pdfrenderer.Viewport) error {
	d := p.doc
	d.mu.Lock()
	d.targets = append(d.targets, target)
	d.mu.Unlock()

	n := d.inflight.Add(1)
	defer d.inflight.Add(-1)
	for {
		m := d.maxInflight.Load()
		if n <= m || d.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	if d.delay != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.delay(p.index)):
		}
	}
	if p.index == d.failPage {
		return errRenderFailed
	}

	img := image.NewRGBA(image.Rect(0, 0, viewport.Width, viewport.Height))
	fill := color.RGBA{R: uint8(p.index * 23), G: uint8(255 - p.index*11), B: 0x40, A: 0xff}
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return target.Blit(img)
}

func (p *fakePage) Release() {
	p.releases.Add(1)
}
