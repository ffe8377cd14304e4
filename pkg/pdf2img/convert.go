// Package pdf2img renders selected pages of a PDF into PNG or JPEG images,
// batch by batch, returning them as base64 strings, data URLs, raw bytes or
// blobs in the order the pages were selected.
package pdf2img

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pdf2img/pkg/pdfrenderer"
)

// Converter runs the conversion pipeline against one backend.
type Converter struct {
	opener pdfrenderer.Opener
}

// New returns a Converter over opener.
func New(opener pdfrenderer.Opener) (*Converter, error) {
	if opener == nil {
		return nil, ErrEnvironmentUnsupported
	}
	return &Converter{opener: opener}, nil
}

// Convert opens src, renders the selected pages and returns one output per
// page in selection order. On error no outputs are returned. The document is
// closed exactly once before Convert returns.
func (c *Converter) Convert(ctx context.Context, src Source, opts Options) (_ []PageOutput, err error) {
	opts, err = opts.withDefaults()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger

	params, cleanup, err := src.documentParams(opts.Password)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	started := time.Now()
	doc, err := c.opener.Open(ctx, params)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			logger.Warn("closing document", "error", closeErr)
		}
	}()

	total := doc.PageCount()
	pages, err := opts.Pages.Resolve(total)
	if err != nil {
		return nil, err
	}
	logger.Debug("document opened", "pages", total, "selected", len(pages), "selection", opts.Pages.String())

	outputs, err := runBatches(ctx, doc, pages, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("conversion complete",
		"pages", len(outputs),
		"format", opts.Format,
		"output", opts.Output,
		"elapsed", time.Since(started))
	return outputs, nil
}

var (
	defaultOnce      sync.Once
	defaultConverter *Converter
	defaultErr       error
)

// Default returns a process-wide Converter over the PDFium backend, started
// on first use.
func Default() (*Converter, error) {
	defaultOnce.Do(func() {
		renderer, err := pdfrenderer.NewRenderer()
		if err != nil {
			defaultErr = fmt.Errorf("%w: %w", ErrEnvironmentUnsupported, err)
			return
		}
		defaultConverter, defaultErr = New(renderer)
	})
	return defaultConverter, defaultErr
}

// Convert converts src with the default converter.
func Convert(ctx context.Context, src Source, opts Options) ([]PageOutput, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, src, opts)
}

// IsOptionError reports whether err came from invalid caller options rather
// than from the document or backend.
func IsOptionError(err error) bool {
	return errors.Is(err, ErrInvalidPagesOption) ||
		errors.Is(err, ErrInvalidOutputOption) ||
		errors.Is(err, ErrInvalidScale) ||
		errors.Is(err, ErrInvalidSource)
}
