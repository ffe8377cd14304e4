// Package inspect reads PDF structure without rasterizing anything.
package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf2img/pkg/pdfrenderer"
)

// PageSize is a page's media box in PDF points.
type PageSize struct {
	Page     int
	WidthPt  float64
	HeightPt float64
}

// Viewport returns the pixel size the page renders at for scale.
func (p PageSize) Viewport(scale float64) pdfrenderer.Viewport {
	return pdfrenderer.NewViewport(p.WidthPt, p.HeightPt, scale)
}

// Report summarizes a document.
type Report struct {
	Version string
	Pages   int
	Sizes   []PageSize
}

// Reader validates the document in rs and reports its page geometry.
func Reader(rs io.ReadSeeker, password string) (*Report, error) {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pdfcpu page dims: %w", err)
	}

	report := &Report{
		Version: ctx.VersionString(),
		Pages:   ctx.PageCount,
		Sizes:   make([]PageSize, 0, len(dims)),
	}
	for i, d := range dims {
		report.Sizes = append(report.Sizes, PageSize{Page: i + 1, WidthPt: d.Width, HeightPt: d.Height})
	}
	return report, nil
}

// File opens path and inspects it.
func File(path, password string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Reader(f, password)
}
