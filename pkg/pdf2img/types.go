package pdf2img

import (
	"log/slog"
	"time"

	"pdf2img/pkg/imgutil"
	"pdf2img/pkg/raster"
)

// Format is the image encoding of each page.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// MimeType maps jpg to image/jpeg and everything else to image/png.
func (f Format) MimeType() string {
	if f == FormatJPG {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension is the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatJPG {
		return "jpg"
	}
	return "png"
}

// OutputKind selects how each encoded page is returned.
type OutputKind string

const (
	OutputBase64  OutputKind = "base64"
	OutputDataURL OutputKind = "dataurl"
	OutputBuffer  OutputKind = "buffer"
	OutputBlob    OutputKind = "blob"
)

const (
	DefaultFormat     = FormatPNG
	DefaultOutput     = OutputBase64
	DefaultScale      = 1.0
	DefaultBatchSize  = 5
	DefaultBatchDelay = 100 * time.Millisecond
)

type Options struct {
	Format Format
	Output OutputKind
	Pages  PageSelection
	// Scale multiplies the page's intrinsic size; 1 renders one pixel per point.
	Scale     float64
	BatchSize int
	// BatchDelay is the pause between batches. Zero selects the default;
	// a negative value pauses for no time but still yields.
	BatchDelay time.Duration
	// Quality is the JPEG quality, 1-100.
	Quality  int
	Password string
	// OnProgress is called once per finished batch, from the converting goroutine.
	OnProgress func(BatchProgress)
	Logger     *slog.Logger
}

// DefaultOptions returns the options Convert uses for zero fields.
func DefaultOptions() Options {
	return Options{
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		Pages:      All(),
		Scale:      DefaultScale,
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		Quality:    raster.DefaultQuality,
	}
}

// withDefaults fills zero fields. Output is left alone so that an unknown
// kind surfaces at render time.
func (o Options) withDefaults() (Options, error) {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Scale < 0 {
		return o, ErrInvalidScale
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	}
	if o.Quality <= 0 {
		o.Quality = raster.DefaultQuality
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

// PageOutput is one rendered page. Exactly one of Text, Data and Blob is
// set, according to Kind.
type PageOutput struct {
	Page int
	Kind OutputKind
	Text string
	Data []byte
	Blob *raster.Blob
}

// IsText reports whether the output is a base64 or data URL string.
func (o PageOutput) IsText() bool {
	return o.Kind == OutputBase64 || o.Kind == OutputDataURL
}

// Bytes returns the encoded image regardless of Kind.
func (o PageOutput) Bytes() ([]byte, error) {
	switch o.Kind {
	case OutputBase64, OutputDataURL:
		return imgutil.DecodeBase64(o.Text)
	case OutputBuffer:
		return o.Data, nil
	case OutputBlob:
		if o.Blob == nil {
			return nil, ErrCanvasRendering
		}
		return o.Blob.Bytes(), nil
	default:
		return nil, ErrInvalidOutputOption
	}
}

// BatchProgress is delivered after each batch. Completed never decreases and
// never exceeds Total.
type BatchProgress struct {
	Completed int
	Total     int
	Batch     []PageOutput
}
