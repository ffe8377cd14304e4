// Package raster holds the per-page rendering surface a backend draws into and
// the encoders that turn it into PNG or JPEG output.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"

	"pdf2img/pkg/imgutil"
)

// ErrReleased is returned when a target is used after Release.
var ErrReleased = errors.New("raster target already released")

// DefaultQuality matches the JPEG quality browsers use for canvas exports.
const DefaultQuality = 92

// Target is a writable RGBA surface sized to one page viewport. A target is
// owned by exactly one render and must be released once its output has been
// extracted.
type Target struct {
	mu       sync.Mutex
	img      *image.RGBA
	released bool
}

// NewTarget allocates a width x height surface. Non-positive sizes are
// raised to 1 pixel.
func NewTarget(width, height int) *Target {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Target{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Width returns the pixel width, or 0 after Release.
func (t *Target) Width() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img.Bounds().Dx()
}

// Height returns the pixel height, or 0 after Release.
func (t *Target) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img.Bounds().Dy()
}

// Image exposes the backing surface for backends that rasterize in place.
func (t *Target) Image() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img
}

// Blit copies src onto the surface. A src whose size differs from the target
// (rounding between page points and pixels) is resampled to fit exactly.
func (t *Target) Blit(src image.Image) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}

	bounds := t.img.Bounds()
	if src.Bounds().Dx() != bounds.Dx() || src.Bounds().Dy() != bounds.Dy() {
		src = imaging.Resize(src, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
	}
	draw.Draw(t.img, bounds, src, src.Bounds().Min, draw.Src)
	return nil
}

// EncodeSync encodes the surface and returns it as a data URL.
func (t *Target) EncodeSync(mimeType string, quality int) (string, error) {
	data, err := t.encode(mimeType, quality)
	if err != nil {
		return "", err
	}
	return imgutil.DataURL(mimeTypeFor(mimeType), data), nil
}

// EncodeAsync encodes the surface on its own goroutine. The returned blob
// may be empty if the encoder produced nothing; callers decide whether that
// is an error.
func (t *Target) EncodeAsync(ctx context.Context, mimeType string, quality int) (*Blob, error) {
	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		data, err := t.encode(mimeType, quality)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &Blob{mimeType: mimeTypeFor(mimeType), data: res.data}, nil
	}
}

// Release shrinks the surface to zero pixels and drops its buffer. It is safe
// to call more than once.
func (t *Target) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.img = image.NewRGBA(image.Rectangle{})
	t.released = true
}

// Released reports whether Release has been called.
func (t *Target) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

func (t *Target) encode(mimeType string, quality int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, ErrReleased
	}

	format := imaging.PNG
	var opts []imaging.EncodeOption
	if mimeTypeFor(mimeType) == "image/jpeg" {
		format = imaging.JPEG
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		opts = append(opts, imaging.JPEGQuality(quality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, t.img, format, opts...); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// mimeTypeFor maps a requested type onto the two encoders we carry; anything
// that is not JPEG is written as PNG, as canvas exports do.
func mimeTypeFor(mimeType string) string {
	if mimeType == "image/jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
