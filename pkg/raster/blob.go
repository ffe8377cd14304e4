package raster

import (
	"bytes"
	"io"
)

// Blob is an opaque encoded image produced by Target.EncodeAsync.
type Blob struct {
	mimeType string
	data     []byte
}

// NewBlob wraps already encoded bytes.
func NewBlob(mimeType string, data []byte) *Blob {
	return &Blob{mimeType: mimeType, data: data}
}

func (b *Blob) Type() string { return b.mimeType }

func (b *Blob) Size() int { return len(b.data) }

// Bytes returns the encoded image. The slice is shared; do not modify it.
func (b *Blob) Bytes() []byte { return b.data }

func (b *Blob) Reader() io.Reader { return bytes.NewReader(b.data) }
