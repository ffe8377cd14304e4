package pdf2img

import (
	"fmt"
	"io"
	"os"

	"pdf2img/pkg/pdfrenderer"
)

// Source is a PDF to convert: raw bytes, a readable handle, or a locator
// (file path, file:// or http(s):// URL).
type Source struct {
	data    []byte
	reader  io.Reader
	locator string
}

func FromBytes(data []byte) Source { return Source{data: data} }

// FromReader takes a file-like handle. An *os.File is opened by name; any
// other reader is spooled to a temporary file for the duration of Convert.
func FromReader(r io.Reader) Source { return Source{reader: r} }

func FromLocator(locator string) Source { return Source{locator: locator} }

// documentParams normalizes s into backend params holding either a payload
// or a locator, never both. The returned cleanup must always be called.
func (s Source) documentParams(password string) (pdfrenderer.Params, func(), error) {
	noop := func() {}

	switch {
	case s.data != nil:
		return pdfrenderer.Params{Data: s.data, Password: password}, noop, nil
	case s.reader != nil:
		if f, ok := s.reader.(*os.File); ok && f.Name() != "" {
			if _, err := os.Stat(f.Name()); err == nil {
				return pdfrenderer.Params{Locator: f.Name(), Password: password}, noop, nil
			}
		}
		path, err := spool(s.reader)
		if err != nil {
			return pdfrenderer.Params{}, noop, err
		}
		cleanup := func() { _ = os.Remove(path) }
		return pdfrenderer.Params{Locator: path, Password: password}, cleanup, nil
	case s.locator != "":
		return pdfrenderer.Params{Locator: s.locator, Password: password}, noop, nil
	default:
		return pdfrenderer.Params{}, noop, ErrInvalidSource
	}
}

func spool(r io.Reader) (string, error) {
	tempFile, err := os.CreateTemp("", "pdf2img-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tempFile, r); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to write PDF to temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempFile.Name())
		return "", err
	}
	return tempFile.Name(), nil
}
