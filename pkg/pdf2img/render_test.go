package pdf2img

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"testing"

	"pdf2img/pkg/imgutil"
	"pdf2img/pkg/pdfrenderer"
)

func renderOpts(t *testing.T, output OutputKind, format Format) Options {
	t.Helper()
	opts, err := Options{Output: output, Format: format}.withDefaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return opts
}

func TestRenderPageEncodingsAgree(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatJPG} {
		t.Run(string(format), func(t *testing.T) {
			doc := &fakeDocument{pages: 3}
			ctx := context.Background()

			dataURL, err := renderPage(ctx, doc, 2, renderOpts(t, OutputDataURL, format))
			if err != nil {
				t.Fatalf("dataurl: %v", err)
			}
			b64, err := renderPage(ctx, doc, 2, renderOpts(t, OutputBase64, format))
			if err != nil {
				t.Fatalf("base64: %v", err)
			}
			buf, err := renderPage(ctx, doc, 2, renderOpts(t, OutputBuffer, format))
			if err != nil {
				t.Fatalf("buffer: %v", err)
			}
			blob, err := renderPage(ctx, doc, 2, renderOpts(t, OutputBlob, format))
			if err != nil {
				t.Fatalf("blob: %v", err)
			}

			prefix := "data:" + format.MimeType() + ";base64,"
			if !strings.HasPrefix(dataURL.Text, prefix) {
				t.Fatalf("data URL prefix: %.40q", dataURL.Text)
			}
			if imgutil.StripDataURL(dataURL.Text) != b64.Text {
				t.Fatalf("stripped data URL differs from base64 output")
			}
			decoded, err := imgutil.DecodeBase64(b64.Text)
			if err != nil {
				t.Fatalf("decode base64: %v", err)
			}
			if !bytes.Equal(decoded, buf.Data) {
				t.Fatalf("decoded base64 differs from buffer output")
			}
			if !bytes.Equal(blob.Blob.Bytes(), buf.Data) {
				t.Fatalf("blob bytes differ from buffer output")
			}
			if blob.Blob.Type() != format.MimeType() {
				t.Fatalf("blob type %q, want %q", blob.Blob.Type(), format.MimeType())
			}

			wantKind := imgutil.KindPNG
			if format == FormatJPG {
				wantKind = imgutil.KindJPEG
			}
			if kind := imgutil.SniffBytes(buf.Data); kind != wantKind {
				t.Fatalf("sniffed %s, want %s", kind, wantKind)
			}
			if !doc.allReleased() {
				t.Fatalf("pages or targets left unreleased")
			}
		})
	}
}

func TestRenderPageSetsExactlyOneRepresentation(t *testing.T) {
	doc := &fakeDocument{pages: 1}
	for _, kind := range []OutputKind{OutputBase64, OutputDataURL, OutputBuffer, OutputBlob} {
		out, err := renderPage(context.Background(), doc, 1, renderOpts(t, kind, FormatPNG))
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		set := 0
		if out.Text != "" {
			set++
		}
		if out.Data != nil {
			set++
		}
		if out.Blob != nil {
			set++
		}
		if set != 1 || out.Kind != kind || out.Page != 1 {
			t.Fatalf("%s: unexpected output %+v", kind, out)
		}
		if out.IsText() != (kind == OutputBase64 || kind == OutputDataURL) {
			t.Fatalf("%s: IsText mismatch", kind)
		}
	}
}

func TestRenderPageScalesViewport(t *testing.T) {
	doc := &fakeDocument{pages: 1}
	opts := renderOpts(t, OutputBuffer, FormatPNG)
	opts.Scale = 2.5

	out, err := renderPage(context.Background(), doc, 1, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 25 {
		t.Fatalf("got %dx%d, want 50x25", cfg.Width, cfg.Height)
	}
}

func TestRenderPageInvalidOutputReleases(t *testing.T) {
	doc := &fakeDocument{pages: 2}
	opts := renderOpts(t, OutputKind("invalid-value"), FormatPNG)

	_, err := renderPage(context.Background(), doc, 1, opts)
	if !errors.Is(err, ErrInvalidOutputOption) {
		t.Fatalf("expected ErrInvalidOutputOption, got %v", err)
	}
	if !doc.allReleased() {
		t.Fatalf("page or target not released after invalid output")
	}
}

func TestRenderPageFailureReleases(t *testing.T) {
	doc := &fakeDocument{pages: 2, failPage: 2}

	_, err := renderPage(context.Background(), doc, 2, renderOpts(t, OutputBase64, FormatPNG))
	if !errors.Is(err, errRenderFailed) {
		t.Fatalf("expected render error to pass through, got %v", err)
	}
	if len(doc.targets) != 1 || !doc.allReleased() {
		t.Fatalf("page or target not released after render failure")
	}
}

func TestRenderPageNotFound(t *testing.T) {
	doc := &fakeDocument{pages: 2}

	_, err := renderPage(context.Background(), doc, 3, renderOpts(t, OutputBase64, FormatPNG))
	if !errors.Is(err, pdfrenderer.ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestRenderPageWithoutDocument(t *testing.T) {
	_, err := renderPage(context.Background(), nil, 1, renderOpts(t, OutputBase64, FormatPNG))
	if !errors.Is(err, ErrDocumentNotInitialized) {
		t.Fatalf("expected ErrDocumentNotInitialized, got %v", err)
	}
}

func TestPageOutputBytes(t *testing.T) {
	doc := &fakeDocument{pages: 1}
	var want []byte
	for _, kind := range []OutputKind{OutputBuffer, OutputBase64, OutputDataURL, OutputBlob} {
		out, err := renderPage(context.Background(), doc, 1, renderOpts(t, kind, FormatPNG))
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		got, err := out.Bytes()
		if err != nil {
			t.Fatalf("%s bytes: %v", kind, err)
		}
		if want == nil {
			want = got
			continue
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("%s: bytes differ from buffer output", kind)
		}
	}
}
