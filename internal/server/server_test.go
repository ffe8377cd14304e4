package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf2img/internal/pdftest"
	"pdf2img/pkg/imgutil"
	"pdf2img/pkg/pdf2img"
	"pdf2img/pkg/pdfrenderer"
	"pdf2img/pkg/raster"
)

type stubOpener struct{ pages int }

func (o stubOpener) Open(_ context.Context, params pdfrenderer.Params) (pdfrenderer.Document, error) {
	if !bytes.HasPrefix(params.Data, []byte("%PDF-")) {
		return nil, errors.New("not a PDF")
	}
	return stubDocument{pages: o.pages}, nil
}

type stubDocument struct{ pages int }

func (d stubDocument) PageCount() int { return d.pages }
func (d stubDocument) Close() error   { return nil }

func (d stubDocument) Page(_ context.Context, index int) (pdfrenderer.Page, error) {
	if index < 1 || index > d.pages {
		return nil, pdfrenderer.ErrPageNotFound
	}
	return stubPage{}, nil
}

type stubPage struct{}

func (stubPage) Viewport(scale float64) pdfrenderer.Viewport {
	return pdfrenderer.NewViewport(10, 10, scale)
}

func (stubPage) RenderInto(_ context.Context, target *raster.Target, vp pdfrenderer.Viewport) error {
	return target.Blit(image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height)))
}

func (stubPage) Release() {}

func newTestServer(t *testing.T, pages int) *Server {
	t.Helper()
	conv, err := pdf2img.New(stubOpener{pages: pages})
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	return New(conv, pdf2img.Options{BatchDelay: -1}, nil)
}

func upload(t *testing.T, s *Server, target string, pdf []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if pdf != nil {
		part, err := writer.CreateFormFile("pdf", "doc.pdf")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := part.Write(pdf); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 1)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestConvertReturnsSelectedPages(t *testing.T) {
	s := newTestServer(t, 5)
	rec := upload(t, s, "/convert?pages=2-3&output=dataurl&scale=2&batch_size=1", pdftest.Build(5, 10, 10))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp convertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Pages) != 2 || resp.Pages[0].Page != 2 || resp.Pages[1].Page != 3 {
		t.Fatalf("unexpected pages %+v", resp.Pages)
	}
	for _, p := range resp.Pages {
		if !strings.HasPrefix(p.Image, "data:image/png;base64,") {
			t.Fatalf("page %d is not a PNG data URL", p.Page)
		}
		data, err := imgutil.DecodeBase64(p.Image)
		if err != nil || imgutil.SniffBytes(data) != imgutil.KindPNG {
			t.Fatalf("page %d does not decode to PNG: %v", p.Page, err)
		}
	}
}

func TestConvertDefaultsToBase64(t *testing.T) {
	s := newTestServer(t, 1)
	rec := upload(t, s, "/convert?format=jpg", pdftest.Build(1, 10, 10))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp convertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, err := imgutil.DecodeBase64(resp.Pages[0].Image)
	if err != nil || imgutil.SniffBytes(data) != imgutil.KindJPEG {
		t.Fatalf("expected bare base64 JPEG: %v", err)
	}
}

func TestConvertStatusCodes(t *testing.T) {
	s := newTestServer(t, 2)
	pdf := pdftest.Build(2, 10, 10)

	cases := []struct {
		name   string
		target string
		body   []byte
		want   int
	}{
		{"buffer output", "/convert?output=buffer", pdf, http.StatusBadRequest},
		{"bad pages", "/convert?pages=zero", pdf, http.StatusBadRequest},
		{"bad scale", "/convert?scale=-2", pdf, http.StatusBadRequest},
		{"bad batch size", "/convert?batch_size=0", pdf, http.StatusBadRequest},
		{"missing file", "/convert", nil, http.StatusBadRequest},
		{"unreadable document", "/convert", []byte("hello"), http.StatusUnprocessableEntity},
		{"page out of range", "/convert?pages=9", pdf, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		rec := upload(t, s, tc.target, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: status %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Fatalf("%s: no error message in body", tc.name)
		}
	}
}

func TestInspect(t *testing.T) {
	s := newTestServer(t, 1)
	rec := upload(t, s, "/inspect", pdftest.Build(2, 300, 200))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp inspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pages != 2 || len(resp.Sizes) != 2 || resp.Sizes[1].WidthPt != 300 {
		t.Fatalf("unexpected report %+v", resp)
	}

	if rec := upload(t, s, "/inspect", []byte("not a pdf")); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("garbage: status %d", rec.Code)
	}
}
