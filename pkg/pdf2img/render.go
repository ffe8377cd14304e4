package pdf2img

import (
	"context"

	"pdf2img/pkg/imgutil"
	"pdf2img/pkg/pdfrenderer"
	"pdf2img/pkg/raster"
)

// renderPage rasterizes one page and encodes it according to opts. The page
// and its target are released on every return path.
func renderPage(ctx context.Context, doc pdfrenderer.Document, index int, opts Options) (PageOutput, error) {
	if doc == nil {
		return PageOutput{}, ErrDocumentNotInitialized
	}

	page, err := doc.Page(ctx, index)
	if err != nil {
		return PageOutput{}, err
	}
	defer page.Release()

	viewport := page.Viewport(opts.Scale)
	target := raster.NewTarget(viewport.Width, viewport.Height)
	defer target.Release()

	if err := page.RenderInto(ctx, target, viewport); err != nil {
		return PageOutput{}, err
	}

	out, err := encodeTarget(ctx, target, opts)
	if err != nil {
		return PageOutput{}, err
	}
	out.Page = index
	return out, nil
}

func encodeTarget(ctx context.Context, target *raster.Target, opts Options) (PageOutput, error) {
	mimeType := opts.Format.MimeType()

	switch opts.Output {
	case OutputDataURL:
		dataURL, err := target.EncodeSync(mimeType, opts.Quality)
		if err != nil {
			return PageOutput{}, err
		}
		return PageOutput{Kind: OutputDataURL, Text: dataURL}, nil
	case OutputBase64:
		dataURL, err := target.EncodeSync(mimeType, opts.Quality)
		if err != nil {
			return PageOutput{}, err
		}
		return PageOutput{Kind: OutputBase64, Text: imgutil.StripDataURL(dataURL)}, nil
	case OutputBuffer:
		dataURL, err := target.EncodeSync(mimeType, opts.Quality)
		if err != nil {
			return PageOutput{}, err
		}
		data, err := imgutil.DecodeBase64(dataURL)
		if err != nil {
			return PageOutput{}, err
		}
		return PageOutput{Kind: OutputBuffer, Data: data}, nil
	case OutputBlob:
		blob, err := target.EncodeAsync(ctx, mimeType, opts.Quality)
		if err != nil {
			return PageOutput{}, err
		}
		if blob == nil || blob.Size() == 0 {
			return PageOutput{}, ErrCanvasRendering
		}
		return PageOutput{Kind: OutputBlob, Blob: blob}, nil
	default:
		return PageOutput{}, ErrInvalidOutputOption
	}
}
