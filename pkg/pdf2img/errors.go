package pdf2img

import "errors"

var (
	// ErrEnvironmentUnsupported means no rendering backend could be started.
	ErrEnvironmentUnsupported = errors.New("pdf2img: no usable PDF rendering backend")
	// ErrInvalidPagesOption is returned for a page selection of unknown shape.
	ErrInvalidPagesOption = errors.New("invalid pages option")
	// ErrInvalidOutputOption is returned for an unknown output kind.
	ErrInvalidOutputOption = errors.New("invalid output option")
	// ErrCanvasRendering is returned when binary encoding yields no bytes.
	ErrCanvasRendering = errors.New("raster encoding produced no output")
	// ErrDocumentNotInitialized is returned when a page is rendered without a document.
	ErrDocumentNotInitialized = errors.New("PDF document not initialized")
	// ErrInvalidSource is returned for a Source with neither bytes nor a locator.
	ErrInvalidSource = errors.New("invalid PDF source")
	// ErrInvalidScale is returned for a negative scale.
	ErrInvalidScale = errors.New("invalid scale")
)
