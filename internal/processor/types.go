package processor

import "pdf2img/pkg/pdf2img"

type Options struct {
	// OutputDir receives one folder of page images per document when the
	// root is a directory, or the page images themselves for a single file.
	OutputDir string
	Workers   int
	Convert   pdf2img.Options
}

type Job struct {
	Path    string
	RelPath string
	Display string
}

type Result struct {
	Path      string
	RelPath   string
	Display   string
	Supported bool
	Err       error
	Pages     int
	Bytes     int64
	OutputDir string
}

type Summary struct {
	Documents int
	Converted int
	Errors    int
	Pages     int
	Bytes     int64
}

type DocumentReport struct {
	Path      string
	Pages     int
	Bytes     int64
	OutputDir string
	Err       error
}

// ProgressUpdate carries deltas; the receiver sums them.
type ProgressUpdate struct {
	DocumentsDelta  int
	ConvertedDelta  int
	ErrorDelta      int
	PagesTotalDelta int
	PagesDoneDelta  int
	BytesDelta      int64
}
