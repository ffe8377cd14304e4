package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pdf2img/internal/config"
	"pdf2img/pkg/pdfrenderer"
)

var (
	cfg       = config.Load()
	logger    = slog.New(slog.DiscardHandler)
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "pdf2img",
	Short: "pdf2img - render PDF pages to PNG or JPEG",
	Long:  "pdf2img renders selected pages of PDF documents to PNG or JPEG images, in concurrent batches.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger, logCloser = config.SetupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRenderer starts the named backend. PDFium gets one instance per
// document worker.
func newRenderer(name string, workers int) (pdfrenderer.Renderer, error) {
	switch name {
	case "", "pdfium":
		return pdfrenderer.NewPDFiumRenderer(pdfrenderer.PDFiumConfig{MaxInstances: max(workers, 1)})
	default:
		return pdfrenderer.NewNamedRenderer(name)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
