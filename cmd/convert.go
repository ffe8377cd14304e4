package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdf2img/internal/processor"
	"pdf2img/internal/tui"
	"pdf2img/pkg/pdf2img"
)

var (
	convertPages      string
	convertFormat     string
	convertScale      float64
	convertBatchSize  int
	convertBatchDelay time.Duration
	convertQuality    int
	convertOutputDir  string
	convertEmit       string
	convertBackend    string
	convertPassword   string
	convertJobs       int
	convertQuiet      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <file|dir|url>",
	Short: "Render PDF pages to image files",
	Long: "Render the selected pages of a PDF, every PDF under a directory, or a PDF at an http(s) URL.\n" +
		"Pages are written as page-NNN.png or page-NNN.jpg; base64 and dataurl output is written as page-NNN.txt.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		selection, err := pdf2img.ParseSelection(convertPages)
		if err != nil {
			return fmt.Errorf("--pages %q: %w", convertPages, err)
		}
		format := pdf2img.Format(strings.ToLower(convertFormat))
		if format == "jpeg" {
			format = pdf2img.FormatJPG
		}

		outputDir := convertOutputDir
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return err
		}

		renderer, err := newRenderer(convertBackend, convertJobs)
		if err != nil {
			return err
		}
		defer renderer.Close()

		conv, err := pdf2img.New(renderer)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		updates := make(chan processor.ProgressUpdate, 64)
		uiDone := make(chan struct{})
		if convertQuiet {
			go func() {
				for range updates {
				}
				close(uiDone)
			}()
		} else {
			program := tea.NewProgram(tui.NewModel(updates))
			go func() {
				_, _ = program.Run()
				// ctrl+c in the UI stops the conversion too.
				cancel()
				for range updates {
				}
				close(uiDone)
			}()
		}

		started := time.Now()
		summary, reports, err := processor.Run(ctx, source, conv, processor.Options{
			OutputDir: outputDir,
			Workers:   convertJobs,
			Convert: pdf2img.Options{
				Format:     format,
				Output:     pdf2img.OutputKind(strings.ToLower(convertEmit)),
				Pages:      selection,
				Scale:      convertScale,
				BatchSize:  convertBatchSize,
				BatchDelay: convertBatchDelay,
				Quality:    convertQuality,
				Password:   convertPassword,
				Logger:     logger,
			},
		}, updates)

		close(updates)
		<-uiDone
		if err != nil {
			return err
		}

		outPath := outputDir
		if abs, absErr := filepath.Abs(outputDir); absErr == nil {
			outPath = abs
		}

		rows := []tui.SummaryRow{
			{Label: "Documents converted", Value: fmt.Sprintf("%d/%d", summary.Converted, summary.Documents)},
			{Label: "Pages rendered", Value: fmt.Sprintf("%d", summary.Pages)},
			{Label: "Written", Value: tui.FormatBytes(summary.Bytes)},
			{Label: "Elapsed", Value: time.Since(started).Round(time.Millisecond).String()},
			{Label: "Backend", Value: renderer.Name()},
		}
		if summary.Errors > 0 {
			rows = append(rows, tui.SummaryRow{Label: "Failed", Value: fmt.Sprintf("%d", summary.Errors), Warn: true})
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))

		failures := map[string]error{}
		for _, report := range reports {
			if report.Err != nil {
				failures[report.Path] = report.Err
			}
		}
		if len(failures) > 0 {
			fmt.Fprintln(os.Stdout, tui.RenderFailures(failures))
		}

		if summary.Documents == 0 {
			return fmt.Errorf("no PDF documents found in %s", source)
		}
		fmt.Fprintf(os.Stdout, "Images written to: %s\n", outPath)

		if summary.Errors > 0 {
			return fmt.Errorf("%d of %d documents failed", summary.Errors, summary.Documents)
		}
		return nil
	},
}

func init() {
	flags := convertCmd.Flags()
	flags.StringVarP(&convertPages, "pages", "p", "all", "pages to render: all, first, last, N, a,b,c, a-b, a- or -b")
	flags.StringVarP(&convertFormat, "format", "f", cfg.Format, "image format: png or jpg")
	flags.Float64VarP(&convertScale, "scale", "s", cfg.Scale, "render scale; 1 renders one pixel per PDF point")
	flags.IntVar(&convertBatchSize, "batch-size", cfg.BatchSize, "pages rendered concurrently per batch")
	flags.DurationVar(&convertBatchDelay, "batch-delay", cfg.BatchDelay, "pause between batches; negative for none")
	flags.IntVarP(&convertQuality, "quality", "q", cfg.Quality, "JPEG quality, 1-100")
	flags.StringVarP(&convertOutputDir, "output", "o", cfg.OutputDir, "destination folder")
	flags.StringVar(&convertEmit, "emit", string(pdf2img.OutputBuffer), "page encoding: buffer, blob, base64 or dataurl")
	flags.StringVarP(&convertBackend, "backend", "b", cfg.Backend, "renderer: pdfium or fitz")
	flags.StringVar(&convertPassword, "password", "", "password for encrypted documents")
	flags.IntVarP(&convertJobs, "jobs", "j", 2, "documents converted concurrently")
	flags.BoolVar(&convertQuiet, "quiet", false, "disable the progress display")

	rootCmd.AddCommand(convertCmd)
}
