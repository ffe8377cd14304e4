package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pdf2img/internal/server"
	"pdf2img/pkg/pdf2img"
)

var (
	serveListen    string
	serveInstances int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer(cfg.Backend, serveInstances)
		if err != nil {
			return err
		}
		defer renderer.Close()

		conv, err := pdf2img.New(renderer)
		if err != nil {
			return err
		}

		srv := server.New(conv, pdf2img.Options{
			Format:     pdf2img.Format(cfg.Format),
			Scale:      cfg.Scale,
			BatchSize:  cfg.BatchSize,
			BatchDelay: cfg.BatchDelay,
			Quality:    cfg.Quality,
		}, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.Start(serveListen) }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", cfg.Listen, "address to listen on")
	serveCmd.Flags().IntVar(&serveInstances, "instances", 4, "PDFium instances, one per concurrent request")

	rootCmd.AddCommand(serveCmd)
}
