// Package server exposes the converter over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pdf2img/internal/inspect"
	"pdf2img/pkg/pdf2img"
)

// MaxUpload caps request bodies.
const MaxUpload = "64M"

var errNoPDF = errors.New("no PDF file provided")

// Server handles conversion requests against a single Converter.
type Server struct {
	Echo     *echo.Echo
	conv     *pdf2img.Converter
	defaults pdf2img.Options
	logger   *slog.Logger
}

type pageResponse struct {
	Page  int    `json:"page"`
	Image string `json:"image"`
}

type convertResponse struct {
	Pages []pageResponse `json:"pages"`
}

type pageSizeResponse struct {
	Page     int     `json:"page"`
	WidthPt  float64 `json:"width_pt"`
	HeightPt float64 `json:"height_pt"`
}

type inspectResponse struct {
	Version string             `json:"version"`
	Pages   int                `json:"pages"`
	Sizes   []pageSizeResponse `json:"sizes"`
}

// New builds the echo instance and registers routes. defaults seeds every
// request's options before query parameters are applied.
func New(conv *pdf2img.Converter, defaults pdf2img.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{Echo: e, conv: conv, defaults: defaults, logger: logger}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxUpload))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Debug("request", attrs...)
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.POST("/convert", s.convert)
	e.POST("/inspect", s.inspectPDF)

	return s
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) convert(c echo.Context) error {
	opts, err := s.requestOptions(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	data, err := uploadedPDF(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	outputs, err := s.conv.Convert(c.Request().Context(), pdf2img.FromBytes(data), opts)
	if err != nil {
		if pdf2img.IsOptionError(err) {
			return errorResponse(c, http.StatusBadRequest, err)
		}
		return errorResponse(c, http.StatusUnprocessableEntity, err)
	}

	resp := convertResponse{Pages: make([]pageResponse, 0, len(outputs))}
	for _, out := range outputs {
		resp.Pages = append(resp.Pages, pageResponse{Page: out.Page, Image: out.Text})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) inspectPDF(c echo.Context) error {
	data, err := uploadedPDF(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	report, err := inspect.Reader(bytes.NewReader(data), c.FormValue("password"))
	if err != nil {
		return errorResponse(c, http.StatusUnprocessableEntity, err)
	}

	resp := inspectResponse{Version: report.Version, Pages: report.Pages, Sizes: make([]pageSizeResponse, 0, len(report.Sizes))}
	for _, size := range report.Sizes {
		resp.Sizes = append(resp.Sizes, pageSizeResponse{Page: size.Page, WidthPt: size.WidthPt, HeightPt: size.HeightPt})
	}
	return c.JSON(http.StatusOK, resp)
}

// requestOptions applies query parameters over the server defaults. Only
// text outputs can travel in a JSON body.
func (s *Server) requestOptions(c echo.Context) (pdf2img.Options, error) {
	opts := s.defaults
	opts.Logger = s.logger
	opts.OnProgress = nil
	opts.Password = c.FormValue("password")

	if v := c.QueryParam("pages"); v != "" {
		sel, err := pdf2img.ParseSelection(v)
		if err != nil {
			return opts, err
		}
		opts.Pages = sel
	}
	if v := c.QueryParam("format"); v != "" {
		opts.Format = pdf2img.Format(v)
	}

	opts.Output = pdf2img.OutputBase64
	if v := c.QueryParam("output"); v != "" {
		switch kind := pdf2img.OutputKind(v); kind {
		case pdf2img.OutputBase64, pdf2img.OutputDataURL:
			opts.Output = kind
		default:
			return opts, fmt.Errorf("%w: %q", pdf2img.ErrInvalidOutputOption, v)
		}
	}

	if v := c.QueryParam("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return opts, fmt.Errorf("%w: %q", pdf2img.ErrInvalidScale, v)
		}
		opts.Scale = scale
	}
	if v := c.QueryParam("batch_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return opts, fmt.Errorf("invalid batch_size %q", v)
		}
		opts.BatchSize = size
	}
	return opts, nil
}

func uploadedPDF(c echo.Context) ([]byte, error) {
	header, err := c.FormFile("pdf")
	if err != nil {
		return nil, errNoPDF
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func errorResponse(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]interface{}{
		"error": err.Error(),
	})
}
