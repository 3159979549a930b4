// Package http serves the pinrecover HTTP API: health, on-demand scans of
// server-side files, and Prometheus metrics.
package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
	"github.com/fyrsmithlabs/pinrecover/internal/logging"
	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
	"github.com/fyrsmithlabs/pinrecover/internal/telemetry"
)

// errOutsideRoot is returned when a scan path escapes Config.ScanRoot.
var errOutsideRoot = errors.New("path is outside the scan root")

// Server provides HTTP endpoints for pinrecover.
type Server struct {
	echo      *echo.Echo
	recovery  *recovery.Service
	logger    *logging.Logger
	config    *Config
	metrics   *HTTPMetrics
	telemetry *telemetry.Telemetry
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Reveal includes the PIN digits in scan responses.
	Reveal bool

	// APIToken, when set, is required as a Bearer token on /api/v1.
	APIToken config.Secret

	// ScanRoot, when set, confines scans to files below this directory.
	ScanRoot string

	// Version is reported by /health.
	Version string

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithTelemetry reports telemetry health on /health and records HTTP
// metrics through its meter provider.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// NewServer creates a new HTTP server.
func NewServer(svc *recovery.Service, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("recovery service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9191,
		}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		recovery: svc,
		logger:   logger.Named("http"),
		config:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(httpInstrumentationName)
	if s.telemetry != nil {
		meter = s.telemetry.Meter(httpInstrumentationName)
	}
	s.metrics = NewHTTPMetrics(meter, s.logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.requestLogger)

	s.echo = e
	s.registerRoutes()

	return s, nil
}

// requestLogger carries the request id into the request context and logs
// each request once it completes.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		ctx := logging.WithRequestID(req.Context(), id)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// Let echo write the error so the logged status is final.
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	if s.config.APIToken.IsSet() {
		v1.Use(middleware.KeyAuth(s.validateToken))
	}
	v1.POST("/scan", s.handleScan)
}

func (s *Server) validateToken(key string, _ echo.Context) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.config.APIToken.Value())) == 1, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version}
	if s.telemetry != nil {
		switch h := s.telemetry.Health(); {
		case h.Degraded:
			resp.Telemetry = "degraded"
		case s.telemetry.IsEnabled():
			resp.Telemetry = "enabled"
		default:
			resp.Telemetry = "disabled"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleScan scans one server-side file for a PIN.
func (s *Server) handleScan(c echo.Context) error {
	ctx := c.Request().Context()

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid scan request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Path) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path field is required")
	}

	path, err := s.resolvePath(req.Path)
	if err != nil {
		s.logger.Warn(ctx, "scan path rejected", zap.String("path", req.Path), zap.Error(err))
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}

	report := s.recovery.ScanFile(ctx, path)
	s.metrics.RecordScan(ctx, report.Result.Outcome())

	res := report.Result
	resp := ScanResponse{
		ScanID:     report.ScanID,
		Found:      report.Found(),
		Outcome:    res.Outcome(),
		BytesRead:  res.BytesRead,
		Windows:    res.Windows,
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
	}
	if report.Found() {
		resp.PINLength = len(report.Candidate().Value())
		resp.Strategy = res.Match.Strategy
		resp.Offset = res.Offset
		if s.config.Reveal {
			resp.PIN = report.Candidate().Value()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// resolvePath makes path absolute and, when a scan root is configured,
// checks that it stays below the root after resolving symlinks.
func (s *Server) resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if s.config.ScanRoot == "" {
		return abs, nil
	}

	root, err := filepath.EvalSymlinks(s.config.ScanRoot)
	if err != nil {
		return "", fmt.Errorf("resolving scan root: %w", err)
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

// resolveExisting resolves symlinks in the longest existing prefix of path
// and appends the missing components unchanged. Missing files are reported
// by the scan itself. A path that exists but cannot be resolved, such as a
// dangling symlink, is an error.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if _, lerr := os.Lstat(path); !errors.Is(lerr, fs.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return "", err
	}
	dir, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
