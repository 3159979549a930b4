package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpserver "github.com/fyrsmithlabs/pinrecover/internal/http"
	"github.com/fyrsmithlabs/pinrecover/internal/scanner"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan HTTP API",
		Long: `Serve the HTTP API: GET /health, POST /api/v1/scan and GET /metrics.

Set server.api_token to require a Bearer token on /api/v1 and
server.scan_root to confine scans to one directory.

Examples:
  pinrecover serve --port 9191`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if host != "" {
				s.cfg.Server.Host = host
			}
			if port != 0 {
				s.cfg.Server.Port = port
			}

			svc, err := s.service([]scanner.Option{scanner.WithMetrics(scanner.NewMetrics())})
			if err != nil {
				return err
			}

			srv, err := httpserver.NewServer(svc, s.logger, &httpserver.Config{
				Host:     s.cfg.Server.Host,
				Port:     s.cfg.Server.Port,
				Reveal:   s.cfg.Recovery.Reveal,
				APIToken: s.cfg.Server.APIToken,
				ScanRoot: s.cfg.Server.ScanRoot,
				Version:  version,
			}, httpserver.WithTelemetry(s.telemetry))
			if err != nil {
				return fmt.Errorf("creating http server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			s.logger.Info(context.Background(), "shutdown signal received",
				zap.Duration("shutdown_timeout", s.cfg.Server.ShutdownTimeout.Duration()))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down http server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}
