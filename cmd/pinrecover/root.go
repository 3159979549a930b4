package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
	"github.com/fyrsmithlabs/pinrecover/internal/logging"
	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
	"github.com/fyrsmithlabs/pinrecover/internal/scanner"
	"github.com/fyrsmithlabs/pinrecover/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/pinrecover/cmd/pinrecover"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	reveal     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "pinrecover",
		Short: "Recover a parental-control PIN from a console save file",
		Long: `pinrecover scans a parental-control save file for the stored PIN.

The file is read in overlapping chunks and searched for the "pinCode"
JSON key and for the binary record signature. PINs are masked unless
--reveal is given; logs never contain them.

Exit status is 0 when a PIN was found, 2 when none was found and 1 on error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/pinrecover/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.reveal, "reveal", false, "print the recovered PIN in clear text")

	root.AddCommand(
		newScanCmd(opts),
		newRecoverCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

// session is the loaded configuration and the observability stack built
// from it for one command run.
type session struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	out       *printer
}

// setup loads configuration, applies flag overrides and builds logging and
// telemetry. Callers must close the session.
func (o *globalOptions) setup(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadWithFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.reveal {
		cfg.Recovery.Reveal = true
	}

	tel, err := telemetry.New(cmd.Context(), telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	logger, err := newLogger(cfg.Logging, tel)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, err
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		out:       newPrinter(cmd.OutOrStdout(), cfg.Recovery.Reveal),
	}, nil
}

// newLogger builds the CLI logger. Console output goes to stderr so that
// stdout carries only command results.
func newLogger(lc config.LoggingConfig, tel *telemetry.Telemetry) (*logging.Logger, error) {
	cfg := logging.NewDefaultConfig()

	level, err := logging.LevelFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	cfg.Level = level
	cfg.Format = lc.Format
	cfg.Output.Stderr = true

	var provider log.LoggerProvider
	if tel.IsEnabled() && tel.LoggerProvider() != nil {
		provider = tel.LoggerProvider()
		cfg.Output.OTEL = true
	}

	logger, err := logging.NewLogger(cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, nil
}

// scannerOptions wires the session's logger and tracer into a scanner.
func (s *session) scannerOptions(extra ...scanner.Option) []scanner.Option {
	return append([]scanner.Option{
		scanner.WithLogger(s.logger.Named("scanner")),
		scanner.WithTracer(s.telemetry.Tracer(instrumentationName)),
	}, extra...)
}

// service builds a recovery service from the session configuration.
func (s *session) service(scanOpts []scanner.Option, opts ...recovery.Option) (*recovery.Service, error) {
	opts = append([]recovery.Option{recovery.WithLogger(s.logger.Named("recovery"))}, opts...)
	svc, err := recovery.NewServiceFromConfig(s.cfg, s.scannerOptions(scanOpts...), opts...)
	if err != nil {
		return nil, fmt.Errorf("building recovery service: %w", err)
	}
	return svc, nil
}

// close flushes telemetry and logs. Errors are logged, not returned.
func (s *session) close() {
	ctx := context.Background()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// result converts a recovery report into the command's error.
func result(report *recovery.Report) error {
	if report.Found() {
		return nil
	}
	return errNotFound
}
