// Package config provides configuration loading for pinrecover.
//
// Configuration comes from defaults, then an optional YAML file, then
// PINRECOVER_* environment variables. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
)

const (
	// DefaultSavePath is the system save holding parental-control settings,
	// relative to the root of the SYSTEM partition.
	DefaultSavePath = "save/8000000000000100"

	defaultChunkSize = 32 * 1024
	defaultOverlap   = 64
	maxChunkSize     = 64 * 1024 * 1024
)

// Config holds the complete pinrecover configuration.
type Config struct {
	Scanner    ScannerConfig     `koanf:"scanner"`
	Extraction extraction.Config `koanf:"extraction"`
	Recovery   RecoveryConfig    `koanf:"recovery"`
	Server     ServerConfig      `koanf:"server"`
	Logging    LoggingConfig     `koanf:"logging"`
	Telemetry  TelemetryConfig   `koanf:"telemetry"`
}

// ScannerConfig holds chunked scanner settings.
type ScannerConfig struct {
	ChunkSize     ByteSize `koanf:"chunk_size"`      // Bytes read per chunk (default: 32KiB)
	Overlap       ByteSize `koanf:"overlap"`         // Bytes carried between windows (default: 64)
	ReadRateBytes ByteSize `koanf:"read_rate_bytes"` // Read throttle in bytes/s, 0 disables
}

// RecoveryConfig holds recovery flow settings.
type RecoveryConfig struct {
	// SavePath is the pin save relative to the SYSTEM partition root.
	SavePath string `koanf:"save_path"`

	// Reveal prints and returns the PIN in clear text. Logs stay redacted.
	Reveal bool `koanf:"reveal"`

	// WatchPattern filters files picked up by watch mode (filepath.Match syntax).
	WatchPattern string `koanf:"watch_pattern"`

	// WatchDebounce delays a scan until writes to a file settle.
	WatchDebounce Duration `koanf:"watch_debounce"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// APIToken, when set, is required as a Bearer token on /api/v1 routes.
	APIToken Secret `koanf:"api_token"`

	// ScanRoot, when set, confines POST /api/v1/scan to files below it.
	ScanRoot string `koanf:"scan_root"`
}

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Scanner.ChunkSize == 0 {
		cfg.Scanner.ChunkSize = defaultChunkSize
	}
	if cfg.Scanner.Overlap == 0 {
		cfg.Scanner.Overlap = defaultOverlap
	}

	defaults := extraction.DefaultConfig()
	if cfg.Extraction.Keyword == "" {
		cfg.Extraction.Keyword = defaults.Keyword
	}
	if cfg.Extraction.Signature == "" {
		cfg.Extraction.Signature = defaults.Signature
	}
	if cfg.Extraction.PayloadWidth == 0 {
		cfg.Extraction.PayloadWidth = defaults.PayloadWidth
	}

	if cfg.Recovery.SavePath == "" {
		cfg.Recovery.SavePath = DefaultSavePath
	}
	if cfg.Recovery.WatchPattern == "" {
		cfg.Recovery.WatchPattern = "*"
	}
	if cfg.Recovery.WatchDebounce == 0 {
		cfg.Recovery.WatchDebounce = Duration(500 * time.Millisecond)
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "pinrecover"
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - chunk size is not in (0, 64MiB]
//   - overlap is negative or not smaller than the chunk size
//   - the read rate is negative
//   - the save path is absolute or escapes the partition root
//   - the watch pattern is malformed
//   - the server port is not between 1 and 65535
//   - the server scan root is relative
func (c *Config) Validate() error {
	if c.Scanner.ChunkSize <= 0 || c.Scanner.ChunkSize > maxChunkSize {
		return fmt.Errorf("invalid scanner chunk size: %d (must be 1-%d)", c.Scanner.ChunkSize, maxChunkSize)
	}
	if c.Scanner.Overlap < 0 || c.Scanner.Overlap >= c.Scanner.ChunkSize {
		return fmt.Errorf("invalid scanner overlap: %d (must be 0-%d)", c.Scanner.Overlap, c.Scanner.ChunkSize-1)
	}
	if c.Scanner.ReadRateBytes < 0 {
		return errors.New("scanner read rate cannot be negative")
	}

	if filepath.IsAbs(c.Recovery.SavePath) {
		return fmt.Errorf("recovery save path must be relative to the partition root: %s", c.Recovery.SavePath)
	}
	if !filepath.IsLocal(c.Recovery.SavePath) {
		return fmt.Errorf("recovery save path escapes the partition root: %s", c.Recovery.SavePath)
	}
	if _, err := filepath.Match(c.Recovery.WatchPattern, ""); err != nil {
		return fmt.Errorf("invalid watch pattern %q: %w", c.Recovery.WatchPattern, err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Server.ScanRoot != "" && !filepath.IsAbs(c.Server.ScanRoot) {
		return fmt.Errorf("server scan root must be absolute: %s", c.Server.ScanRoot)
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
