package recovery

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
	"github.com/fyrsmithlabs/pinrecover/internal/scanner"
)

// NewScanner builds the extractor and scanner described by cfg.
func NewScanner(cfg *config.Config, opts ...scanner.Option) (*scanner.Scanner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	ex, err := extraction.Build(&cfg.Extraction)
	if err != nil {
		return nil, fmt.Errorf("building extractor: %w", err)
	}
	return scanner.New(scanner.Config{
		ChunkSize:     cfg.Scanner.ChunkSize.Int(),
		Overlap:       cfg.Scanner.Overlap.Int(),
		ReadRateBytes: cfg.Scanner.ReadRateBytes.Int(),
	}, ex, opts...)
}

// NewServiceFromConfig builds a Scanner from cfg and wraps it in a Service
// using the configured save path.
func NewServiceFromConfig(cfg *config.Config, scanOpts []scanner.Option, opts ...Option) (*Service, error) {
	sc, err := NewScanner(cfg, scanOpts...)
	if err != nil {
		return nil, err
	}
	return NewService(sc, append([]Option{WithSavePath(cfg.Recovery.SavePath)}, opts...)...)
}
