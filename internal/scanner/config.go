package scanner

import (
	"errors"
	"fmt"
)

const (
	// DefaultChunkSize is the number of bytes read per window.
	DefaultChunkSize = 32 * 1024

	// DefaultOverlap is the number of bytes carried from one window into
	// the next. It must cover the longest strategy span.
	DefaultOverlap = 64

	// maxWindowSize caps ChunkSize + Overlap.
	maxWindowSize = 64*1024*1024 + 64*1024
)

// Config configures a Scanner.
type Config struct {
	// ChunkSize is the number of fresh bytes read into each window.
	ChunkSize int

	// Overlap is the number of tail bytes carried into the next window.
	Overlap int

	// ReadRateBytes throttles reads to this many bytes per second.
	// Zero disables throttling.
	ReadRateBytes int
}

// DefaultConfig returns a Config with a 32 KiB chunk and 64 byte overlap.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
}

// Validate checks the window geometry. minOverlap is the longest span any
// configured strategy needs to see intact.
func (c Config) Validate(minOverlap int) error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap cannot be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("overlap %d must be smaller than chunk size %d", c.Overlap, c.ChunkSize)
	}
	if c.Overlap < minOverlap {
		return fmt.Errorf("overlap %d is shorter than the longest strategy span %d", c.Overlap, minOverlap)
	}
	if c.ChunkSize+c.Overlap > maxWindowSize {
		return fmt.Errorf("window of %d bytes exceeds maximum %d", c.ChunkSize+c.Overlap, maxWindowSize)
	}
	if c.ReadRateBytes < 0 {
		return errors.New("read rate cannot be negative")
	}
	return nil
}
