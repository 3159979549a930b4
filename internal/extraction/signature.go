package extraction

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// SignatureStrategyName is the name of the built-in signature strategy.
	SignatureStrategyName = "binary-signature"

	// DefaultPayloadWidth is the fixed-width field preceding the signature.
	DefaultPayloadWidth = 8

	maxSignatureLen = 16
	maxPayloadWidth = 32
)

// DefaultSignature marks the end of the PIN field in the binary save layout.
var DefaultSignature = []byte{0x03, 0x0C, 0x06, 0x07}

// SignatureStrategy reads a fixed-width ASCII payload that immediately
// precedes a byte signature.
//
// Payload bytes are classified one by one: digits are kept, 0x00 is padding
// and skipped. Any other byte is ignored as well unless the strategy is
// strict, in which case the payload is rejected. Every occurrence of the
// signature is tried left to right until one payload validates.
type SignatureStrategy struct {
	name      string
	signature []byte
	width     int
	strict    bool
}

// SignatureOption configures a SignatureStrategy.
type SignatureOption func(*SignatureStrategy)

// WithStrictPayload rejects payloads containing bytes that are neither
// digits nor 0x00.
func WithStrictPayload() SignatureOption {
	return func(s *SignatureStrategy) {
		s.strict = true
	}
}

// NewSignatureStrategy creates a signature strategy. The signature is copied.
func NewSignatureStrategy(name string, signature []byte, width int, opts ...SignatureOption) (*SignatureStrategy, error) {
	if name == "" {
		return nil, errors.New("signature strategy: name is required")
	}
	if len(signature) == 0 || len(signature) > maxSignatureLen {
		return nil, fmt.Errorf("signature strategy %s: signature must be 1-%d bytes, got %d", name, maxSignatureLen, len(signature))
	}
	if width < MinDigits || width > maxPayloadWidth {
		return nil, fmt.Errorf("signature strategy %s: payload width must be %d-%d, got %d", name, MinDigits, maxPayloadWidth, width)
	}

	s := &SignatureStrategy{
		name:      name,
		signature: bytes.Clone(signature),
		width:     width,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultSignatureStrategy returns the lenient 03 0C 06 07 strategy with an
// 8-byte payload.
func DefaultSignatureStrategy() *SignatureStrategy {
	return &SignatureStrategy{
		name:      SignatureStrategyName,
		signature: bytes.Clone(DefaultSignature),
		width:     DefaultPayloadWidth,
	}
}

// Name implements Strategy.
func (s *SignatureStrategy) Name() string {
	return s.name
}

// Span implements Strategy.
func (s *SignatureStrategy) Span() int {
	return s.width + len(s.signature)
}

// Strict reports whether unexpected payload bytes reject the payload.
func (s *SignatureStrategy) Strict() bool {
	return s.strict
}

// Extract implements Strategy.
func (s *SignatureStrategy) Extract(window []byte) (Match, bool) {
	sigLen := len(s.signature)
	if len(window) < s.width+sigLen {
		return Match{}, false
	}

	// The signature may only start where a full payload precedes it.
	from := s.width
	for from <= len(window)-sigLen {
		idx := bytes.Index(window[from:], s.signature)
		if idx < 0 {
			break
		}
		at := from + idx
		start := at - s.width

		if digits, ok := s.payload(window[start:at]); ok {
			return Match{
				Candidate: Candidate(digits),
				Strategy:  s.name,
				Offset:    start,
			}, true
		}
		from = at + 1
	}

	return Match{}, false
}

// payload collects the digits of one fixed-width field.
func (s *SignatureStrategy) payload(field []byte) (string, bool) {
	digits := make([]byte, 0, len(field))
	for _, b := range field {
		switch {
		case isDigit(b):
			digits = append(digits, b)
		case b == 0x00:
			// padding
		case s.strict:
			return "", false
		}
	}

	if len(digits) < MinDigits || len(digits) > MaxDigits {
		return "", false
	}
	return string(digits), true
}

var _ Strategy = (*SignatureStrategy)(nil)
