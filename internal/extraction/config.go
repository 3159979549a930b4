package extraction

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Config configures the built-in strategies and an optional catalog.
type Config struct {
	// Keyword is the marker for the keyword strategy (default: "pinCode" with quotes)
	Keyword string `koanf:"keyword"`

	// Signature is the hex-encoded signature for the binary strategy (default: 030c0607)
	Signature string `koanf:"signature"`

	// PayloadWidth is the fixed field width preceding the signature (default: 8)
	PayloadWidth int `koanf:"payload_width"`

	// Strict rejects binary payloads containing bytes other than digits and 0x00
	Strict bool `koanf:"strict"`

	// CatalogPath is an optional TOML file with additional strategies
	CatalogPath string `koanf:"catalog_path"`
}

// DefaultConfig returns the configuration matching Default().
func DefaultConfig() *Config {
	return &Config{
		Keyword:      DefaultKeyword,
		Signature:    hex.EncodeToString(DefaultSignature),
		PayloadWidth: DefaultPayloadWidth,
	}
}

// Build creates an Extractor from the configuration: the signature strategy,
// the keyword strategy, then every catalog strategy in file order.
func Build(cfg *Config) (*Extractor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	sig, err := decodeSignature(cfg.Signature)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	width := cfg.PayloadWidth
	if width == 0 {
		width = DefaultPayloadWidth
	}

	var opts []SignatureOption
	if cfg.Strict {
		opts = append(opts, WithStrictPayload())
	}
	binary, err := NewSignatureStrategy(SignatureStrategyName, sig, width, opts...)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	keyword := cfg.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	kw, err := NewKeywordStrategy(KeywordStrategyName, keyword)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	ext := New(binary, kw)

	if cfg.CatalogPath != "" {
		catalog, err := LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("extraction: %w", err)
		}
		strategies, err := catalog.Strategies()
		if err != nil {
			return nil, fmt.Errorf("extraction: catalog %s: %w", cfg.CatalogPath, err)
		}
		for _, s := range strategies {
			if s.Name() == SignatureStrategyName || s.Name() == KeywordStrategyName {
				return nil, fmt.Errorf("extraction: catalog %s: strategy name %q is reserved", cfg.CatalogPath, s.Name())
			}
		}
		ext.Append(strategies...)
	}

	return ext, nil
}

// decodeSignature parses hex with optional spaces ("03 0c 06 07").
func decodeSignature(s string) ([]byte, error) {
	if s == "" {
		return append([]byte(nil), DefaultSignature...), nil
	}
	cleaned := strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(s), "0x"), " ", "")
	sig, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", s, err)
	}
	return sig, nil
}
