package extraction

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ErrInvalidCatalog indicates a catalog file that cannot be decoded.
var ErrInvalidCatalog = errors.New("invalid strategy catalog")

// Catalog declares strategies appended after the built-in ones.
//
//	[[keyword]]
//	name = "parental-json-v2"
//	keyword = "\"parentalPin\""
//
//	[[signature]]
//	name = "fw13-alt"
//	signature = "030c0607"
//	payload = 8
//	strict = true
//
// Keyword entries are tried before signature entries, each group in file
// order.
type Catalog struct {
	Keywords   []KeywordEntry   `toml:"keyword"`
	Signatures []SignatureEntry `toml:"signature"`
}

// KeywordEntry declares a KeywordStrategy.
type KeywordEntry struct {
	Name    string `toml:"name"`
	Keyword string `toml:"keyword"`
}

// SignatureEntry declares a SignatureStrategy.
type SignatureEntry struct {
	Name      string `toml:"name"`
	Signature string `toml:"signature"`
	Payload   int    `toml:"payload"`
	Strict    bool   `toml:"strict"`
}

// LoadCatalog reads a TOML catalog. A missing file yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, err
	}

	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, path, err)
	}
	return &c, nil
}

// Strategies validates the entries and builds them in precedence order.
func (c *Catalog) Strategies() ([]Strategy, error) {
	seen := make(map[string]bool)
	out := make([]Strategy, 0, len(c.Keywords)+len(c.Signatures))

	for i, e := range c.Keywords {
		if seen[e.Name] {
			return nil, fmt.Errorf("keyword %d: duplicate name %q", i, e.Name)
		}
		s, err := NewKeywordStrategy(e.Name, e.Keyword)
		if err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i, err)
		}
		seen[e.Name] = true
		out = append(out, s)
	}

	for i, e := range c.Signatures {
		if seen[e.Name] {
			return nil, fmt.Errorf("signature %d: duplicate name %q", i, e.Name)
		}
		sig, err := decodeSignature(e.Signature)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		width := e.Payload
		if width == 0 {
			width = DefaultPayloadWidth
		}
		var opts []SignatureOption
		if e.Strict {
			opts = append(opts, WithStrictPayload())
		}
		s, err := NewSignatureStrategy(e.Name, sig, width, opts...)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		seen[e.Name] = true
		out = append(out, s)
	}

	return out, nil
}
