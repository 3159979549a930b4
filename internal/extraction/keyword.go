package extraction

import (
	"bytes"
	"errors"
)

const (
	// KeywordStrategyName is the name of the built-in keyword strategy.
	KeywordStrategyName = "keyword"

	// DefaultKeyword is the JSON key holding the PIN, quotes included.
	DefaultKeyword = `"pinCode"`

	// separatorAllowance covers `: "` between the key and its value.
	separatorAllowance = 4
)

// KeywordStrategy finds the first occurrence of a keyword, skips any
// non-digit bytes after it and collects at most MaxDigits consecutive digits.
//
// Unlike SignatureStrategy, only the first keyword occurrence in a window is
// tried.
type KeywordStrategy struct {
	name    string
	keyword []byte
}

// NewKeywordStrategy creates a keyword strategy.
func NewKeywordStrategy(name, keyword string) (*KeywordStrategy, error) {
	if name == "" {
		return nil, errors.New("keyword strategy: name is required")
	}
	if keyword == "" {
		return nil, errors.New("keyword strategy " + name + ": keyword is required")
	}
	return &KeywordStrategy{
		name:    name,
		keyword: []byte(keyword),
	}, nil
}

// DefaultKeywordStrategy returns the `"pinCode"` strategy.
func DefaultKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{
		name:    KeywordStrategyName,
		keyword: []byte(DefaultKeyword),
	}
}

// Name implements Strategy.
func (k *KeywordStrategy) Name() string {
	return k.name
}

// Keyword returns the marker text.
func (k *KeywordStrategy) Keyword() string {
	return string(k.keyword)
}

// Span implements Strategy.
func (k *KeywordStrategy) Span() int {
	return len(k.keyword) + separatorAllowance + MaxDigits
}

// Extract implements Strategy.
func (k *KeywordStrategy) Extract(window []byte) (Match, bool) {
	at := bytes.Index(window, k.keyword)
	if at < 0 {
		return Match{}, false
	}

	pos := at + len(k.keyword)
	for pos < len(window) && !isDigit(window[pos]) {
		pos++
	}

	start := pos
	for pos < len(window) && isDigit(window[pos]) && pos-start < MaxDigits {
		pos++
	}

	if pos-start < MinDigits {
		return Match{}, false
	}
	return Match{
		Candidate: Candidate(window[start:pos]),
		Strategy:  k.name,
		Offset:    at,
	}, true
}

var _ Strategy = (*KeywordStrategy)(nil)
