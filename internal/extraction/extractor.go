package extraction

// Extractor tries an ordered list of strategies and returns the first match.
//
// Order is precedence: when a window satisfies several strategies, the
// earliest one in the list is authoritative. An Extractor is not safe for
// concurrent Append, but Extract may run concurrently once it is built.
type Extractor struct {
	strategies []Strategy
}

// New creates an Extractor that tries strategies in the given order.
func New(strategies ...Strategy) *Extractor {
	e := &Extractor{}
	e.Append(strategies...)
	return e
}

// Default returns the signature strategy followed by the keyword strategy.
func Default() *Extractor {
	return New(DefaultSignatureStrategy(), DefaultKeywordStrategy())
}

// Append adds strategies after the existing ones. Nil entries are skipped.
func (e *Extractor) Append(strategies ...Strategy) {
	for _, s := range strategies {
		if s != nil {
			e.strategies = append(e.strategies, s)
		}
	}
}

// Strategies returns the strategies in precedence order.
func (e *Extractor) Strategies() []Strategy {
	out := make([]Strategy, len(e.strategies))
	copy(out, e.strategies)
	return out
}

// Names returns the strategy names in precedence order.
func (e *Extractor) Names() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Extract returns the first strategy's successful match over window.
func (e *Extractor) Extract(window []byte) (Match, bool) {
	for _, s := range e.strategies {
		if m, ok := s.Extract(window); ok {
			return m, true
		}
	}
	return Match{}, false
}

// MaxSpan returns the largest Span of any strategy, or 0 when empty.
func (e *Extractor) MaxSpan() int {
	longest := 0
	for _, s := range e.strategies {
		if span := s.Span(); span > longest {
			longest = span
		}
	}
	return longest
}
