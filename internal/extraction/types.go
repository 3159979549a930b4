package extraction

import "encoding/json"

const (
	// MinDigits is the shortest PIN accepted by every strategy.
	MinDigits = 4
	// MaxDigits is the longest PIN accepted by every strategy.
	MaxDigits = 8
)

// Candidate is a recovered PIN: 4 to 8 ASCII digits, not yet confirmed
// against the console.
type Candidate string

// String implements fmt.Stringer. Always returns a redacted value.
func (c Candidate) String() string {
	if c == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (c Candidate) GoString() string {
	return "Candidate([REDACTED])"
}

// Value returns the digits.
func (c Candidate) Value() string {
	return string(c)
}

// IsValid reports whether c is 4 to 8 ASCII digits.
func (c Candidate) IsValid() bool {
	if len(c) < MinDigits || len(c) > MaxDigits {
		return false
	}
	for i := 0; i < len(c); i++ {
		if !isDigit(c[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler. Always returns a redacted value.
func (c Candidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Match is a successful extraction within one window.
type Match struct {
	// Candidate is the validated digit string.
	Candidate Candidate

	// Strategy is the Name of the strategy that produced the match.
	Strategy string

	// Offset is the window offset of the first byte the strategy anchored
	// on (the payload start for signatures, the keyword start for keywords).
	Offset int
}

// Strategy locates and validates one PIN encoding within a byte window.
//
// Extract must be a pure function of window: it must not retain the slice,
// and it returns ok=false without a partial Match when validation fails.
type Strategy interface {
	// Name identifies the strategy in logs, metrics and catalogs.
	Name() string

	// Extract searches window and returns the first valid candidate.
	Extract(window []byte) (Match, bool)

	// Span is the longest run of bytes, from anchor to last digit, that a
	// successful match normally covers. Scanner overlap must be at least
	// this large for a match straddling a chunk boundary to be found.
	Span() int
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
