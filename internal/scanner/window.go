package scanner

import "fmt"

// allocWindow returns a zeroed window of size bytes. A non-positive size or
// one above maxWindowSize yields ErrAlloc. Running out of memory is fatal in
// Go and is not reported here.
func allocWindow(size int) ([]byte, error) {
	if size <= 0 || size > maxWindowSize {
		return nil, fmt.Errorf("%w: invalid window size %d", ErrAlloc, size)
	}
	return make([]byte, size), nil
}

// carry moves the last overlap bytes of win[:valid] to the head of win and
// returns how many bytes were carried. The ranges may alias; copy handles
// that.
func carry(win []byte, valid, overlap int) int {
	tail := min(overlap, valid)
	if tail <= 0 {
		return 0
	}
	copy(win[:tail], win[valid-tail:valid])
	return tail
}
