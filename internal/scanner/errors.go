package scanner

import "errors"

// Terminal reasons recorded on Result.Err. Scan collapses all of them to
// "not found"; they exist for logs, metrics and tests.
var (
	// ErrOpen indicates the file could not be opened.
	ErrOpen = errors.New("open failed")

	// ErrRead indicates a read failed mid-scan. Data from the failed read
	// is discarded.
	ErrRead = errors.New("read failed")

	// ErrAlloc indicates the scan window could not be allocated.
	ErrAlloc = errors.New("window allocation failed")

	// ErrNotFound indicates the whole input was scanned without a match.
	ErrNotFound = errors.New("pin not found")
)
