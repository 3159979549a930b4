package scanner

import (
	"io"
	"os"
)

// Opener opens a file for reading. It is the scanner's only file system
// collaborator.
type Opener interface {
	Open(path string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (io.ReadCloser, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (io.ReadCloser, error) {
	return f(path)
}

// OSOpener opens files read-only from the local file system.
type OSOpener struct{}

// Open implements Opener.
func (OSOpener) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var (
	_ Opener = OSOpener{}
	_ Opener = OpenerFunc(nil)
)
