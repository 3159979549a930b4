package recovery

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Status is a progress message for interactive callers.
type Status string

const (
	StatusSettingUpKeys Status = "Setting up keys"
	StatusMounting      Status = "Mounting SYSTEM"
	StatusFoundSave     Status = "Found pin save"
	StatusSaveMissing   Status = "Pin save missing"
	StatusFound         Status = "PIN found"
	StatusNotFound      Status = "PIN not found"
)

// StatusFunc receives progress messages. It must not block.
type StatusFunc func(Status)

func (f StatusFunc) report(s Status) {
	if f != nil {
		f(s)
	}
}

// ErrVolume indicates the SYSTEM volume could not be prepared.
var ErrVolume = errors.New("volume unavailable")

// Volume is a prepared, readable SYSTEM partition.
type Volume interface {
	// Root is the directory the partition is mounted at.
	Root() string

	// Close unmounts the partition and releases key material.
	Close() error
}

// Preparer makes the SYSTEM partition readable. Implementations that
// derive keys report StatusSettingUpKeys before doing so, and all report
// StatusMounting before mounting.
type Preparer interface {
	Prepare(ctx context.Context, status StatusFunc) (Volume, error)
}

// DirPreparer serves a SYSTEM partition that is already decrypted and
// mounted, or extracted, at Dir.
type DirPreparer struct {
	Dir string
}

// Prepare implements Preparer.
func (p DirPreparer) Prepare(_ context.Context, status StatusFunc) (Volume, error) {
	status.report(StatusMounting)

	if p.Dir == "" {
		return nil, fmt.Errorf("%w: no directory given", ErrVolume)
	}
	info, err := os.Stat(p.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVolume, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrVolume, p.Dir)
	}
	return dirVolume(p.Dir), nil
}

type dirVolume string

func (v dirVolume) Root() string { return string(v) }

func (v dirVolume) Close() error { return nil }

var _ Preparer = DirPreparer{}
