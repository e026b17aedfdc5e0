// Package resolver implements the small external-collaborator interface
// the walker depends on: given a user-supplied archive reference,
// produce a local backing path, a starting byte offset, and a total
// byte count. The "sam" mode staging of a disk-archive copy and the
// "wrapped" fixed-offset case share this one contract; a plain local
// path is the trivial case.
package resolver

import (
	"os"

	"github.com/pkg/errors"
)

// Location is what the walker needs to begin reading: a local,
// mmap-able file, an optional byte offset where the tar stream actually
// starts inside that file, and the file's total size.
type Location struct {
	BackingPath string
	StartOffset int64
	TotalBytes  int64
	Staged      bool // true if BackingPath is a temp copy the caller must remove
}

// ErrUnsupportedSamCopy is returned when a sam copy number other than 1
// is requested; this tool only understands the single on-media copy.
var ErrUnsupportedSamCopy = errors.New("resolver: unsupported sam copy number")

// ErrWrapOffsetNonPositive is returned when a --wrapped offset is not a
// positive integer.
var ErrWrapOffsetNonPositive = errors.New("resolver: wrap offset must be positive")

// HSM is the external collaborator interface for a hierarchical-storage
// lookup: given a logical archive name, resolve it to a Location on
// locally addressable media.
type HSM interface {
	Resolve(logicalName string, copyNumber int) (Location, error)
}

// Plain resolves a path that is already a bare, unwrapped tar file on
// local disk.
func Plain(path string) (Location, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Location{}, errors.Wrapf(err, "resolver: stat %s", path)
	}
	return Location{BackingPath: path, StartOffset: 0, TotalBytes: fi.Size()}, nil
}

// Wrapped resolves a path whose tar stream begins offset bytes into an
// otherwise arbitrary file.
func Wrapped(path string, offset int64) (Location, error) {
	if offset <= 0 {
		return Location{}, ErrWrapOffsetNonPositive
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Location{}, errors.Wrapf(err, "resolver: stat %s", path)
	}
	return Location{BackingPath: path, StartOffset: offset, TotalBytes: fi.Size()}, nil
}

// Sam resolves a logical archive name via an HSM collaborator. Only
// copy number 1 is supported.
func Sam(hsm HSM, logicalName string, copyNumber int) (Location, error) {
	if copyNumber != 1 {
		return Location{}, ErrUnsupportedSamCopy
	}
	return hsm.Resolve(logicalName, copyNumber)
}
