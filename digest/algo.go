// Package digest provides the cryptographic-digest provider and the fixed
// worker pool that computes member content digests in parallel against a
// single shared read-only view of a backing archive.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
)

// ErrAlgoUnknown is returned when a requested algorithm name has no
// registered provider.
var ErrAlgoUnknown = errors.New("digest: unknown algorithm")

// NewFunc constructs a fresh hash.Hash for one algorithm.
type NewFunc func() hash.Hash

var registry = map[string]NewFunc{
	"md5":    func() hash.Hash { return md5.New() },
	"sha1":   func() hash.Hash { return sha1.New() },
	"sha256": func() hash.Hash { return sha256.New() },
	"sha512": func() hash.Hash { return sha512.New() },
}

// Order is the total order over supported algorithms, weakest first. The
// bag resolver uses it to pick the strongest manifest present.
var Order = []string{"md5", "sha1", "sha256", "sha512"}

// Lookup returns the hash constructor for name.
func Lookup(name string) (NewFunc, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, ErrAlgoUnknown
	}
	return fn, nil
}

// Strongest returns the strongest algorithm name present in the given set,
// under Order's total order. ok is false if none of the candidates are
// recognised algorithm names.
func Strongest(present map[string]bool) (algo string, ok bool) {
	for _, candidate := range Order {
		if present[candidate] {
			algo = candidate
			ok = true
		}
	}
	return algo, ok
}
