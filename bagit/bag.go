// Package bagit resolves, binds, and verifies a BagIt package whose
// payload and metadata members live inside a tarfile.RecordTable rather
// than a directory tree or a zip archive. It mirrors the shape of the
// teacher's zip-based bag reader -- root discovery, a chosen checksum
// algorithm, manifest binding, then verification -- generalized to an
// archive that has already been reduced to a flat record table by the
// tarfile walker.
package bagit

import "errors"

const noRecord = -1

// ErrNoBagRoot means no directory record's name contained "/data/", so
// no bag root could be located.
var ErrNoBagRoot = errors.New("bagit: could not locate a bag root")

// ErrNoManifest means a bag root was found but no manifest-<algo>.txt
// member exists directly under it.
var ErrNoManifest = errors.New("bagit: no manifest found under bag root")

// ErrUnknownMember is returned by Member for any name other than
// "manifest", "tagmanifest", "baginfo", or "bagit".
var ErrUnknownMember = errors.New("bagit: unknown metadata member")

// maxManifestSize bounds how much of a single metadata member Member will
// read into memory, so a maliciously inflated manifest can't exhaust it.
const maxManifestSize = 100 << 20 // 100 MiB

// ErrManifestTooLarge is returned by Member when the requested metadata
// member's recorded size exceeds maxManifestSize.
var ErrManifestTooLarge = errors.New("bagit: metadata member exceeds the 100 MiB cap")

// Bag is the derived view of one resolved BagIt package: its root
// directory name, the strongest digest algorithm its manifest uses, the
// record-table indices of its four metadata members, and the tallied
// payload octet/stream counts used to check the bag-info Payload-Oxum.
type Bag struct {
	Root              string
	Algo              string
	BagitRecord       int
	BagInfoRecord     int
	ManifestRecord    int
	TagManifestRecord int
	OctetCount        int64
	StreamCount       int64
}
