package bagit

import "github.com/ndlib/mtbagcheck/tarfile"

// Member returns the raw content of one of the bag's four metadata
// members: "manifest", "tagmanifest", "baginfo", or "bagit". data is the
// archive's shared backing view, as produced by tarfile.Walker.
func (b *Bag) Member(name string, table *tarfile.RecordTable, data []byte) (string, error) {
	var idx int
	switch name {
	case "manifest":
		idx = b.ManifestRecord
	case "tagmanifest":
		idx = b.TagManifestRecord
	case "baginfo":
		idx = b.BagInfoRecord
	case "bagit":
		idx = b.BagitRecord
	default:
		return "", ErrUnknownMember
	}
	if idx == noRecord {
		return "", ErrUnknownMember
	}
	if r := table.At(idx); r.Size > maxManifestSize {
		return "", ErrManifestTooLarge
	}
	return ReadRecord(table.At(idx), data), nil
}

// ReadRecord returns r's payload bytes from the shared backing view as
// a string.
func ReadRecord(r *tarfile.Record, data []byte) string {
	start := r.Offset * tarfile.BlockSize
	end := start + r.Size
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	if start > int64(len(data)) {
		start = int64(len(data))
	}
	return string(data[start:end])
}
