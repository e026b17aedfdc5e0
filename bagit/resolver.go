package bagit

import (
	"strings"

	"github.com/ndlib/mtbagcheck/digest"
	"github.com/ndlib/mtbagcheck/tarfile"
)

// Resolve locates the bag root, the four metadata members, and the
// strongest manifest algorithm present in table, and tallies the
// payload octet and stream counts under "<root>/data/".
//
// The bag root is the longest directory-record prefix whose suffix
// begins with "/data/": taking the longest of several candidates is
// what lets a bag survive being wrapped in an extra outer directory by
// some other packaging step, since every data-bearing directory record
// still shares that same, longer prefix.
func Resolve(table *tarfile.RecordTable) (*Bag, error) {
	root, ok := findRoot(table)
	if !ok {
		return nil, ErrNoBagRoot
	}

	b := &Bag{
		Root:              root,
		BagitRecord:       noRecord,
		BagInfoRecord:     noRecord,
		ManifestRecord:    noRecord,
		TagManifestRecord: noRecord,
	}

	bagitPath := root + "/bagit.txt"
	bagInfoPath := root + "/bag-info.txt"
	manifestPrefix := root + "/manifest-"
	tagmanifestPrefix := root + "/tagmanifest-"
	dataPrefix := root + "/data/"

	present := map[string]bool{}
	manifestIdx := map[string]int{}

	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		switch {
		case r.Name == bagitPath:
			b.BagitRecord = i
		case r.Name == bagInfoPath:
			b.BagInfoRecord = i
		case strings.HasPrefix(r.Name, manifestPrefix):
			algo := algoSuffix(r.Name, manifestPrefix)
			if algo != "" {
				present[algo] = true
				manifestIdx[algo] = i
			}
		case strings.HasPrefix(r.Name, tagmanifestPrefix):
			r.Type = tarfile.TypeTagManifest
			b.TagManifestRecord = i
		case r.Type == tarfile.TypeRegular && strings.Contains(r.Name, dataPrefix):
			b.OctetCount += r.Size
			b.StreamCount++
		}
	}

	algo, ok := digest.Strongest(present)
	if !ok {
		return nil, ErrNoManifest
	}
	b.Algo = algo
	b.ManifestRecord = manifestIdx[algo]
	return b, nil
}

func findRoot(table *tarfile.RecordTable) (string, bool) {
	best := ""
	found := false
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type != tarfile.TypeDirectory {
			continue
		}
		idx := strings.Index(r.Name, "/data/")
		if idx < 0 {
			continue
		}
		root := r.Name[:idx]
		if !found || len(root) > len(best) {
			best = root
			found = true
		}
	}
	return best, found
}

func algoSuffix(name, prefix string) string {
	rest := strings.TrimPrefix(name, prefix)
	return strings.TrimSuffix(rest, ".txt")
}
