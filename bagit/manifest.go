package bagit

import (
	"strings"

	"github.com/ndlib/mtbagcheck/tarfile"
)

// BindManifest parses the manifest member's content and attaches each
// line's expected digest to the matching payload record, found by
// hashing the full "<root>/<relpath>" name the same way the walker
// fingerprints record names. A fingerprint index turns this into an
// O(1) lookup per line instead of a scan of the whole table; that's an
// implementation upgrade over a linear search, not a change in which
// records end up bound.
func BindManifest(root, content string, table *tarfile.RecordTable) {
	index := fingerprintIndex(table)
	for _, line := range manifestLines(content) {
		sum, relpath, ok := splitManifestLine(line)
		if !ok {
			continue
		}
		full := root + "/" + relpath
		if i, found := index[tarfile.Fingerprint(full)]; found {
			table.At(i).ExpectedDigest = sum
		}
	}
}

// BindTagManifest parses the tagmanifest member's content and attaches
// each line's expected digest to the matching metadata record by
// substring match against the record's name. Tagmanifests only ever
// cover a handful of small metadata members, so a scan per line is
// cheap.
func BindTagManifest(content string, table *tarfile.RecordTable) {
	for _, line := range manifestLines(content) {
		sum, relpath, ok := splitManifestLine(line)
		if !ok {
			continue
		}
		for i := 0; i < table.Len(); i++ {
			r := table.At(i)
			if strings.Contains(r.Name, relpath) {
				r.ExpectedDigest = sum
				break
			}
		}
	}
}

func fingerprintIndex(table *tarfile.RecordTable) map[[16]byte]int {
	index := make(map[[16]byte]int, table.Len())
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type == tarfile.TypeRegular {
			index[r.Fingerprint] = i
		}
	}
	return index
}

func manifestLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitManifestLine splits a manifest line on its first run of
// whitespace: "<digest><ws><path>". The path is taken verbatim after
// that, since BagIt paths may themselves contain spaces.
func splitManifestLine(line string) (sum, path string, ok bool) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return "", "", false
	}
	sum = line[:i]
	rest := strings.TrimLeft(line[i:], " \t")
	if rest == "" {
		return "", "", false
	}
	return sum, rest, true
}
