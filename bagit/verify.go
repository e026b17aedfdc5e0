package bagit

import (
	"fmt"
	"strings"

	"github.com/ndlib/mtbagcheck/tarfile"
)

// Oxum returns the "<octets>.<streams>" payload accounting string tallied
// during Resolve.
func (b *Bag) Oxum() string {
	return fmt.Sprintf("%d.%d", b.OctetCount, b.StreamCount)
}

// PayloadOxum extracts the value following "Payload-Oxum:" in bag-info
// content. ok is false if the tag is absent.
func PayloadOxum(bagInfoContent string) (value string, ok bool) {
	for _, line := range manifestLines(bagInfoContent) {
		if !strings.Contains(line, "Payload-Oxum:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", false
		}
		return fields[len(fields)-1], true
	}
	return "", false
}

// VerifyFast compares the declared Payload-Oxum against the computed
// oxum by exact string equality. No numeric normalization is applied:
// a declared value of "010.2" does not match a computed "10.2".
func (b *Bag) VerifyFast(bagInfoContent string) (ok bool, expected, calculated string) {
	calculated = b.Oxum()
	expected, found := PayloadOxum(bagInfoContent)
	if !found {
		return false, "", calculated
	}
	return expected == calculated, expected, calculated
}

// Status is one payload file's disjoint outcome under a full verify:
// exactly one of good, bad, or empty, never a combination.
type Status int

const (
	StatusGood Status = iota
	StatusBad
	StatusEmpty
)

// FileResult is one payload file's outcome under a full verify.
type FileResult struct {
	Name   string
	Status Status
}

// VerifyFull compares the expected and computed digests of every
// regular-file record under "<root>/data/". Zero-length files are
// reported separately as StatusEmpty and never compared as a mismatch,
// since an empty file was never fed to the digest pool; they still
// count toward the summary's denominator, just not its numerator.
func (b *Bag) VerifyFull(table *tarfile.RecordTable) []FileResult {
	dataPrefix := b.Root + "/data/"
	var results []FileResult
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type != tarfile.TypeRegular || !strings.Contains(r.Name, dataPrefix) {
			continue
		}
		if r.Size == 0 {
			results = append(results, FileResult{Name: r.Name, Status: StatusEmpty})
			continue
		}
		status := StatusBad
		if r.ExpectedDigest != "" && strings.EqualFold(r.ExpectedDigest, r.ComputedDigest) {
			status = StatusGood
		}
		results = append(results, FileResult{Name: r.Name, Status: status})
	}
	return results
}

// Empties lists the zero-length payload files under the bag's data
// subtree.
func (b *Bag) Empties(table *tarfile.RecordTable) []string {
	dataPrefix := b.Root + "/data/"
	var names []string
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type == tarfile.TypeRegular && strings.Contains(r.Name, dataPrefix) && r.Size == 0 {
			names = append(names, r.Name)
		}
	}
	return names
}

// Summary formats the "Fixity is good for N out of M files." line from
// a completed VerifyFull pass. Empty files count only toward the
// denominator, never the numerator.
func Summary(results []FileResult) string {
	good := 0
	for _, r := range results {
		if r.Status == StatusGood {
			good++
		}
	}
	return fmt.Sprintf("Fixity is good for %d out of %d files.", good, len(results))
}
