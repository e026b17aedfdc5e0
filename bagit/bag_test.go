package bagit

import (
	"testing"

	"github.com/ndlib/mtbagcheck/tarfile"
)

func regularRecord(table *tarfile.RecordTable, name string, size int64) {
	table.Append(tarfile.Record{
		Name:        name,
		Size:        size,
		Type:        tarfile.TypeRegular,
		Fingerprint: tarfile.Fingerprint(name),
	})
}

func directoryRecord(table *tarfile.RecordTable, name string) {
	table.Append(tarfile.Record{Name: name, Type: tarfile.TypeDirectory})
}

func buildSampleBag(t *testing.T) (*tarfile.RecordTable, string, string) {
	t.Helper()
	table := tarfile.NewRecordTable()

	directoryRecord(table, "my-bag/")
	directoryRecord(table, "my-bag/data/")
	table.Append(tarfile.Record{Name: "my-bag/bagit.txt", Type: tarfile.TypeRegular, Size: 55})
	table.Append(tarfile.Record{Name: "my-bag/bag-info.txt", Type: tarfile.TypeRegular, Size: 30})
	table.Append(tarfile.Record{Name: "my-bag/manifest-sha256.txt", Type: tarfile.TypeRegular})
	table.Append(tarfile.Record{Name: "my-bag/manifest-md5.txt", Type: tarfile.TypeRegular})
	table.Append(tarfile.Record{Name: "my-bag/tagmanifest-md5.txt", Type: tarfile.TypeRegular})

	regularRecord(table, "my-bag/data/hello.txt", 5)
	regularRecord(table, "my-bag/data/sub/world.txt", 5)

	manifest := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  data/hello.txt\n" +
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  data/sub/world.txt\n"
	baginfo := "Payload-Oxum: 10.2\nBagging-Date: 2020-01-01\n"
	return table, manifest, baginfo
}

func TestResolveFindsRootAndStrongestAlgo(t *testing.T) {
	table, _, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	if b.Root != "my-bag" {
		t.Errorf("got root %q, want %q", b.Root, "my-bag")
	}
	if b.Algo != "sha256" {
		t.Errorf("got algo %q, want sha256 (the stronger of sha256/md5)", b.Algo)
	}
	if b.OctetCount != 10 || b.StreamCount != 2 {
		t.Errorf("got oxum %d.%d, want 10.2", b.OctetCount, b.StreamCount)
	}
}

func TestResolveNoRoot(t *testing.T) {
	table := tarfile.NewRecordTable()
	regularRecord(table, "loose.txt", 3)
	if _, err := Resolve(table); err != ErrNoBagRoot {
		t.Errorf("got %v, want ErrNoBagRoot", err)
	}
}

func TestBindManifestAttachesExpectedDigests(t *testing.T) {
	table, manifest, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	BindManifest(b.Root, manifest, table)

	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		switch r.Name {
		case "my-bag/data/hello.txt":
			if r.ExpectedDigest == "" {
				t.Error("hello.txt was not bound")
			}
		case "my-bag/data/sub/world.txt":
			if r.ExpectedDigest == "" {
				t.Error("sub/world.txt was not bound")
			}
		}
	}
}

func TestVerifyFastGood(t *testing.T) {
	table, _, baginfo := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	ok, expected, calculated := b.VerifyFast(baginfo)
	if !ok || expected != "10.2" || calculated != "10.2" {
		t.Errorf("got ok=%v expected=%q calculated=%q", ok, expected, calculated)
	}
}

func TestVerifyFastBadOxumStringNotNumeric(t *testing.T) {
	table, _, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	// A leading zero makes this a string mismatch even though it is
	// numerically identical to the computed oxum.
	ok, expected, calculated := b.VerifyFast("Payload-Oxum: 010.2\n")
	if ok {
		t.Error("expected mismatch for leading-zero oxum string")
	}
	if expected != "010.2" || calculated != "10.2" {
		t.Errorf("got expected=%q calculated=%q", expected, calculated)
	}
}

func TestVerifyFullSummary(t *testing.T) {
	table, manifest, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	BindManifest(b.Root, manifest, table)

	// Simulate the digest pool having run: hello.txt matches, world.txt
	// doesn't, and add two more good files to make a 3-out-of-4 summary.
	regularRecord(table, "my-bag/data/three.txt", 1)
	regularRecord(table, "my-bag/data/four.txt", 1)
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		switch r.Name {
		case "my-bag/data/hello.txt":
			r.ComputedDigest = r.ExpectedDigest
		case "my-bag/data/sub/world.txt":
			r.ComputedDigest = "deadbeef"
		case "my-bag/data/three.txt", "my-bag/data/four.txt":
			r.ExpectedDigest = "feedface"
			r.ComputedDigest = "feedface"
		}
	}

	results := b.VerifyFull(table)
	summary := Summary(results)
	want := "Fixity is good for 3 out of 4 files."
	if summary != want {
		t.Errorf("got %q, want %q", summary, want)
	}
}

func TestEmptiesSkipsDigestComparison(t *testing.T) {
	table, _, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	regularRecord(table, "my-bag/data/empty.txt", 0)

	empties := b.Empties(table)
	if len(empties) != 1 || empties[0] != "my-bag/data/empty.txt" {
		t.Errorf("got %v", empties)
	}

	results := b.VerifyFull(table)
	for _, r := range results {
		if r.Name == "my-bag/data/empty.txt" && r.Status != StatusEmpty {
			t.Error("an empty file must never be reported as a mismatch")
		}
	}
}

func TestVerifyFullSummaryExcludesEmptyFromNumerator(t *testing.T) {
	table := tarfile.NewRecordTable()
	directoryRecord(table, "my-bag/")
	directoryRecord(table, "my-bag/data/")
	table.Append(tarfile.Record{Name: "my-bag/manifest-md5.txt", Type: tarfile.TypeRegular})

	table.Append(tarfile.Record{
		Name: "my-bag/data/good.txt", Type: tarfile.TypeRegular, Size: 1,
		ExpectedDigest: "feedface", ComputedDigest: "feedface",
	})
	table.Append(tarfile.Record{
		Name: "my-bag/data/bad.txt", Type: tarfile.TypeRegular, Size: 1,
		ExpectedDigest: "feedface", ComputedDigest: "deadbeef",
	})
	table.Append(tarfile.Record{
		Name: "my-bag/data/empty.txt", Type: tarfile.TypeRegular, Size: 0,
	})

	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}

	results := b.VerifyFull(table)
	summary := Summary(results)
	want := "Fixity is good for 1 out of 3 files."
	if summary != want {
		t.Errorf("got %q, want %q", summary, want)
	}
}

func TestMemberRetrieval(t *testing.T) {
	table, _, _ := buildSampleBag(t)
	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Member("nonsense", table, nil); err != ErrUnknownMember {
		t.Errorf("got %v, want ErrUnknownMember", err)
	}
}

func TestMemberRejectsOversizedManifest(t *testing.T) {
	table := tarfile.NewRecordTable()
	directoryRecord(table, "my-bag/")
	directoryRecord(table, "my-bag/data/")
	table.Append(tarfile.Record{Name: "my-bag/manifest-md5.txt", Type: tarfile.TypeRegular, Size: maxManifestSize + 1})
	regularRecord(table, "my-bag/data/hello.txt", 5)

	b, err := Resolve(table)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Member("manifest", table, nil); err != ErrManifestTooLarge {
		t.Errorf("got %v, want ErrManifestTooLarge", err)
	}
}
