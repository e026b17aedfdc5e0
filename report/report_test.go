package report

import (
	"bytes"
	"testing"

	"github.com/ndlib/mtbagcheck/bagit"
	"github.com/ndlib/mtbagcheck/tarfile"
)

func TestTarListingLineFormat(t *testing.T) {
	r := &tarfile.Record{
		Name:           "hello.txt",
		Offset:         1,
		Size:           5,
		Type:           tarfile.TypeRegular,
		ComputedDigest: "5d41402abc4b2a76b9719d911017c592",
	}
	want := "0|1|5|5d41402abc4b2a76b9719d911017c592|hello.txt"
	if got := TarListingLine(r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteTarListingSkipsNonRegular(t *testing.T) {
	table := tarfile.NewRecordTable()
	table.Append(tarfile.Record{Name: "hello.txt", Offset: 1, Size: 5, Type: tarfile.TypeRegular, ComputedDigest: "abc"})
	table.Append(tarfile.Record{Name: "some-dir/", Type: tarfile.TypeDirectory})

	var buf bytes.Buffer
	WriteTarListing(&buf, table)
	want := "0|1|5|abc|hello.txt\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestBagFastLineGood(t *testing.T) {
	got := BagFastLine("my-bag", true, "10.2", "10.2")
	want := "INFO - GOOD - my-bag  10.2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBagFastLineBad(t *testing.T) {
	got := BagFastLine("my-bag", false, "10.3", "10.2")
	want := "ERROR - BAD - my-bag  Expected|Calculated   10.3|10.2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBagFullLinesSummary(t *testing.T) {
	results := []bagit.FileResult{
		{Name: "data/a.txt", Status: bagit.StatusGood},
		{Name: "data/b.txt", Status: bagit.StatusGood},
		{Name: "data/c.txt", Status: bagit.StatusGood},
		{Name: "data/d.txt", Status: bagit.StatusBad},
	}
	lines := BagFullLines(results, false)
	if lines[0] != "ERROR - BAD! - data/d.txt" {
		t.Errorf("got %q", lines[0])
	}
	last := lines[len(lines)-1]
	want := "Fixity is good for 3 out of 4 files."
	if last != want {
		t.Errorf("got %q, want %q", last, want)
	}
}

func TestBagFullLinesEmptyExcludedFromNumerator(t *testing.T) {
	results := []bagit.FileResult{
		{Name: "data/a.txt", Status: bagit.StatusGood},
		{Name: "data/b.txt", Status: bagit.StatusBad},
		{Name: "data/c.txt", Status: bagit.StatusEmpty},
	}
	lines := BagFullLines(results, false)
	last := lines[len(lines)-1]
	want := "Fixity is good for 1 out of 3 files."
	if last != want {
		t.Errorf("got %q, want %q", last, want)
	}
}

func TestMemberLinesStripsCRAndTrailingNewline(t *testing.T) {
	content := "bagit.txt\r\nBagIt-Version: 0.97\r\n"
	lines := MemberLines(content)
	want := []string{"bagit.txt", "BagIt-Version: 0.97"}
	if len(lines) != len(want) {
		t.Fatalf("got %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}
