// Package report formats the five CLI output modes -- tar listing, bag
// fast-verify, bag full-verify, show-empties, and get-member -- against
// stdout, matching the line shapes the original tool's verbose and
// summary output used.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ndlib/mtbagcheck/bagit"
	"github.com/ndlib/mtbagcheck/tarfile"
)

// TarListingLine formats one regular-file record as
// "type|offset|filesize|computed_digest|filename".
func TarListingLine(r *tarfile.Record) string {
	return fmt.Sprintf("%d|%d|%d|%s|%s", int(r.Type), r.Offset, r.Size, r.ComputedDigest, r.Name)
}

// WriteTarListing writes one TarListingLine per type-0 record, in
// archive order.
func WriteTarListing(w io.Writer, table *tarfile.RecordTable) {
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type == tarfile.TypeRegular {
			fmt.Fprintln(w, TarListingLine(r))
		}
	}
}

// BagFastLine formats the fast-verify GOOD/BAD line for bagName given
// VerifyFast's result.
func BagFastLine(bagName string, ok bool, expected, calculated string) string {
	if ok {
		return fmt.Sprintf("INFO - GOOD - %s  %s", bagName, calculated)
	}
	return fmt.Sprintf("ERROR - BAD - %s  Expected|Calculated   %s|%s", bagName, expected, calculated)
}

// BagFullLines formats the per-file detail and summary lines for a full
// verify. verbose also includes GOOD lines; otherwise only mismatches
// (and the summary) are emitted.
func BagFullLines(results []bagit.FileResult, verbose bool) []string {
	var lines []string
	for _, r := range results {
		switch r.Status {
		case bagit.StatusEmpty:
			if verbose {
				lines = append(lines, fmt.Sprintf("INFO - EMPTY - %s", r.Name))
			}
		case bagit.StatusGood:
			if verbose {
				lines = append(lines, fmt.Sprintf("INFO - GOOD - %s", r.Name))
			}
		default:
			lines = append(lines, fmt.Sprintf("ERROR - BAD! - %s", r.Name))
		}
	}
	lines = append(lines, bagit.Summary(results))
	return lines
}

// EmptiesLines formats the "show empties" listing: one bare path per
// zero-length payload file.
func EmptiesLines(names []string) []string {
	return append([]string{}, names...)
}

// MemberLines formats the "get" output: the member's content split into
// lines, with any trailing CR stripped, matching the NUL-terminated
// line-stream convention the raw member text already follows.
func MemberLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		lines = append(lines, strings.TrimRight(l, "\r"))
	}
	// A trailing empty element from a final newline isn't a real line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
