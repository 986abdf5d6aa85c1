// Package wrapmath implements the pure display-wrapping functions of
// spec §4.3: the rows(w, W) row-count formula and the cell-based slicer
// that returns the r-th display row of a logical line's text.
//
// Cell accounting is delegated to github.com/rivo/uniseg (grapheme
// cluster boundaries) and github.com/mattn/go-runewidth (terminal cell
// width per cluster) — both present in the retrieval pack as the
// terminal-width stack real Go projects reach for (see
// other_examples/manifests/Kunde21-markdownfmt and .../SimonWaldherr-hep),
// and the combination gives exactly the "partial-cell characters attach
// to the preceding cell" rule spec §4.3 asks for: a zero-width combining
// mark is part of the same grapheme cluster as its base character, so it
// never starts a row on its own.
package wrapmath

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Rows computes max(1, ceil(w/W)) — spec §3/§4.3's rows function. Every
// logical line contributes at least one display row, even an empty one.
func Rows(w uint16, W uint32) uint64 {
	if W == 0 {
		W = 1
	}
	r := uint64(w) / uint64(W)
	if uint64(w)%uint64(W) != 0 {
		r++
	}
	if r == 0 {
		r = 1
	}
	return r
}

// Width returns the display-cell width of text at width infinity — the
// value that gets stored in widtharray. It sums grapheme-cluster widths
// (not rune widths) so combining marks don't inflate the count, and
// saturates at 65535 per spec §3/§7 (BadWidth: "saturate; not an
// error").
func Width(text string) uint16 {
	var total int
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		total += runewidth.StringWidth(gr.Str())
		if total >= 65535 {
			return 65535
		}
	}
	return uint16(total)
}

// splitRows splits text into its display rows at terminal width W. Wrapping
// greedily accumulates grapheme clusters until the next one would
// exceed W, matching spec §4.3's definition; a cluster wider than W by
// itself still starts and ends its own row rather than being dropped.
func splitRows(text string, W uint32) []string {
	if W == 0 {
		W = 1
	}

	var out []string
	var cur strings.Builder
	curWidth := 0

	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		c := gr.Str()
		cw := runewidth.StringWidth(c)
		if curWidth > 0 && uint32(curWidth+cw) > W {
			out = append(out, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteString(c)
		curWidth += cw
	}
	out = append(out, cur.String())
	return out
}

// Slice returns the r-th display row of line wrapped at width W. The
// last row is whatever remains; rows are never padded.
func Slice(line string, W uint32, r uint64) (string, error) {
	rows := splitRows(line, W)
	if r >= uint64(len(rows)) {
		return "", fmt.Errorf("wrapmath: row %d out of range (line has %d rows at width %d)", r, len(rows), W)
	}
	return rows[r], nil
}

// RowCount returns the number of display rows text occupies at width W
// by actually wrapping it, for callers that want ground truth rather
// than the width-summary formula in Rows.
func RowCount(text string, W uint32) uint64 {
	return uint64(len(splitRows(text, W)))
}
