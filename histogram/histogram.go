// Package histogram implements the fixed-size, mergeable width-distribution
// summary of spec §3/§4.2: a hybrid bucket scheme of S exact single-width
// buckets followed by B-S exponential power-of-two range buckets, each
// storing a count and a width sum.
//
// There is no teacher file that does this directly (none of the pack's
// B-trees carry per-subtree aggregate summaries), so the shape is
// grounded on the teacher's general discipline for small fixed-size
// on-disk structs: plain arrays of plain structs, encoded with
// encoding/binary in Encode/Decode the same way btree/pager.go's
// Metadata is encoded field-by-field at fixed offsets.
package histogram

import (
	"encoding/binary"
	"math/bits"
)

const (
	// B is the total bucket count, S of which are exact single widths
	// 0..S-1; the remaining B-S are exponential ranges. Both are the
	// values spec §3 recommends.
	B = 64
	S = 32

	// EncodedSize is the on-disk size of a Histogram: B * (count uint32,
	// sum uint64).
	EncodedSize = B * 12
)

// Bucket is one width-range summary: how many lines fall in the range,
// and the sum of their widths (needed to approximate Σ⌈w/W⌉ without
// storing every width).
type Bucket struct {
	Count uint32
	Sum   uint64
}

// Histogram is a commutative monoid under Add/AddHist: merging two
// histograms (or adding a width to one) never depends on order.
type Histogram struct {
	Buckets [B]Bucket
}

// bucketIndex returns which bucket width w falls into.
func bucketIndex(w uint16) int {
	if int(w) < S {
		return int(w)
	}
	// j = floor(log2(w/S)), clamped so lines far beyond the largest
	// representable range collapse into the last bucket rather than
	// indexing out of bounds.
	j := bits.Len(uint(w)/S) - 1
	if j < 0 {
		j = 0
	}
	if j > B-S-1 {
		j = B - S - 1
	}
	return S + j
}

// BucketRange returns the inclusive [lo, hi] width range a bucket
// covers. Exact buckets (i < S) return lo == hi == i.
func BucketRange(i int) (lo, hi uint32) {
	if i < S {
		return uint32(i), uint32(i)
	}
	j := i - S
	lo = uint32(S) << uint(j)
	hi64 := uint64(S)<<uint(j+1) - 1
	if hi64 > 65535 {
		hi64 = 65535
	}
	return lo, uint32(hi64)
}

// IsExact reports whether bucket i is an exact single-width bucket.
func IsExact(i int) bool { return i < S }

// Add records one line of width w.
func (h *Histogram) Add(w uint16) {
	i := bucketIndex(w)
	h.Buckets[i].Count++
	h.Buckets[i].Sum += uint64(w)
}

// AddHist merges other into h (h += other).
func (h *Histogram) AddHist(other *Histogram) {
	for i := range h.Buckets {
		h.Buckets[i].Count += other.Buckets[i].Count
		h.Buckets[i].Sum += other.Buckets[i].Sum
	}
}

// SubHist removes other's contribution from h (h -= other), inverting
// an earlier AddHist of the same histogram.
func (h *Histogram) SubHist(other *Histogram) {
	for i := range h.Buckets {
		h.Buckets[i].Count -= other.Buckets[i].Count
		h.Buckets[i].Sum -= other.Buckets[i].Sum
	}
}

// TotalLines returns the total number of lines summarized.
func (h *Histogram) TotalLines() uint64 {
	var n uint64
	for i := range h.Buckets {
		n += uint64(h.Buckets[i].Count)
	}
	return n
}

// rows is spec §3's rows function: every line contributes at least one
// display row, even an empty one.
func rows(w uint16, W uint32) uint64 {
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

// Rows computes Σ_i c_i · rows_estimate(bucket_i, W), spec §4.2.
func (h *Histogram) Rows(W uint32) uint64 {
	if W == 0 {
		W = 1
	}
	var total uint64
	for i := range h.Buckets {
		b := h.Buckets[i]
		if b.Count == 0 {
			continue
		}
		if IsExact(i) {
			total += uint64(b.Count) * rows(uint16(i), W)
			continue
		}
		_, hi := BucketRange(i)
		if hi < W {
			// Every line in the bucket wraps to exactly one row.
			total += uint64(b.Count)
			continue
		}
		// General case: Σ⌈w/W⌉ ≈ c_i + floor((sum_i - c_i)/W). Never
		// below the true count and over it by less than c_i (spec §4.2);
		// not exact in general, which is why this
		// path is never used by locate's exact descent (see
		// wraptree.exactRowsOfChild).
		total += uint64(b.Count) + (b.Sum-uint64(b.Count))/uint64(W)
	}
	return total
}

// IsExactForWidth reports whether Rows(W) is an exact count rather than
// a bounded-error estimate: true when every populated bucket is either
// an exact single-width bucket or entirely below W (spec §4.2's
// "exactness requirement").
func (h *Histogram) IsExactForWidth(W uint32) bool {
	for i := range h.Buckets {
		if h.Buckets[i].Count == 0 {
			continue
		}
		if IsExact(i) {
			continue
		}
		_, hi := BucketRange(i)
		if hi >= W {
			return false
		}
	}
	return true
}

// Encode writes the histogram in the fixed B*(uint32,uint64) layout
// spec §4.4 assigns to internal node entries.
func (h *Histogram) Encode(buf []byte) {
	for i, b := range h.Buckets {
		off := i * 12
		binary.LittleEndian.PutUint32(buf[off:], b.Count)
		binary.LittleEndian.PutUint64(buf[off+4:], b.Sum)
	}
}

// Decode reads a histogram previously written by Encode.
func Decode(buf []byte) Histogram {
	var h Histogram
	for i := range h.Buckets {
		off := i * 12
		h.Buckets[i].Count = binary.LittleEndian.Uint32(buf[off:])
		h.Buckets[i].Sum = binary.LittleEndian.Uint64(buf[off+4:])
	}
	return h
}
