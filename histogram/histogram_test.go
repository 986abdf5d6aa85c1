package histogram

import "testing"

func sumRowsBruteForce(widths []uint16, W uint32) uint64 {
	var total uint64
	for _, w := range widths {
		total += rows(w, W)
	}
	return total
}

func TestExactBucketsAreExact(t *testing.T) {
	widths := []uint16{0, 1, 2, 5, 10, 31}
	var h Histogram
	for _, w := range widths {
		h.Add(w)
	}

	for _, W := range []uint32{1, 5, 40, 1000} {
		got := h.Rows(W)
		want := sumRowsBruteForce(widths, W)
		if got != want {
			t.Fatalf("Rows(%d) = %d, want %d (exact buckets only)", W, got, want)
		}
		if !h.IsExactForWidth(W) {
			t.Fatalf("IsExactForWidth(%d) = false for all-exact-bucket histogram", W)
		}
	}
}

func TestRangeBucketBelowWidthIsExact(t *testing.T) {
	// All lines land in a range bucket whose hi < W: every one wraps to
	// exactly 1 row, so the estimate must be exact per spec §4.2.
	widths := []uint16{40, 50, 60, 63}
	var h Histogram
	for _, w := range widths {
		h.Add(w)
	}

	W := uint32(80)
	if !h.IsExactForWidth(W) {
		t.Fatalf("IsExactForWidth(%d) = false, want true (bucket hi=63 < W)", W)
	}
	got := h.Rows(W)
	want := sumRowsBruteForce(widths, W)
	if got != want {
		t.Fatalf("Rows(%d) = %d, want %d", W, got, want)
	}
}

func TestRangeBucketAboveWidthIsNotExact(t *testing.T) {
	widths := []uint16{100, 200, 300}
	var h Histogram
	for _, w := range widths {
		h.Add(w)
	}
	if h.IsExactForWidth(40) {
		t.Fatalf("IsExactForWidth(40) = true, want false (bucket spans rows > 1 unevenly)")
	}
}

func TestAddHistSubHistRoundTrip(t *testing.T) {
	var a, b Histogram
	for _, w := range []uint16{1, 2, 3, 100, 5000} {
		a.Add(w)
	}
	for _, w := range []uint16{4, 5, 6, 200} {
		b.Add(w)
	}

	merged := a
	merged.AddHist(&b)

	back := merged
	back.SubHist(&b)

	if back != a {
		t.Fatalf("SubHist did not invert AddHist: got %+v, want %+v", back, a)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var h Histogram
	for _, w := range []uint16{0, 31, 32, 1000, 65535} {
		h.Add(w)
	}

	buf := make([]byte, EncodedSize)
	h.Encode(buf)
	got := Decode(buf)

	if got != h {
		t.Fatalf("Decode(Encode(h)) != h")
	}
}

func TestBucketRangeCoversAllWidths(t *testing.T) {
	for w := 0; w <= 65535; w += 37 {
		i := bucketIndex(uint16(w))
		lo, hi := BucketRange(i)
		if uint32(w) < lo || uint32(w) > hi {
			t.Fatalf("width %d mapped to bucket %d with range [%d,%d]", w, i, lo, hi)
		}
	}
	// exhaustively check the boundary region too
	for w := 65500; w <= 65535; w++ {
		i := bucketIndex(uint16(w))
		lo, hi := BucketRange(i)
		if uint32(w) < lo || uint32(w) > hi {
			t.Fatalf("width %d mapped to bucket %d with range [%d,%d]", w, i, lo, hi)
		}
	}
}

func TestRowsFunctionMinimumOneRow(t *testing.T) {
	if got := rows(0, 80); got != 1 {
		t.Fatalf("rows(0, 80) = %d, want 1 (empty line still occupies a row)", got)
	}
}
