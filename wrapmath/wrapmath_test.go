package wrapmath

import "testing"

func TestRows(t *testing.T) {
	cases := []struct {
		w    uint16
		W    uint32
		want uint64
	}{
		{0, 80, 1},
		{10, 80, 1},
		{80, 80, 1},
		{160, 80, 2},
		{10, 40, 1},
		{80, 40, 2},
		{160, 40, 4},
	}
	for _, c := range cases {
		if got := Rows(c.w, c.W); got != c.want {
			t.Fatalf("Rows(%d, %d) = %d, want %d", c.w, c.W, got, c.want)
		}
	}
}

func TestWidthASCII(t *testing.T) {
	if got := Width("hello"); got != 5 {
		t.Fatalf("Width(hello) = %d, want 5", got)
	}
	if got := Width(""); got != 0 {
		t.Fatalf("Width(\"\") = %d, want 0", got)
	}
}

func TestSliceBasic(t *testing.T) {
	line := "0123456789"
	got, err := Slice(line, 4, 0)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if got != "0123" {
		t.Fatalf("Slice row 0 = %q, want %q", got, "0123")
	}

	got, err = Slice(line, 4, 2)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if got != "89" {
		t.Fatalf("Slice row 2 = %q, want %q", got, "89")
	}

	if _, err := Slice(line, 4, 3); err == nil {
		t.Fatalf("Slice row 3 expected out-of-range error")
	}
}

func TestSliceEmptyLine(t *testing.T) {
	got, err := Slice("", 80, 0)
	if err != nil {
		t.Fatalf("Slice of empty line failed: %v", err)
	}
	if got != "" {
		t.Fatalf("Slice of empty line = %q, want empty", got)
	}
	if _, err := Slice("", 80, 1); err == nil {
		t.Fatalf("Slice row 1 of empty line expected out-of-range error")
	}
}

func TestRowCountMatchesRowsFormula(t *testing.T) {
	line := "abcdefghijklmnopqrstuvwxyz"
	w := Width(line)
	for _, W := range []uint32{1, 3, 5, 10, 26, 80} {
		got := RowCount(line, uint32(W))
		want := Rows(w, W)
		if got != want {
			t.Fatalf("RowCount(%q, %d) = %d, want %d (Rows formula)", line, W, got, want)
		}
	}
}

func TestSliceCombiningMarkAttachesToBaseCell(t *testing.T) {
	// base "e" + combining acute accent (U+0301) is one grapheme
	// cluster and must never be split across rows on its own.
	line := "ébc"
	got, err := Slice(line, 1, 0)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if got != "é" {
		t.Fatalf("Slice row 0 = %q, want combined grapheme %q", got, "é")
	}
}
