package widtharray

import (
	"path/filepath"
	"testing"

	"github.com/intellect4all/logloglog/common/testutil"
)

func setupTestArray(t *testing.T) *Array {
	dir := testutil.TempDir(t)
	a, err := Open(filepath.Join(dir, "widths.dat"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAppendAndGet(t *testing.T) {
	a := setupTestArray(t)

	widths := []uint16{0, 10, 80, 160, 65535}
	for _, w := range widths {
		if err := a.Append(w); err != nil {
			t.Fatalf("Append(%d) failed: %v", w, err)
		}
	}

	if got := a.Len(); got != uint64(len(widths)) {
		t.Fatalf("Len() = %d, want %d", got, len(widths))
	}

	for i, want := range widths {
		got, err := a.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestGetOutOfRange(t *testing.T) {
	a := setupTestArray(t)
	if err := a.Append(5); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := a.Get(1); err == nil {
		t.Fatalf("Get(1) expected error on a 1-element array")
	}
}

func TestGrowthAcrossChunkBoundary(t *testing.T) {
	a := setupTestArray(t)

	// growthChunk/recordSize records fit in the first mapping; push past
	// it to exercise grow().
	n := (growthChunk/recordSize)*2 + 17
	for i := 0; i < n; i++ {
		if err := a.Append(uint16(i % 65536)); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		got, err := a.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != uint16(i%65536) {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i%65536)
		}
	}
}

func TestReopenPreservesData(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "widths.dat")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, w := range []uint16{1, 2, 3, 4, 5} {
		if err := a.Append(w); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer b.Close()

	if got := b.Len(); got != 5 {
		t.Fatalf("Len() after reopen = %d, want 5", got)
	}
	for i := uint64(0); i < 5; i++ {
		got, err := b.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != uint16(i+1) {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i+1)
		}
	}
}

func TestTruncate(t *testing.T) {
	a := setupTestArray(t)
	for _, w := range []uint16{1, 2, 3} {
		if err := a.Append(w); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := a.Truncate(); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if got := a.Len(); got != 0 {
		t.Fatalf("Len() after Truncate = %d, want 0", got)
	}
	if err := a.Append(42); err != nil {
		t.Fatalf("Append after Truncate failed: %v", err)
	}
	got, err := a.Get(0)
	if err != nil || got != 42 {
		t.Fatalf("Get(0) after Truncate+Append = %d, %v, want 42, nil", got, err)
	}
}
