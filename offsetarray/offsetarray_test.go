package offsetarray

import (
	"path/filepath"
	"testing"

	"github.com/intellect4all/logloglog/common/testutil"
)

func TestAppendAndGet(t *testing.T) {
	dir := testutil.TempDir(t)
	a, err := Open(filepath.Join(dir, "offsets.dat"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	offsets := []uint64{0, 11, 94, 257, 1 << 40}
	for _, o := range offsets {
		if err := a.Append(o); err != nil {
			t.Fatalf("Append(%d) failed: %v", o, err)
		}
	}

	for i, want := range offsets {
		got, err := a.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestTruncateAndReappend(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "offsets.dat")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	for i := 0; i < 10; i++ {
		if err := a.Append(uint64(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := a.Truncate(); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if a.Len() != 0 {
		t.Fatalf("Len() after Truncate = %d, want 0", a.Len())
	}
	if err := a.Append(123); err != nil {
		t.Fatalf("Append after Truncate failed: %v", err)
	}
	got, err := a.Get(0)
	if err != nil || got != 123 {
		t.Fatalf("Get(0) = %d, %v, want 123, nil", got, err)
	}
}
