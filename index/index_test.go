package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/intellect4all/logloglog/common"
	"github.com/intellect4all/logloglog/wraptree"
)

func setupTestIndex(t *testing.T, content string) *Index {
	t.Helper()
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.log")
	if err := os.WriteFile(srcPath, []byte(content), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg := DefaultConfig(srcPath)
	cfg.CacheDir = filepath.Join(dir, "cache")

	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

// S1 — Empty log.
func TestEmptyLog(t *testing.T) {
	ix := setupTestIndex(t, "")
	if ix.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", ix.Len())
	}
	rows, err := ix.tree.RowsAtWidth(80)
	if err != nil {
		t.Fatalf("RowsAtWidth failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("RowsAtWidth(80) = %d, want 0", rows)
	}
	if _, _, err := ix.tree.Locate(80, 0); err != common.ErrOutOfRange {
		t.Fatalf("Locate(80,0) err = %v, want ErrOutOfRange", err)
	}
}

// S2 — Single empty line.
func TestSingleEmptyLine(t *testing.T) {
	ix := setupTestIndex(t, "\n")
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ix.Len())
	}
	rows, err := ix.tree.RowsAtWidth(80)
	if err != nil {
		t.Fatalf("RowsAtWidth failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("RowsAtWidth(80) = %d, want 1", rows)
	}
	line, residual, err := ix.tree.Locate(80, 0)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if line != 0 || residual != 0 {
		t.Fatalf("Locate(80,0) = (%d,%d), want (0,0)", line, residual)
	}

	view, err := ix.At(80, 0, nil)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	got, err := view.Get(0)
	if err != nil {
		t.Fatalf("View.Get(0) failed: %v", err)
	}
	if got != "" {
		t.Fatalf("View row 0 = %q, want empty", got)
	}
}

func threeLineSource() string {
	return strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 80) + "\n" + strings.Repeat("c", 160) + "\n"
}

// S3 — Three lines, widths 10/80/160 at W=80.
func TestThreeLinesWidth80(t *testing.T) {
	ix := setupTestIndex(t, threeLineSource())

	rows, err := ix.tree.RowsAtWidth(80)
	if err != nil {
		t.Fatalf("RowsAtWidth failed: %v", err)
	}
	if rows != 4 {
		t.Fatalf("RowsAtWidth(80) = %d, want 4", rows)
	}

	cases := []struct {
		row          uint64
		line, offset uint64
	}{
		{0, 0, 0},
		{1, 1, 0},
		{2, 2, 0},
		{3, 2, 1},
	}
	for _, c := range cases {
		line, residual, err := ix.tree.Locate(80, c.row)
		if err != nil {
			t.Fatalf("Locate(80,%d) failed: %v", c.row, err)
		}
		if line != c.line || residual != c.offset {
			t.Fatalf("Locate(80,%d) = (%d,%d), want (%d,%d)", c.row, line, residual, c.line, c.offset)
		}
	}
}

// S4 — Same source at W=40.
func TestThreeLinesWidth40(t *testing.T) {
	ix := setupTestIndex(t, threeLineSource())

	rows, err := ix.tree.RowsAtWidth(40)
	if err != nil {
		t.Fatalf("RowsAtWidth failed: %v", err)
	}
	if rows != 7 {
		t.Fatalf("RowsAtWidth(40) = %d, want 7", rows)
	}

	line, residual, err := ix.tree.Locate(40, 5)
	if err != nil {
		t.Fatalf("Locate(40,5) failed: %v", err)
	}
	if line != 2 || residual != 2 {
		t.Fatalf("Locate(40,5) = (%d,%d), want (2,2)", line, residual)
	}
}

// S5 — Large synthetic: FL+1 lines of width 1, forcing a leaf seal and
// an internal node.
func TestForcesLeafSeal(t *testing.T) {
	n := wraptree.FL + 1
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("x\n")
	}
	ix := setupTestIndex(t, b.String())

	if ix.Len() != uint64(n) {
		t.Fatalf("Len() = %d, want %d", ix.Len(), n)
	}
	for _, W := range []uint32{1, 10, 80} {
		rows, err := ix.tree.RowsAtWidth(W)
		if err != nil {
			t.Fatalf("RowsAtWidth(%d) failed: %v", W, err)
		}
		if rows != uint64(n) {
			t.Fatalf("RowsAtWidth(%d) = %d, want %d", W, rows, n)
		}
	}
	base, err := ix.tree.RowOf(80, uint64(n-1))
	if err != nil {
		t.Fatalf("RowOf failed: %v", err)
	}
	if base != uint64(n-1) {
		t.Fatalf("RowOf(80, FL) = %d, want %d", base, n-1)
	}
}

// S6 — Append-then-reopen: append lines, close, reopen, verify
// invariants still hold.
func TestAppendThenReopen(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.log")
	if err := os.WriteFile(srcPath, []byte(""), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	cfg := DefaultConfig(srcPath)
	cfg.CacheDir = filepath.Join(dir, "cache")

	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	widths := make([]uint16, 0, 200)
	for i := 0; i < 200; i++ {
		w := (i%97 + 1)
		if err := ix.Append(strings.Repeat("q", w)); err != nil {
			t.Fatalf("Append #%d failed: %v", i, err)
		}
		widths = append(widths, uint16(w))
	}

	if ix.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", ix.Len())
	}
	wantTotal, err := ix.tree.RowsAtWidth(80)
	if err != nil {
		t.Fatalf("RowsAtWidth failed: %v", err)
	}

	if err := ix.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if reopened.Len() != 200 {
		t.Fatalf("Len() after reopen = %d, want 200", reopened.Len())
	}
	gotTotal, err := reopened.tree.RowsAtWidth(80)
	if err != nil {
		t.Fatalf("RowsAtWidth after reopen failed: %v", err)
	}
	if gotTotal != wantTotal {
		t.Fatalf("RowsAtWidth after reopen = %d, want %d", gotTotal, wantTotal)
	}

	for line := uint64(0); line < 200; line++ {
		text, err := reopened.Get(line)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", line, err)
		}
		if uint64(len(text)) != uint64(widths[line]) {
			t.Fatalf("Get(%d) length = %d, want %d", line, len(text), widths[line])
		}
	}

	if err := reopened.Append("tail"); err != nil {
		t.Fatalf("Append after reopen failed: %v", err)
	}
	if reopened.Len() != 201 {
		t.Fatalf("Len() after reopen-append = %d, want 201", reopened.Len())
	}
}

func TestRotationRebuildsOnShrink(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.log")
	if err := os.WriteFile(srcPath, []byte(threeLineSource()), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	cfg := DefaultConfig(srcPath)
	cfg.CacheDir = filepath.Join(dir, "cache")

	ix, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if ix.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ix.Len())
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := os.WriteFile(srcPath, []byte("only one line\n"), 0644); err != nil {
		t.Fatalf("rewrite source: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen after rotation failed: %v", err)
	}
	defer reopened.Close()
	if reopened.Len() != 1 {
		t.Fatalf("Len() after rotation = %d, want 1", reopened.Len())
	}
	text, err := reopened.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed: %v", err)
	}
	if text != "only one line" {
		t.Fatalf("Get(0) = %q, want %q", text, "only one line")
	}
}
