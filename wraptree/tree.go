// tree.go assembles nodestore.go and rightspine.go into the Tree type:
// spec §4's WrapTree, offering Append plus the three read operations
// RowsAtWidth, Locate, and RowOf.
//
// Concurrency follows SPEC_FULL.md §5's single-writer/multi-reader
// model: one sync.RWMutex guards the in-memory right-spine slice
// itself (which levels exist and their refs), not the node bytes —
// those are mmap pages shared directly with readers, the same "publish
// by atomic store after the write lands" discipline widtharray.Array
// uses for totalLines. There is no cross-process latch-coupling like
// the teacher's btree/latch.go LatchManager: concurrent writers are a
// spec non-goal, so the only thing readers must never observe is a
// torn update to which ref is currently the root.
package wraptree

import (
	"sync"
	"sync/atomic"

	"github.com/intellect4all/logloglog/common"
	"github.com/intellect4all/logloglog/wrapmath"
)

// Tree is the persistent, append-only width-wrapping index described
// by spec §4: WidthArray's box counterpart for row addressing.
type Tree struct {
	store      *NodeStore
	totalLines atomic.Uint64

	mu    sync.RWMutex
	spine rightSpine
}

// OpenTree opens the node store at path. For a brand-new store the
// tree starts empty; for an existing one the caller must call Restore
// with the root ref/height/total lines it tracks in its own metadata
// sidecar (wraptree itself has no notion of metadata, spec §4 keeps
// that layering in the index package).
func OpenTree(path string) (*Tree, error) {
	store, err := OpenNodeStore(path)
	if err != nil {
		return nil, err
	}
	t := &Tree{store: store}
	t.spine.store = store
	return t, nil
}

// Restore reconstructs the in-memory right spine by walking the
// rightmost path from rootRef down to the leaf (spec §4.5's "restore
// right-spine nodes into memory by reading the rightmost path from the
// root"), an O(height) walk since every node on that path was kept
// live on disk via Rewrite.
func (t *Tree) Restore(rootRef uint32, height int, totalLines uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if height <= 0 {
		return nil
	}

	levels := make([]spineLevel, height)
	ref := rootRef
	for lvl := height - 1; lvl >= 0; lvl-- {
		node, err := t.store.Get(ref)
		if err != nil {
			return err
		}
		levels[lvl] = spineLevel{ref: ref, node: node}
		if lvl == 0 {
			break
		}
		if node.IsLeaf() || len(node.Internal) == 0 {
			return common.ErrCorruption
		}
		ref = node.Internal[len(node.Internal)-1].ChildRef
	}

	t.spine.levels = levels
	t.totalLines.Store(totalLines)
	return nil
}

// Append records one more line of display width w.
func (t *Tree) Append(w uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.spine.append(w); err != nil {
		return err
	}
	t.totalLines.Add(1)
	return nil
}

// Len returns the number of lines appended.
func (t *Tree) Len() uint64 { return t.totalLines.Load() }

// RootRef and Height expose the current root for a caller (the index
// package) to persist into its metadata sidecar.
func (t *Tree) RootRef() (ref uint32, height int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.spine.height() == 0 {
		return 0, 0
	}
	return t.spine.rootRef(), t.spine.height()
}

// snapshot returns the current root ref/height without holding the
// lock across the subsequent descent, which only touches the mmap'd
// node store (safe to read concurrently with an in-flight Append per
// spec §5).
func (t *Tree) snapshot() (ref uint32, height int) {
	return t.RootRef()
}

// RowsAtWidth returns the exact total number of display rows the whole
// log occupies at terminal width W (spec §4.2/§4.3).
func (t *Tree) RowsAtWidth(W uint32) (uint64, error) {
	ref, height := t.snapshot()
	if height == 0 {
		return 0, nil
	}
	return t.exactRows(ref, W)
}

// exactRows computes the exact row count of the subtree rooted at ref.
// Histogram-exact entries are summed in O(1) each; entries whose bucket
// scheme can't guarantee exactness at W are resolved by descending
// further, down to individual leaf widths if necessary. This keeps the
// common case (W large relative to the line widths involved, so most
// buckets fall entirely below W) at O(log n) while staying correct —
// never just accepting the bucket-level approximation — in the
// adversarial case spec §4.2 calls out.
func (t *Tree) exactRows(ref uint32, W uint32) (uint64, error) {
	node, err := t.store.Get(ref)
	if err != nil {
		return 0, err
	}
	if node.IsLeaf() {
		var total uint64
		for _, w := range node.Leaf {
			total += wrapmath.Rows(w, W)
		}
		return total, nil
	}
	var total uint64
	for _, e := range node.Internal {
		if e.ChildHist.IsExactForWidth(W) {
			total += e.ChildHist.Rows(W)
			continue
		}
		sub, err := t.exactRows(e.ChildRef, W)
		if err != nil {
			return 0, err
		}
		total += sub
	}
	return total, nil
}

// Locate implements spec §4's Row→Position query: which line contains
// display row targetRow at width W, and the row's offset within that
// line's own wrapped rows.
func (t *Tree) Locate(W uint32, targetRow uint64) (line uint64, residual uint64, err error) {
	ref, height := t.snapshot()
	if height == 0 {
		return 0, 0, common.ErrOutOfRange
	}

	total, err := t.exactRows(ref, W)
	if err != nil {
		return 0, 0, err
	}
	if targetRow >= total {
		return 0, 0, common.ErrOutOfRange
	}

	line, residual, found, err := t.locate(ref, targetRow, W)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return 0, 0, common.ErrCorruption
	}
	return line, residual, nil
}

func (t *Tree) locate(ref uint32, targetRow uint64, W uint32) (line uint64, residual uint64, found bool, err error) {
	node, err := t.store.Get(ref)
	if err != nil {
		return 0, 0, false, err
	}

	if node.IsLeaf() {
		var cum uint64
		for i, w := range node.Leaf {
			r := wrapmath.Rows(w, W)
			if targetRow < cum+r {
				return uint64(i), targetRow - cum, true, nil
			}
			cum += r
		}
		return 0, 0, false, nil
	}

	var cumRows, cumLines uint64
	for _, e := range node.Internal {
		var childRows uint64
		if e.ChildHist.IsExactForWidth(W) {
			childRows = e.ChildHist.Rows(W)
		} else {
			childRows, err = t.exactRows(e.ChildRef, W)
			if err != nil {
				return 0, 0, false, err
			}
		}
		if targetRow < cumRows+childRows {
			subLine, subResidual, subFound, err := t.locate(e.ChildRef, targetRow-cumRows, W)
			if err != nil || !subFound {
				return 0, 0, false, err
			}
			return cumLines + subLine, subResidual, true, nil
		}
		cumRows += childRows
		cumLines += uint64(e.ChildLines)
	}
	return 0, 0, false, nil
}

// RowOf implements spec §4's Position→Row query: the cumulative row
// offset at which line's first display row begins at width W.
func (t *Tree) RowOf(W uint32, line uint64) (uint64, error) {
	ref, height := t.snapshot()
	if height == 0 || line >= t.totalLines.Load() {
		return 0, common.ErrOutOfRange
	}
	return t.rowOf(ref, line, W)
}

func (t *Tree) rowOf(ref uint32, target uint64, W uint32) (uint64, error) {
	node, err := t.store.Get(ref)
	if err != nil {
		return 0, err
	}

	if node.IsLeaf() {
		var cum uint64
		for i := uint64(0); i < target; i++ {
			cum += wrapmath.Rows(node.Leaf[i], W)
		}
		return cum, nil
	}

	var cumRows, cumLines uint64
	for _, e := range node.Internal {
		if target < cumLines+uint64(e.ChildLines) {
			sub, err := t.rowOf(e.ChildRef, target-cumLines, W)
			if err != nil {
				return 0, err
			}
			return cumRows + sub, nil
		}
		if e.ChildHist.IsExactForWidth(W) {
			cumRows += e.ChildHist.Rows(W)
		} else {
			sub, err := t.exactRows(e.ChildRef, W)
			if err != nil {
				return 0, err
			}
			cumRows += sub
		}
		cumLines += uint64(e.ChildLines)
	}
	return 0, common.ErrOutOfRange
}

// Stats reports a point-in-time summary for diagnostics/CLI display.
func (t *Tree) Stats() common.Stats {
	ref, height := t.snapshot()
	var nodeCount uint32
	if t.store != nil {
		nodeCount = t.store.Count()
	}
	_ = ref
	return common.Stats{
		TotalLines: t.totalLines.Load(),
		TreeHeight: height,
		NodeCount:  nodeCount,
	}
}

// Reset discards all nodes and the in-memory right spine, used by
// index.Open/Update on rotation (spec §4.5's "On mismatch, truncate all
// index files to zero and re-append from byte 0 of the source").
func (t *Tree) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Truncate(); err != nil {
		return err
	}
	t.spine = rightSpine{store: t.store}
	t.totalLines.Store(0)
	return nil
}

// Sync flushes the node store to disk.
func (t *Tree) Sync() error { return t.store.Sync() }

// Close releases the node store.
func (t *Tree) Close() error { return t.store.Close() }
