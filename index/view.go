package index

import (
	"iter"

	"github.com/intellect4all/logloglog/common"
	"github.com/intellect4all/logloglog/wrapmath"
)

// View is spec.md §4.6's row-addressable window: a lazy, finite,
// restartable sequence of display rows at a fixed terminal width.
type View struct {
	ix     *Index
	width  uint32
	start  uint64
	length uint64
}

// Len returns rows_at_width(W) - start, clamped to the view's [start, end).
func (v *View) Len() uint64 { return v.length }

// Get returns display row r of the view (0-indexed relative to start).
func (v *View) Get(r uint64) (string, error) {
	if r >= v.length {
		return "", common.ErrOutOfRange
	}
	line, residual, err := v.ix.tree.Locate(v.width, v.start+r)
	if err != nil {
		return "", err
	}
	text, err := v.ix.Get(line)
	if err != nil {
		return "", err
	}
	return wrapmath.Slice(text, v.width, residual)
}

// Iter yields every row in the view in order, stopping early if the
// consumer's yield returns false.
func (v *View) Iter() iter.Seq[string] {
	return func(yield func(string) bool) {
		for r := uint64(0); r < v.length; r++ {
			row, err := v.Get(r)
			if err != nil {
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}
