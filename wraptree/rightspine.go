package wraptree

// rightspine.go implements the append algorithm of spec §4.5: seal a
// full node, bubble a new entry up to its parent, grow the root when
// the bubble escapes it, and keep every ancestor's last entry mirroring
// its still-open child on every single append.
//
// Grounded on btree/split.go's insertAndSplit/handleRootSplit shape
// (fill a node, split/seal when full, propagate upward, grow the root
// on overflow) but without btree/split.go's key redistribution: spec's
// nodes are positional, not keyed, so a "split" here is simply "this
// child is full; start a new empty one and register it."

// spineLevel is one level of the currently-open path from the leaf
// being filled up to the root.
type spineLevel struct {
	ref  uint32
	node *Node
}

// rightSpine holds one spineLevel per tree level, index 0 is the leaf.
type rightSpine struct {
	store  *NodeStore
	levels []spineLevel
}

// createLevel reserves a fresh node at lvl and, if a parent level
// already exists, registers it there as a zero-valued placeholder entry
// that will be mirrored live as the new node fills (spec §4.5 step 2).
func (rs *rightSpine) createLevel(lvl int) error {
	var n *Node
	if lvl == 0 {
		n = NewLeaf()
	} else {
		n = NewInternal()
	}

	ref, err := rs.store.Append(n)
	if err != nil {
		return err
	}

	for len(rs.levels) <= lvl {
		rs.levels = append(rs.levels, spineLevel{})
	}
	rs.levels[lvl] = spineLevel{ref: ref, node: n}

	if lvl+1 < len(rs.levels) && rs.levels[lvl+1].node != nil {
		parent := rs.levels[lvl+1].node
		parent.Internal = append(parent.Internal, InternalEntry{ChildRef: ref})
		if err := rs.store.Rewrite(rs.levels[lvl+1].ref, parent); err != nil {
			return err
		}
	}
	return nil
}

// height returns the current tree height (number of levels, leaf to root).
func (rs *rightSpine) height() int { return len(rs.levels) }

// rootRef and rootIsLeaf describe the current root for query descent.
func (rs *rightSpine) rootRef() uint32  { return rs.levels[len(rs.levels)-1].ref }
func (rs *rightSpine) rootIsLeaf() bool { return len(rs.levels) == 1 }

// append pushes width w into the leaf, mirrors it up every open
// ancestor's last entry, and seals/bubbles/grows as needed. It returns
// only an error; whether the leaf sealed during the call is not reported.
func (rs *rightSpine) append(w uint16) error {
	if len(rs.levels) == 0 {
		if err := rs.createLevel(0); err != nil {
			return err
		}
	}

	leaf := rs.levels[0].node
	leaf.Leaf = append(leaf.Leaf, w)
	if err := rs.store.Rewrite(rs.levels[0].ref, leaf); err != nil {
		return err
	}

	for lvl := 1; lvl < len(rs.levels); lvl++ {
		entries := rs.levels[lvl].node.Internal
		if len(entries) == 0 {
			continue
		}
		last := &entries[len(entries)-1]
		last.ChildLines++
		last.ChildHist.Add(w)
		if err := rs.store.Rewrite(rs.levels[lvl].ref, rs.levels[lvl].node); err != nil {
			return err
		}
	}

	if leaf.Full() {
		if err := rs.sealChain(0); err != nil {
			return err
		}
	}
	return nil
}

// sealChain finalizes the node at lvl (its parent's mirrored entry for
// it is already correct, nothing more to write there), grows a new root
// if lvl has no parent, recurses if the parent itself is now full, and
// finally starts a fresh node at lvl for the next child.
func (rs *rightSpine) sealChain(lvl int) error {
	sealed := rs.levels[lvl]

	if lvl+1 >= len(rs.levels) {
		newRoot := NewInternal()
		lines := sealed.node.LineCount()
		hist := sealed.node.Histogram()
		newRoot.Internal = append(newRoot.Internal, InternalEntry{
			ChildRef:   sealed.ref,
			ChildLines: lines,
			ChildHist:  hist,
		})
		ref, err := rs.store.Append(newRoot)
		if err != nil {
			return err
		}
		rs.levels = append(rs.levels, spineLevel{ref: ref, node: newRoot})
	} else {
		parent := rs.levels[lvl+1].node
		if len(parent.Internal) == FI {
			if err := rs.sealChain(lvl + 1); err != nil {
				return err
			}
		}
	}

	return rs.createLevel(lvl)
}
