// Package wraptree implements the persistent, incrementally-updatable,
// memory-mapped B-tree of spec §4.4/§4.5: append-only growth, a
// mutable right spine, frozen interior nodes, and width histograms at
// every internal entry.
//
// node.go is the on-disk Node layout (spec §4.4), grounded on
// btree/page.go's fixed-size, header-prefixed record shape. Unlike the
// teacher's Page, there is no cell directory, no variable-length keys,
// and no free-space management: spec's nodes hold either a flat run of
// uint16 widths (leaf) or a flat run of (child_ref, child_lines,
// child_hist) triples (internal), always in strictly append order, so
// the teacher's binary-search-by-key and backward-growing cell storage
// (page.go's searchCell/InsertCell/DeleteCell, varint.go's
// variable-length size encoding) don't apply here and aren't carried
// over — see DESIGN.md for the accounting of every dropped teacher
// file.
package wraptree

import (
	"encoding/binary"
	"fmt"

	"github.com/intellect4all/logloglog/histogram"
)

const (
	// NodeSize is the fixed on-disk record size, spec §4.4/§6's
	// recommended 4 KiB.
	NodeSize = 4096

	// Header layout: kind(1) + pad(1) + count(2) + reserved(4) = 8 bytes.
	headerSize         = 8
	headerOffsetKind   = 0
	headerOffsetCount  = 2
	headerOffsetResrvd = 4

	KindLeaf     byte = 1
	KindInternal byte = 2

	leafEntrySize     = 2 // uint16 width
	internalEntrySize = 4 + 4 + histogram.EncodedSize

	// FL and FI are the leaf and internal fanouts spec §3 calls for.
	// With B=64 buckets (histogram.EncodedSize=768) an internal entry is
	// dominated by its histogram, giving FI a small single-digit value
	// rather than the illustrative "30-60" spec §3 mentions for smaller
	// bucket encodings; see DESIGN.md for why the literal §4.4 field
	// widths (u32 count, u64 sum per bucket) are followed instead of the
	// illustrative fanout figure.
	FL = (NodeSize - headerSize) / leafEntrySize
	FI = (NodeSize - headerSize) / internalEntrySize
)

// InternalEntry is one child reference plus the exact width summary of
// everything beneath it (spec §4.4).
type InternalEntry struct {
	ChildRef   uint32
	ChildLines uint32
	ChildHist  histogram.Histogram
}

// Node is the in-memory decoded form of one on-disk node record.
type Node struct {
	Kind     byte
	Leaf     []uint16        // valid when Kind == KindLeaf
	Internal []InternalEntry // valid when Kind == KindInternal
}

// NewLeaf returns an empty leaf node with capacity FL.
func NewLeaf() *Node {
	return &Node{Kind: KindLeaf, Leaf: make([]uint16, 0, FL)}
}

// NewInternal returns an empty internal node with capacity FI.
func NewInternal() *Node {
	return &Node{Kind: KindInternal, Internal: make([]InternalEntry, 0, FI)}
}

func (n *Node) IsLeaf() bool { return n.Kind == KindLeaf }

// Full reports whether the node has reached its fanout limit.
func (n *Node) Full() bool {
	if n.IsLeaf() {
		return len(n.Leaf) >= FL
	}
	return len(n.Internal) >= FI
}

// LineCount is the number of logical lines summarized by this node:
// for a leaf, the number of widths it holds; for an internal node, the
// sum of its children's line counts (spec §3's "child_line_count equals
// the count of leaf widths under that child" applied one level up).
func (n *Node) LineCount() uint32 {
	if n.IsLeaf() {
		return uint32(len(n.Leaf))
	}
	var total uint32
	for _, e := range n.Internal {
		total += e.ChildLines
	}
	return total
}

// Histogram returns the exact width distribution summarized by this
// node: built fresh from individual widths for a leaf, or merged from
// children's histograms for an internal node (spec §3's "child_histogram
// equals the exact sum of line widths under that child").
func (n *Node) Histogram() histogram.Histogram {
	var h histogram.Histogram
	if n.IsLeaf() {
		for _, w := range n.Leaf {
			h.Add(w)
		}
		return h
	}
	for _, e := range n.Internal {
		h.AddHist(&e.ChildHist)
	}
	return h
}

// Encode serializes the node into a NodeSize-byte buffer.
func (n *Node) Encode() []byte {
	buf := make([]byte, NodeSize)
	buf[headerOffsetKind] = n.Kind

	if n.IsLeaf() {
		binary.LittleEndian.PutUint16(buf[headerOffsetCount:], uint16(len(n.Leaf)))
		for i, w := range n.Leaf {
			off := headerSize + i*leafEntrySize
			binary.LittleEndian.PutUint16(buf[off:], w)
		}
		return buf
	}

	binary.LittleEndian.PutUint16(buf[headerOffsetCount:], uint16(len(n.Internal)))
	for i, e := range n.Internal {
		off := headerSize + i*internalEntrySize
		binary.LittleEndian.PutUint32(buf[off:], e.ChildRef)
		binary.LittleEndian.PutUint32(buf[off+4:], e.ChildLines)
		e.ChildHist.Encode(buf[off+8 : off+8+histogram.EncodedSize])
	}
	return buf
}

// DecodeNode parses a NodeSize-byte buffer written by Encode.
func DecodeNode(buf []byte) (*Node, error) {
	if len(buf) != NodeSize {
		return nil, fmt.Errorf("wraptree: invalid node size %d", len(buf))
	}

	kind := buf[headerOffsetKind]
	count := int(binary.LittleEndian.Uint16(buf[headerOffsetCount:]))

	switch kind {
	case KindLeaf:
		if count > FL {
			return nil, fmt.Errorf("wraptree: leaf count %d exceeds fanout %d", count, FL)
		}
		n := &Node{Kind: KindLeaf, Leaf: make([]uint16, count, FL)}
		for i := 0; i < count; i++ {
			off := headerSize + i*leafEntrySize
			n.Leaf[i] = binary.LittleEndian.Uint16(buf[off:])
		}
		return n, nil
	case KindInternal:
		if count > FI {
			return nil, fmt.Errorf("wraptree: internal count %d exceeds fanout %d", count, FI)
		}
		n := &Node{Kind: KindInternal, Internal: make([]InternalEntry, count, FI)}
		for i := 0; i < count; i++ {
			off := headerSize + i*internalEntrySize
			n.Internal[i].ChildRef = binary.LittleEndian.Uint32(buf[off:])
			n.Internal[i].ChildLines = binary.LittleEndian.Uint32(buf[off+4:])
			n.Internal[i].ChildHist = histogram.Decode(buf[off+8 : off+8+histogram.EncodedSize])
		}
		return n, nil
	default:
		return nil, fmt.Errorf("wraptree: unknown node kind %d", kind)
	}
}
