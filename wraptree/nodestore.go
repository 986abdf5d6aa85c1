package wraptree

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/intellect4all/logloglog/common"
)

// nodeGrowthChunk is the number of node slots the backing file grows by
// at a time, amortizing the cost of Truncate+remap the same way
// widtharray.growthChunk does for width records.
const nodeGrowthChunk = 64 * NodeSize

// NodeStore is the mmap-backed, fixed-record file holding every node
// ever written (nodes.dat). It has two write paths where spec §4.4
// draws the line between frozen and mutable: Append allocates a new
// slot for a node that doesn't exist on disk yet; Rewrite overwrites an
// existing slot in place, used only for the current right-spine nodes
// while they're still being filled.
//
// Grounded on widtharray.Array's growth/mapping discipline; as in
// widtharray there is no separate in-memory accumulation buffer:
// every node write, sealed or in-progress, goes straight into the
// mapping.
type NodeStore struct {
	file *os.File
	path string

	mu       sync.Mutex
	mapping  mmap.MMap
	capacity uint32 // slots currently mapped

	count atomic.Uint32 // slots allocated; Close trims the file to count*NodeSize
}

// OpenNodeStore opens or creates the node store at path.
func OpenNodeStore(path string) (*NodeStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("wraptree: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &NodeStore{file: f, path: path}

	size := info.Size()
	if size > 0 {
		if size%NodeSize != 0 {
			f.Close()
			return nil, fmt.Errorf("%w: %s size %d not a multiple of node size", common.ErrCorruption, path, size)
		}
		s.count.Store(uint32(size / NodeSize))

		mapBytes := size
		if rem := mapBytes % nodeGrowthChunk; rem != 0 {
			mapBytes += nodeGrowthChunk - rem
			if err := f.Truncate(mapBytes); err != nil {
				f.Close()
				return nil, err
			}
		}
		m, err := mmap.Map(f, mmap.RDWR, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("wraptree: map %s: %w", path, err)
		}
		s.mapping = m
		s.capacity = uint32(len(m) / NodeSize)
	}

	return s, nil
}

// Count returns the number of slots ever allocated.
func (s *NodeStore) Count() uint32 { return s.count.Load() }

// Get decodes the node at ref.
func (s *NodeStore) Get(ref uint32) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref >= s.count.Load() {
		return nil, fmt.Errorf("wraptree: node ref %d out of range (count %d)", ref, s.count.Load())
	}
	off := int64(ref) * NodeSize
	return DecodeNode(s.mapping[off : off+NodeSize])
}

// Append allocates a brand new slot, writes n into it, and returns its
// ref. Used once per node for the first time its bytes are committed:
// an empty node when a right-spine level is started, or the new root
// (holding one entry for the old root) when the tree grows taller.
func (s *NodeStore) Append(n *Node) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := s.count.Load()
	if ref >= s.capacity {
		if err := s.grow(); err != nil {
			return 0, err
		}
	}

	off := int64(ref) * NodeSize
	copy(s.mapping[off:off+NodeSize], n.Encode())
	s.count.Store(ref + 1)
	return ref, nil
}

// Rewrite overwrites the slot at ref in place with a page-aligned
// write, the only way spec §4.4 lets an already-allocated node change:
// right-spine nodes while their last entry is still being filled.
func (s *NodeStore) Rewrite(ref uint32, n *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref >= s.count.Load() {
		return fmt.Errorf("wraptree: rewrite ref %d out of range (count %d)", ref, s.count.Load())
	}
	off := int64(ref) * NodeSize
	copy(s.mapping[off:off+NodeSize], n.Encode())
	return nil
}

func (s *NodeStore) grow() error {
	newSize := int64(s.capacity)*NodeSize + nodeGrowthChunk
	if err := s.file.Truncate(newSize); err != nil {
		return fmt.Errorf("wraptree: extend %s: %w", s.path, err)
	}
	if s.mapping != nil {
		if err := s.mapping.Unmap(); err != nil {
			return fmt.Errorf("wraptree: unmap %s: %w", s.path, err)
		}
	}
	m, err := mmap.Map(s.file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("wraptree: remap %s: %w", s.path, err)
	}
	s.mapping = m
	s.capacity = uint32(len(m) / NodeSize)

	if err := adviseGrowth(s.file, s.mapping); err != nil {
		return fmt.Errorf("wraptree: advise %s: %w", s.path, err)
	}
	return nil
}

// Sync flushes the mapping and file to disk.
func (s *NodeStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping != nil {
		if err := s.mapping.Flush(); err != nil {
			return err
		}
	}
	return s.file.Sync()
}

// Close unmaps the file, trims it to the allocated slots, and closes it.
func (s *NodeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping != nil {
		if err := s.mapping.Unmap(); err != nil {
			return err
		}
		s.mapping = nil
	}
	if err := s.file.Truncate(int64(s.count.Load()) * NodeSize); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Truncate resets the store to empty, used on rebuild.
func (s *NodeStore) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapping != nil {
		if err := s.mapping.Unmap(); err != nil {
			return err
		}
		s.mapping = nil
	}
	if err := s.file.Truncate(0); err != nil {
		return err
	}
	s.capacity = 0
	s.count.Store(0)
	return nil
}
