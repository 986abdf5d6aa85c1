// Package widtharray implements the fixed-record, append-only,
// memory-mapped width store described in spec §4.1: a sequence of
// uint16 display widths indexed by logical line number.
//
// The shape is the teacher's btree/pager.go direct-page-index file
// access, minus the page cache and LRU (there is nothing to cache: the
// whole file is mapped) and with mmap.Map/Unmap standing in for
// ReadAt/WriteAt, since spec §4.1 requires the store to be
// memory-mapped rather than read through syscalls per access.
package widtharray

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	recordSize = 2 // uint16

	// growthChunk is the page-aligned amount the backing file grows by
	// when appends exhaust the current mapping. 4096 matches the
	// teacher's PageSize constant (btree/page.go) and a typical OS page.
	growthChunk = 4096
)

// Array is an append-only, memory-mapped sequence of uint16 widths.
type Array struct {
	file *os.File
	path string

	mu       sync.Mutex // serializes Append, growth, and Get's read of the mapping; Len doesn't take it
	mapping  mmap.MMap  // current mapping, len(mapping) is a multiple of growthChunk
	capacity uint64     // len(mapping) / recordSize

	length atomic.Uint64 // published record count; Get(i) is valid for i < length
}

// Open opens or creates the width array at path. An empty/new file
// starts with length 0 and no mapping until the first Append.
func Open(path string) (*Array, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("widtharray: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	a := &Array{file: f, path: path}

	size := info.Size()
	if size > 0 {
		// Existing file: round length down to a whole record, per the
		// "on-disk length implicit from file size rounded down" rule in
		// spec §4.1.
		recs := uint64(size) / recordSize
		a.length.Store(recs)

		mapBytes := size
		if rem := mapBytes % growthChunk; rem != 0 {
			mapBytes += growthChunk - rem
			if err := f.Truncate(mapBytes); err != nil {
				f.Close()
				return nil, err
			}
		}
		m, err := mmap.Map(f, mmap.RDWR, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("widtharray: map %s: %w", path, err)
		}
		a.mapping = m
		a.capacity = uint64(len(m)) / recordSize
	}

	return a, nil
}

// Len returns the number of published records. Safe to call
// concurrently with Append (acquire semantics: any index < Len() is
// guaranteed fully readable, per spec §5).
func (a *Array) Len() uint64 {
	return a.length.Load()
}

// Get returns the width at logical line i.
func (a *Array) Get(i uint64) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i >= a.length.Load() {
		return 0, fmt.Errorf("widtharray: index %d out of range (len %d)", i, a.length.Load())
	}
	off := i * recordSize
	return binary.LittleEndian.Uint16(a.mapping[off : off+recordSize]), nil
}

// Append writes w at the current end and publishes the new length.
// O(1) amortized: the backing file and mapping only grow once every
// growthChunk/recordSize appends.
func (a *Array) Append(w uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.length.Load()
	if n >= a.capacity {
		if err := a.grow(); err != nil {
			return err
		}
	}

	off := n * recordSize
	binary.LittleEndian.PutUint16(a.mapping[off:off+recordSize], w)

	// Publish: on-disk/mapped bytes are written above; the length store
	// is the single atomic operation that makes line n visible to
	// readers (spec §5 ordering).
	a.length.Store(n + 1)
	return nil
}

// grow extends the backing file and remaps it. Callers must hold mu.
func (a *Array) grow() error {
	newSize := int64(a.capacity)*recordSize + growthChunk
	if err := a.file.Truncate(newSize); err != nil {
		return fmt.Errorf("widtharray: extend %s: %w", a.path, err)
	}

	if a.mapping != nil {
		if err := a.mapping.Unmap(); err != nil {
			return fmt.Errorf("widtharray: unmap %s: %w", a.path, err)
		}
	}

	m, err := mmap.Map(a.file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("widtharray: remap %s: %w", a.path, err)
	}
	a.mapping = m
	a.capacity = uint64(len(m)) / recordSize

	if err := adviseGrowth(a.file, a.mapping); err != nil {
		return fmt.Errorf("widtharray: advise %s: %w", a.path, err)
	}
	return nil
}

// Sync flushes the mapping and file to disk.
func (a *Array) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mapping != nil {
		if err := a.mapping.Flush(); err != nil {
			return err
		}
	}
	return a.file.Sync()
}

// Close unmaps the file, trims it to the published records, and closes it.
func (a *Array) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mapping != nil {
		if err := a.mapping.Unmap(); err != nil {
			return err
		}
		a.mapping = nil
	}
	if err := a.file.Truncate(int64(a.length.Load()) * recordSize); err != nil {
		a.file.Close()
		return err
	}
	return a.file.Close()
}

// Truncate resets the array to zero length and zero size, used by
// index.Open on rotation/corruption rebuild (spec §4.5 "Rebuild vs
// incremental").
func (a *Array) Truncate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mapping != nil {
		if err := a.mapping.Unmap(); err != nil {
			return err
		}
		a.mapping = nil
	}
	if err := a.file.Truncate(0); err != nil {
		return err
	}
	a.capacity = 0
	a.length.Store(0)
	return nil
}
