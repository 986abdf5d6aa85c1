package index

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/intellect4all/logloglog/common"
	"github.com/intellect4all/logloglog/histogram"
	"github.com/intellect4all/logloglog/wraptree"
)

// metadata.go is the sidecar record of spec.md §6: a single small file
// that makes the whole cache directory either trustworthy or not, in
// one atomic write. Modeled on btree/pager.go's Metadata/writeMetadata/
// readMetadata (fixed offsets, magic check on load) and btree/wal.go's
// header-plus-CRC32 discipline, but little-endian throughout per
// spec.md §6's "all little-endian" file format rule rather than the
// teacher's big-endian pager convention.

const (
	metadataMagic = "LLL1"
	metadataSize  = 76 // 72 bytes of fields + 4 byte CRC32

	offMagic          = 0
	offNodeSize       = 4
	offLeafFanout     = 8
	offInternalFanout = 12
	offBucketCount    = 16
	offExactBuckets   = 20
	offSourceDevice   = 24
	offSourceInode    = 32
	offSourceCtime    = 40
	offIndexedByteLen = 48
	offTotalLines     = 56
	offRootRef        = 64
	offHeight         = 68
	offCRC32          = 72
)

// Metadata is the decoded sidecar record.
type Metadata struct {
	NodeSize        uint32
	LeafFanout      uint32
	InternalFanout  uint32
	BucketCount     uint32
	ExactBuckets    uint32
	SourceDevice    uint64
	SourceInode     uint64
	SourceCtimeNsec int64
	IndexedByteLen  uint64
	TotalLines      uint64
	RootRef         uint32
	Height          uint32
}

// freshMetadata stamps a new Metadata for a from-scratch cache, tying
// it to the current node/histogram layout constants and the source
// file's current identity.
func freshMetadata(dev, ino uint64, ctimeNsec int64) Metadata {
	return Metadata{
		NodeSize:        wraptree.NodeSize,
		LeafFanout:      wraptree.FL,
		InternalFanout:  wraptree.FI,
		BucketCount:     histogram.B,
		ExactBuckets:    histogram.S,
		SourceDevice:    dev,
		SourceInode:     ino,
		SourceCtimeNsec: ctimeNsec,
	}
}

// Matches reports whether this metadata was built against the source
// identified by (dev, ino, ctimeNsec) — spec.md §4.6's fingerprint
// validation gate on open.
func (m *Metadata) Matches(dev, ino uint64, ctimeNsec int64) bool {
	return m.SourceDevice == dev && m.SourceInode == ino && m.SourceCtimeNsec == ctimeNsec
}

func (m *Metadata) encode() []byte {
	buf := make([]byte, metadataSize)
	copy(buf[offMagic:], metadataMagic)
	binary.LittleEndian.PutUint32(buf[offNodeSize:], m.NodeSize)
	binary.LittleEndian.PutUint32(buf[offLeafFanout:], m.LeafFanout)
	binary.LittleEndian.PutUint32(buf[offInternalFanout:], m.InternalFanout)
	binary.LittleEndian.PutUint32(buf[offBucketCount:], m.BucketCount)
	binary.LittleEndian.PutUint32(buf[offExactBuckets:], m.ExactBuckets)
	binary.LittleEndian.PutUint64(buf[offSourceDevice:], m.SourceDevice)
	binary.LittleEndian.PutUint64(buf[offSourceInode:], m.SourceInode)
	binary.LittleEndian.PutUint64(buf[offSourceCtime:], uint64(m.SourceCtimeNsec))
	binary.LittleEndian.PutUint64(buf[offIndexedByteLen:], m.IndexedByteLen)
	binary.LittleEndian.PutUint64(buf[offTotalLines:], m.TotalLines)
	binary.LittleEndian.PutUint32(buf[offRootRef:], m.RootRef)
	binary.LittleEndian.PutUint32(buf[offHeight:], m.Height)
	sum := crc32.ChecksumIEEE(buf[:offCRC32])
	binary.LittleEndian.PutUint32(buf[offCRC32:], sum)
	return buf
}

func decodeMetadata(buf []byte) (Metadata, error) {
	var m Metadata
	if len(buf) != metadataSize {
		return m, fmt.Errorf("%w: metadata size %d, want %d", common.ErrCorruption, len(buf), metadataSize)
	}
	if string(buf[offMagic:offMagic+4]) != metadataMagic {
		return m, fmt.Errorf("%w: bad metadata magic", common.ErrCorruption)
	}
	wantSum := crc32.ChecksumIEEE(buf[:offCRC32])
	gotSum := binary.LittleEndian.Uint32(buf[offCRC32:])
	if wantSum != gotSum {
		return m, fmt.Errorf("%w: metadata checksum mismatch", common.ErrCorruption)
	}

	m.NodeSize = binary.LittleEndian.Uint32(buf[offNodeSize:])
	m.LeafFanout = binary.LittleEndian.Uint32(buf[offLeafFanout:])
	m.InternalFanout = binary.LittleEndian.Uint32(buf[offInternalFanout:])
	m.BucketCount = binary.LittleEndian.Uint32(buf[offBucketCount:])
	m.ExactBuckets = binary.LittleEndian.Uint32(buf[offExactBuckets:])
	m.SourceDevice = binary.LittleEndian.Uint64(buf[offSourceDevice:])
	m.SourceInode = binary.LittleEndian.Uint64(buf[offSourceInode:])
	m.SourceCtimeNsec = int64(binary.LittleEndian.Uint64(buf[offSourceCtime:]))
	m.IndexedByteLen = binary.LittleEndian.Uint64(buf[offIndexedByteLen:])
	m.TotalLines = binary.LittleEndian.Uint64(buf[offTotalLines:])
	m.RootRef = binary.LittleEndian.Uint32(buf[offRootRef:])
	m.Height = binary.LittleEndian.Uint32(buf[offHeight:])
	return m, nil
}

// loadMetadata reads and validates the sidecar at path. A missing file
// is reported via os.IsNotExist on the returned error, same as the
// teacher's NewPager distinguishing "doesn't exist" from other errors.
func loadMetadata(path string) (Metadata, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	return decodeMetadata(buf)
}

// save writes the sidecar as a single file write, matching spec.md
// §6's "binary for atomic single-write update."
func (m *Metadata) save(path string) error {
	return os.WriteFile(path, m.encode(), 0644)
}
