package index

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// fingerprint returns the first 8 hex digits of sha256(device, inode,
// ctime), spec.md §6's cache-directory key.
func fingerprint(dev, ino uint64, ctimeNsec int64) string {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], dev)
	binary.LittleEndian.PutUint64(buf[8:], ino)
	binary.LittleEndian.PutUint64(buf[16:], uint64(ctimeNsec))
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:4])
}
