//go:build unix

package wraptree

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseGrowth mirrors widtharray's extension hint: FADV_WILLNEED for the
// freshly grown node slots (the right spine writes into them immediately),
// plus an async Msync so the extension reaches disk without stalling the
// writer.
func adviseGrowth(f *os.File, mapping []byte) error {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED); err != nil {
		return err
	}
	return unix.Msync(mapping, unix.MS_ASYNC)
}
