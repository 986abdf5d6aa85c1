//go:build unix

package offsetarray

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseGrowth mirrors widtharray's extension hint; see its identical
// implementation for the rationale.
func adviseGrowth(f *os.File, mapping []byte) error {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED); err != nil {
		return err
	}
	return unix.Msync(mapping, unix.MS_ASYNC)
}
