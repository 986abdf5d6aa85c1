//go:build unix

package widtharray

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseGrowth hints the kernel about a just-extended mapping: FADV_WILLNEED
// tells it the new pages will be accessed soon (the next Append writes into
// them immediately), and an async Msync pushes the zero-filled extension to
// the backing file without blocking the writer on disk I/O.
func adviseGrowth(f *os.File, mapping []byte) error {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED); err != nil {
		return err
	}
	return unix.Msync(mapping, unix.MS_ASYNC)
}
