//go:build !unix

package widtharray

import "os"

// adviseGrowth is a no-op off unix: Fadvise/Msync have no portable
// equivalent, and mapping.Flush (called from Sync) already covers durability
// on these platforms.
func adviseGrowth(f *os.File, mapping []byte) error { return nil }
