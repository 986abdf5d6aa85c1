//go:build !unix

package offsetarray

import "os"

// adviseGrowth is a no-op off unix; see widtharray's identical stub.
func adviseGrowth(f *os.File, mapping []byte) error { return nil }
