//go:build !unix

package index

import "os"

// statSource falls back to modification time on platforms without a
// unix-style ctime; device/inode aren't available so fingerprints on
// these platforms key only on path and mtime, which degrades rotation
// detection (a same-mtime rewrite in the same second won't be caught)
// but never breaks compilation.
func statSource(path string) (dev, ino uint64, ctimeNsec int64, err error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, 0, err
	}
	return 0, 0, fi.ModTime().UnixNano(), nil
}
