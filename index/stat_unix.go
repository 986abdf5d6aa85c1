//go:build unix

package index

import "golang.org/x/sys/unix"

// statSource reads the (device, inode, ctime) identity triple spec.md
// §4.6/§6 fingerprints the cache directory by. golang.org/x/sys/unix is
// part of the retrieval pack's dependency surface (see
// other_examples/manifests/distr1-distri and several storage-engine
// manifests) and is the standard way Go code reaches raw stat fields
// the os package doesn't expose portably.
func statSource(path string) (dev, ino uint64, ctimeNsec int64, err error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, 0, err
	}
	return uint64(st.Dev), uint64(st.Ino), st.Ctim.Nano(), nil
}
