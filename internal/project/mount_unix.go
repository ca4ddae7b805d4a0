//go:build unix

package project

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsMountPoint reports whether dir is the root of a mounted filesystem:
// either its device differs from its parent's, or it is its own parent.
func IsMountPoint(dir string) bool {
	var self, parent unix.Stat_t
	if err := unix.Lstat(dir, &self); err != nil {
		return false
	}
	if self.Mode&unix.S_IFMT == unix.S_IFLNK {
		return false
	}
	if err := unix.Stat(filepath.Join(dir, ".."), &parent); err != nil {
		return false
	}
	if self.Dev != parent.Dev {
		return true
	}
	return self.Ino == parent.Ino
}
