//go:build !unix

package project

import "path/filepath"

// IsMountPoint only recognises volume roots on platforms without stat
// device ids.
func IsMountPoint(dir string) bool {
	dir = filepath.Clean(dir)
	return filepath.Dir(dir) == dir
}
