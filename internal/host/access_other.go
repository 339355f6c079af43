//go:build !unix

package host

import (
	"fmt"
	"os"
)

// CheckExecutable reports whether path names a regular file. Permission
// bits are not meaningful on this platform.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotExecutable, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s: not a regular file", ErrNotExecutable, path)
	}
	return nil
}
