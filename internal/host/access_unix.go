//go:build unix

package host

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckExecutable reports whether path can be executed by this process.
func CheckExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotExecutable, path, err)
	}
	return nil
}
