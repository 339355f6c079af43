//go:build unix

package host

import (
	"os/exec"
	"syscall"
)

// detach puts cmd in its own session so it outlives keystrike and never
// receives the terminal's signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
