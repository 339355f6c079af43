//go:build !unix

package host

import "os/exec"

func detach(cmd *exec.Cmd) {}
