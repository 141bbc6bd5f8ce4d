//go:build linux

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the child in its own process group so the whole
// tree can be signalled, and asks the kernel to SIGKILL it if we die first.
//
// Pdeathsig tracks the forking OS thread, not the process, so it is only a
// backstop for a daemon that dies without running Shutdown. Shutdown remains
// the teardown path.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
