//go:build !windows

package supervisor

import (
	"errors"
	"os"
	"syscall"
)

// terminateGroup sends SIGTERM to the child's process group.
func terminateGroup(p *os.Process) error { return signalGroup(p, syscall.SIGTERM) }

// killGroup sends SIGKILL to the child's process group.
func killGroup(p *os.Process) error { return signalGroup(p, syscall.SIGKILL) }

func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		// group already gone; the waiter will observe the exit
		return nil
	}
	return err
}
