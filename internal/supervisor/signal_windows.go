//go:build windows

package supervisor

import (
	"errors"
	"os"
)

// Windows has no SIGTERM for console-less children, so both steps terminate.
func terminateGroup(p *os.Process) error { return killGroup(p) }

func killGroup(p *os.Process) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
