package detector

import (
	"context"
	"strings"
)

// CommandDetector runs a command that should succeed if the service is running.
type CommandDetector struct {
	Runner  Runner
	Command string
	Args    []string
}

func (d CommandDetector) Alive(ctx context.Context) (bool, error) {
	r := d.Runner
	if r == nil {
		r = ExecRunner{}
	}
	_, _, err := r.Run(ctx, d.Command, d.Args...)
	err = Classify(ctx, d.Command, err)
	if err == nil {
		return true, nil
	}
	if IsExit(err) {
		// non-zero exit code means not alive
		return false, nil
	}
	return false, err
}

func (d CommandDetector) Describe() string {
	return "cmd:" + strings.TrimSpace(d.Command+" "+strings.Join(d.Args, " "))
}
