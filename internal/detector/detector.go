package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Detector is a strategy that determines if an external service is active.
// Implementations must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the service is detected as running. A nil error with
	// false means the check ran and found nothing active.
	Alive(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

// ErrCLIUnavailable means the status-query binary itself could not be invoked.
var ErrCLIUnavailable = errors.New("cli unavailable")

// CLIError is a status query that ran (or tried to) but failed for a reason
// other than a missing binary or a plain non-zero exit.
type CLIError struct {
	Command string
	Reason  string
}

func (e *CLIError) Error() string { return e.Command + ": " + e.Reason }

// Runner executes a command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	// #nosec G204
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Classify maps a Runner error onto the CLI taxonomy. Exit errors and errors
// already classified are returned unchanged, so callers can decide whether a
// non-zero status means "inactive".
func Classify(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	var ce *CLIError
	switch {
	case errors.Is(err, ErrCLIUnavailable), errors.As(err, &ce):
		return err
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s not found", ErrCLIUnavailable, name)
	case ctx.Err() != nil:
		return &CLIError{Command: name, Reason: ctx.Err().Error()}
	case errors.As(err, &ee):
		return err
	default:
		return &CLIError{Command: name, Reason: err.Error()}
	}
}

// IsExit reports whether err is a non-zero exit of a command that did run.
func IsExit(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}

// FirstLine returns the first non-empty trimmed line of b, for diagnostics.
func FirstLine(b []byte) string {
	for _, line := range strings.Split(string(b), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
