package supervisor

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a live handle exists.
	ErrAlreadyRunning = errors.New("already running")
	// ErrNotRunning is returned by Stop when no handle exists.
	ErrNotRunning = errors.New("not running")
)

// SpawnError reports that the OS refused to create the child process.
type SpawnError struct {
	Reason string
	Err    error
}

func (e *SpawnError) Error() string { return "failed to start: " + e.Reason }

func (e *SpawnError) Unwrap() error { return e.Err }

// KillError reports that the child could not be signalled or survived SIGKILL.
// The handle is kept so Stop can be retried.
type KillError struct {
	Reason string
	Err    error
}

func (e *KillError) Error() string { return "failed to stop: " + e.Reason }

func (e *KillError) Unwrap() error { return e.Err }
