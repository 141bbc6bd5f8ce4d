package detector

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestCommandDetectorAliveAndDescribe(t *testing.T) {
	requireUnix(t)
	ctx := context.Background()

	// A command that exits 0 -> Alive true
	d := CommandDetector{Command: "true"}
	alive, err := d.Alive(ctx)
	if err != nil || !alive {
		t.Fatalf("true should be alive, got alive=%v err=%v", alive, err)
	}
	if d.Describe() != "cmd:true" {
		t.Fatalf("Describe mismatch: %q", d.Describe())
	}

	// A command that exits non-zero -> Alive false, nil error
	d = CommandDetector{Command: "sh", Args: []string{"-c", "exit 3"}}
	alive, err = d.Alive(ctx)
	if err != nil || alive {
		t.Fatalf("non-zero exit expected false,nil, got alive=%v err=%v", alive, err)
	}
	if d.Describe() != "cmd:sh -c exit 3" {
		t.Fatalf("Describe mismatch: %q", d.Describe())
	}

	// Non-existent binary -> ErrCLIUnavailable
	d = CommandDetector{Command: "__definitely_not_exists__"}
	alive, err = d.Alive(ctx)
	if !errors.Is(err, ErrCLIUnavailable) || alive {
		t.Fatalf("expected ErrCLIUnavailable for missing binary, got alive=%v err=%v", alive, err)
	}
}

func TestCommandDetectorContextTimeout(t *testing.T) {
	requireUnix(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := CommandDetector{Command: "sleep", Args: []string{"5"}}
	alive, err := d.Alive(ctx)
	var ce *CLIError
	if alive || !errors.As(err, &ce) {
		t.Fatalf("expected CLIError on timeout, got alive=%v err=%v", alive, err)
	}
}

type stubRunner struct {
	stdout, stderr string
	err            error
}

func (s stubRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestCommandDetectorRunnerFailure(t *testing.T) {
	d := CommandDetector{Runner: stubRunner{err: errors.New("permission denied")}, Command: "docker"}
	alive, err := d.Alive(context.Background())
	var ce *CLIError
	if alive || !errors.As(err, &ce) || ce.Reason != "permission denied" {
		t.Fatalf("expected CLIError, got alive=%v err=%v", alive, err)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine([]byte("\n  \nCannot connect\nmore")); got != "Cannot connect" {
		t.Fatalf("FirstLine = %q", got)
	}
	if got := FirstLine(nil); got != "" {
		t.Fatalf("FirstLine(nil) = %q", got)
	}
}
