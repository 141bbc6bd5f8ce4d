package detector

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestClassify(t *testing.T) {
	ctx := context.Background()

	if Classify(ctx, "docker", nil) != nil {
		t.Fatal("nil must stay nil")
	}

	missing := Classify(ctx, "docker", &exec.Error{Name: "docker", Err: exec.ErrNotFound})
	if !errors.Is(missing, ErrCLIUnavailable) {
		t.Fatalf("expected ErrCLIUnavailable, got %v", missing)
	}
	if again := Classify(ctx, "docker", missing); again != missing {
		t.Fatalf("classifying twice changed the error: %v", again)
	}

	var ce *CLIError
	other := Classify(ctx, "docker", errors.New("permission denied"))
	if !errors.As(other, &ce) || ce.Reason != "permission denied" {
		t.Fatalf("expected CLIError, got %v", other)
	}
	if again := Classify(ctx, "docker", other); again != other {
		t.Fatalf("classifying a CLIError twice changed it: %v", again)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := Classify(cancelled, "docker", errors.New("signal: killed")); !errors.As(err, &ce) || ce.Reason != context.Canceled.Error() {
		t.Fatalf("expected cancellation CLIError, got %v", err)
	}
}
