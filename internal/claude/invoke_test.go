package claude

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestRunPropagatesExitCode(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	code, err := ProcessInvoker{}.Run(context.Background(), Invocation{
		Command: "sh",
		Args:    []string{"-c", "exit 2"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunZeroOnSuccess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	code, err := ProcessInvoker{}.Run(context.Background(), Invocation{
		Command: "sh",
		Args:    []string{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := ProcessInvoker{}.Run(context.Background(), Invocation{
		Command: "agentpack-test-binary-that-does-not-exist",
	})
	if err == nil {
		t.Fatalf("expected spawn error")
	}
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %T: %v", err, err)
	}
}

func TestInterruptForwardsTermToChild(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
	}()

	start := time.Now()
	code, err := ProcessInvoker{}.Run(context.Background(), Invocation{
		Command: "sleep",
		Args:    []string{"30"},
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("child did not terminate promptly after SIGINT: %s", elapsed)
	}
	if code != 0 {
		t.Fatalf("signal-terminated child should resolve to 0, got %d", code)
	}
}

func TestContextCancelTerminatesChild(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	code, err := ProcessInvoker{}.Run(ctx, Invocation{
		Command: "sleep",
		Args:    []string{"30"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("child did not terminate promptly after cancel")
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}
