package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Invocation is one fully assembled child run: the agent binary, the
// merged flag tokens, and the prompt appended as the final positional
// when non-empty.
type Invocation struct {
	Command string
	Args    []string
	Prompt  string
	Dir     string
	Env     []string
}

func (inv Invocation) FullArgs() []string {
	out := make([]string, 0, len(inv.Args)+1)
	out = append(out, inv.Args...)
	if inv.Prompt != "" {
		out = append(out, inv.Prompt)
	}
	return out
}

type Invoker interface {
	Run(ctx context.Context, inv Invocation) (int, error)
}

// SpawnError marks the child never started, as opposed to starting and
// exiting non-zero.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn agent process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ProcessInvoker spawns the agent binary with inherited stdio. SIGINT
// and SIGTERM on the parent are forwarded to the child as SIGTERM, and
// the parent waits for the child to exit before returning. A failed
// forward (child already gone) is swallowed. The returned code is the
// child's exit code, or 0 when the child was terminated by a signal and
// left no code.
type ProcessInvoker struct{}

func (ProcessInvoker) Run(ctx context.Context, inv Invocation) (int, error) {
	cmd := exec.Command(inv.Command, inv.FullArgs()...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Err: err}
	}

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	for {
		select {
		case <-signals:
			_ = cmd.Process.Signal(syscall.SIGTERM)
		case <-ctx.Done():
			_ = cmd.Process.Signal(syscall.SIGTERM)
			return exitCodeFromWait(<-waitCh), nil
		case waitErr := <-waitCh:
			return exitCodeFromWait(waitErr), nil
		}
	}
}

func exitCodeFromWait(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return 0
}
