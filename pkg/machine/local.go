package machine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// LocalExecutor runs commands on the current host through sh.
type LocalExecutor struct {
	shell string
	name  string
}

// NewLocalExecutor returns an executor for the current host.
func NewLocalExecutor() (*LocalExecutor, error) {
	shell, err := exec.LookPath("sh")
	if err != nil {
		return nil, fmt.Errorf("seems like sh is not available on this host: %w", err)
	}

	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "localhost"
	}

	return &LocalExecutor{
		shell: shell,
		name:  name,
	}, nil
}

// Name implements Executor.
func (l *LocalExecutor) Name() string {
	return l.name
}

// Execute implements Executor.
func (l *LocalExecutor) Execute(ctx context.Context, command string) (Result, error) {
	return runProcess(ctx, l.shell, "-c", command)
}

// runProcess runs bin with args and maps a non-zero exit into Result.
func runProcess(ctx context.Context, bin string, args ...string) (Result, error) {
	output, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("failed to run %s: %w", bin, ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: string(output)}, nil
		}
		return Result{}, fmt.Errorf("failed to run %s: %w", bin, err)
	}

	return Result{ExitCode: 0, Output: string(output)}, nil
}
