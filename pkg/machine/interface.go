package machine

import "context"

// Result is the outcome of a command run on a machine.
type Result struct {
	// ExitCode is the exit status of the command.
	ExitCode int
	// Output is the combined stdout and stderr of the command.
	Output string
}

// Executor runs shell commands on a single machine.
type Executor interface {
	// Name returns a human readable name of the machine.
	Name() string
	// Execute runs command through a shell and returns its result. A non-zero
	// exit code is not an error; an error means the command could not be run.
	Execute(ctx context.Context, command string) (Result, error)
}

// Commander is the succeed/fail surface test helpers depend on.
type Commander interface {
	// Succeed runs command and returns its output, or an error unless it exits 0.
	Succeed(ctx context.Context, command string) (string, error)
	// Fail runs command and returns its output, or an error if it exits 0.
	Fail(ctx context.Context, command string) (string, error)
}
