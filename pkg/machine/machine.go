// Package machine runs shell commands on test machines and checks their
// exit status.
package machine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Machine wraps an Executor with succeed/fail assertions.
type Machine struct {
	executor Executor
	logger   *logrus.Logger
}

// NewMachine returns a Machine running commands through executor.
func NewMachine(logger *logrus.Logger, executor Executor) *Machine {
	return &Machine{
		executor: executor,
		logger:   logger,
	}
}

// Name returns the name of the underlying executor.
func (m *Machine) Name() string {
	return m.executor.Name()
}

// Execute runs command and returns the raw result.
func (m *Machine) Execute(ctx context.Context, command string) (Result, error) {
	m.logger.WithField("machine", m.Name()).Debugf("running command: %s", command)

	result, err := m.executor.Execute(ctx, command)
	if err != nil {
		return Result{}, fmt.Errorf("machine %s: %w", m.Name(), err)
	}

	m.logger.WithFields(logrus.Fields{
		"machine":   m.Name(),
		"exit_code": result.ExitCode,
	}).Debug(result.Output)
	return result, nil
}

// Succeed implements Commander.
func (m *Machine) Succeed(ctx context.Context, command string) (string, error) {
	result, err := m.Execute(ctx, command)
	if err != nil {
		return "", err
	}

	if result.ExitCode != 0 {
		return result.Output, &CommandError{
			Machine:     m.Name(),
			Command:     command,
			ExitCode:    result.ExitCode,
			Output:      result.Output,
			WantSuccess: true,
		}
	}
	return result.Output, nil
}

// Fail implements Commander.
func (m *Machine) Fail(ctx context.Context, command string) (string, error) {
	result, err := m.Execute(ctx, command)
	if err != nil {
		return "", err
	}

	if result.ExitCode == 0 {
		return result.Output, &CommandError{
			Machine:  m.Name(),
			Command:  command,
			Output:   result.Output,
			ExitCode: result.ExitCode,
		}
	}
	return result.Output, nil
}
