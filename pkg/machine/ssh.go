package machine

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// SSHConfig describes how to reach a remote machine over ssh.
type SSHConfig struct {
	Host         string
	User         string
	Port         int
	IdentityFile string
	// Options are passed to ssh as -o values.
	Options []string
}

// SSHExecutor runs commands on a remote machine through the ssh binary.
type SSHExecutor struct {
	sshBin string
	config SSHConfig
}

// NewSSHExecutor returns an executor for the machine described by config.
func NewSSHExecutor(config SSHConfig) (*SSHExecutor, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("ssh host is required")
	}

	sshBin, err := exec.LookPath("ssh")
	if err != nil {
		return nil, fmt.Errorf("seems like ssh is not installed, please install openssh first")
	}

	return &SSHExecutor{
		sshBin: sshBin,
		config: config,
	}, nil
}

// Name implements Executor.
func (s *SSHExecutor) Name() string {
	return s.destination()
}

// Execute implements Executor. The remote shell evaluates command, so it is
// passed as a single argument after "--".
func (s *SSHExecutor) Execute(ctx context.Context, command string) (Result, error) {
	return runProcess(ctx, s.sshBin, s.args(command)...)
}

func (s *SSHExecutor) destination() string {
	if s.config.User != "" {
		return s.config.User + "@" + s.config.Host
	}
	return s.config.Host
}

func (s *SSHExecutor) args(command string) []string {
	args := []string{"-o", "BatchMode=yes"}

	if s.config.Port != 0 {
		args = append(args, "-p", strconv.Itoa(s.config.Port))
	}

	if s.config.IdentityFile != "" {
		args = append(args, "-i", s.config.IdentityFile)
	}

	for _, opt := range s.config.Options {
		args = append(args, "-o", opt)
	}

	return append(args, s.destination(), "--", command)
}
