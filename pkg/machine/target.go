package machine

import (
	"fmt"
	"net/url"
	"strconv"
)

// LocalTarget selects the current host.
const LocalTarget = "local"

// ParseTarget returns the executor for target, which is either "local" or
// an ssh://[user@]host[:port] URL.
func ParseTarget(target string) (Executor, error) {
	config, err := ParseSSHTarget(target)
	if err != nil {
		return nil, err
	}

	if config == nil {
		local, err := NewLocalExecutor()
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	remote, err := NewSSHExecutor(*config)
	if err != nil {
		return nil, err
	}
	return remote, nil
}

// ParseSSHTarget parses target into an SSHConfig. It returns nil for the
// local target.
func ParseSSHTarget(target string) (*SSHConfig, error) {
	if target == "" || target == LocalTarget {
		return nil, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}

	if u.Scheme != "ssh" {
		return nil, fmt.Errorf("invalid target %q: unsupported scheme %q", target, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid target %q: missing host", target)
	}

	config := &SSHConfig{
		Host: u.Hostname(),
		User: u.User.Username(),
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: bad port: %w", target, err)
		}
		config.Port = port
	}

	return config, nil
}
