package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSSHTarget(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectedErr    string
		expectedConfig *SSHConfig
	}{
		{
			name:   "Local target",
			target: "local",
		},
		{
			name:   "Empty target",
			target: "",
		},
		{
			name:           "Host only",
			target:         "ssh://node-a",
			expectedConfig: &SSHConfig{Host: "node-a"},
		},
		{
			name:           "User host and port",
			target:         "ssh://root@10.0.0.2:2222",
			expectedConfig: &SSHConfig{Host: "10.0.0.2", User: "root", Port: 2222},
		},
		{
			name:        "Unsupported scheme",
			target:      "http://node-a",
			expectedErr: `unsupported scheme "http"`,
		},
		{
			name:        "Missing host",
			target:      "ssh://",
			expectedErr: "missing host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseSSHTarget(tt.target)

			if tt.expectedErr != "" {
				assert.ErrorContains(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedConfig, config)
		})
	}
}

func TestSSHExecutorArgs(t *testing.T) {
	s := &SSHExecutor{
		sshBin: "ssh",
		config: SSHConfig{
			Host:         "node-a",
			User:         "root",
			Port:         2222,
			IdentityFile: "/tmp/id_ed25519",
			Options:      []string{"StrictHostKeyChecking=no"},
		},
	}

	assert.Equal(t, "root@node-a", s.Name())
	assert.Equal(t, []string{
		"-o", "BatchMode=yes",
		"-p", "2222",
		"-i", "/tmp/id_ed25519",
		"-o", "StrictHostKeyChecking=no",
		"root@node-a", "--", "ls /nix/store",
	}, s.args("ls /nix/store"))
}

func TestNewSSHExecutorRequiresHost(t *testing.T) {
	_, err := NewSSHExecutor(SSHConfig{})
	assert.EqualError(t, err, "ssh host is required")
}

func TestParseTargetLocal(t *testing.T) {
	executor, err := ParseTarget("local")
	assert.NoError(t, err)
	assert.IsType(t, &LocalExecutor{}, executor)
}
