package machine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storeguard/storeguard/pkg/stringutil"
)

// maxErrorOutput caps the command output quoted in error messages.
const maxErrorOutput = 1024

// CommandError reports a command whose exit status did not match the
// expectation of Succeed or Fail.
type CommandError struct {
	Machine     string
	Command     string
	ExitCode    int
	Output      string
	WantSuccess bool
}

func (e *CommandError) Error() string {
	if e.WantSuccess {
		return fmt.Sprintf("command `%s` on %s failed (exit code %d): %s",
			e.Command, e.Machine, e.ExitCode, e.shortOutput())
	}
	return fmt.Sprintf("command `%s` on %s unexpectedly succeeded: %s",
		e.Command, e.Machine, e.shortOutput())
}

func (e *CommandError) shortOutput() string {
	return stringutil.Truncate(strings.TrimSpace(e.Output), maxErrorOutput)
}

// AsCommandError returns the CommandError wrapped in err, if any.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
