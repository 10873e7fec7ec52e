package machine

import (
	"context"
	"strings"
	"sync"
)

// FakeExecutor is an Executor returning scripted results.
type FakeExecutor struct {
	name string

	mu       sync.Mutex
	exact    map[string]Result
	prefixes []fakePrefix
	calls    []string
}

type fakePrefix struct {
	prefix string
	result Result
}

// NewFakeExecutor returns a fake executor named name.
func NewFakeExecutor(name string) *FakeExecutor {
	return &FakeExecutor{
		name:  name,
		exact: map[string]Result{},
	}
}

// On scripts the result for an exact command.
func (f *FakeExecutor) On(command string, result Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.exact[command] = result
	return f
}

// OnPrefix scripts the result for any command starting with prefix.
// Prefixes are matched in the order they were added.
func (f *FakeExecutor) OnPrefix(prefix string, result Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prefixes = append(f.prefixes, fakePrefix{prefix: prefix, result: result})
	return f
}

// Calls returns the commands executed so far.
func (f *FakeExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// Name implements Executor.
func (f *FakeExecutor) Name() string {
	return f.name
}

// Execute implements Executor. Unscripted commands exit with 127.
func (f *FakeExecutor) Execute(ctx context.Context, command string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, command)

	if result, ok := f.exact[command]; ok {
		return result, nil
	}

	for _, p := range f.prefixes {
		if strings.HasPrefix(command, p.prefix) {
			return p.result, nil
		}
	}

	return Result{ExitCode: 127, Output: "sh: " + command + ": command not found\n"}, nil
}
