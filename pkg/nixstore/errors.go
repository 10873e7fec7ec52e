package nixstore

import (
	"fmt"
	"strings"
)

// MissingToolError is returned when the search tool is not installed on the
// machine.
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("search tool %s is not available: %s", e.Tool, e.Err)
}

func (e *MissingToolError) Unwrap() error {
	return e.Err
}

// PoisonedError is returned when at least one store object contains the
// poison string.
type PoisonedError struct {
	Poison string
	// Files lists the matching files reported by the search tool.
	Files []string
	Err   error
}

func (e *PoisonedError) Error() string {
	if len(e.Files) == 0 {
		return "store is poisoned"
	}
	return fmt.Sprintf("store is poisoned: %s", strings.Join(e.Files, ", "))
}

func (e *PoisonedError) Unwrap() error {
	return e.Err
}
