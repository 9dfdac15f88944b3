package difftool

import (
	"errors"
	"fmt"
)

// ErrToolTimeout is wrapped by a ToolError when a subprocess outlives its deadline.
var ErrToolTimeout = errors.New("text tool timed out")

// ErrBinaryInput is wrapped by a ToolError when diff summarizes its inputs instead of diffing them.
var ErrBinaryInput = errors.New("inputs treated as binary")

// ToolError reports that an external tool could not run or exited abnormally.
// It is never a merge conflict or a rejected hunk.
type ToolError struct {
	Tool     string // diff, patch or diff3
	ExitCode int    // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed (exit %d)", e.Tool, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// RejectedError reports that patch Index of a sequence left hunks it could not apply.
// Rejects holds the reject artifact written by patch.
type RejectedError struct {
	Index   int
	Rejects string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("patch %d rejected hunks", e.Index)
}

func toolError(tool string, exitCode int, stderr string, err error) *ToolError {
	return &ToolError{Tool: tool, ExitCode: exitCode, Stderr: stderr, Err: err}
}
