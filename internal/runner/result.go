package runner

import (
	"strings"
)

// Result holds the output of a command execution.
type Result struct {
	RunID     string   // unique identifier for this run
	Argv      []string // command as executed
	ExitCode  int      // process exit code
	Stdout    []byte   // captured stdout (may be truncated)
	Stderr    []byte   // captured stderr (may be truncated)
	Truncated bool     // true if output exceeded the size cap
}

// OK reports whether the command exited zero.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Command renders argv as a single shell-like line for diagnostics.
func (r *Result) Command() string {
	return strings.Join(r.Argv, " ")
}
