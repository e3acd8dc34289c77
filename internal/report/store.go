// Package report records the outcome of setup runs so they can be
// inspected after the fact.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Setup is a full setup run (dependency check plus all steps).
	Setup Kind = "setup"
	// Check is a dependency check run.
	Check Kind = "check"
	// Env is a configuration bootstrap run.
	Env Kind = "env"
)

// Step statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusSkipped = "skipped"
)

// ErrNoRuns is returned by Latest when nothing has been recorded yet.
var ErrNoRuns = errors.New("no runs recorded")

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
	Latest() (*RunResult, error)
}

// RunResult holds the structured outcome of a run.
type RunResult struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Workspace  string    `json:"workspace"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`

	// Fatal is set when a precondition aborted the run before the steps.
	Fatal string `json:"fatal,omitempty"`

	Dependencies []Dependency `json:"dependencies,omitempty"`
	Steps        []Step       `json:"steps,omitempty"`
}

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}

// FailedSteps returns the names of steps that did not pass.
func (r *RunResult) FailedSteps() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Status == StatusFail {
			out = append(out, s.Name)
		}
	}
	return out
}

// Dependency records one prerequisite probe.
type Dependency struct {
	Name     string `json:"name"`
	Required string `json:"required,omitempty"` // minimum version, if any
	Version  string `json:"version,omitempty"`  // as reported by the tool
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
}

// Step records one setup step.
type Step struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Detail   string    `json:"detail,omitempty"`
	Commands []Command `json:"commands,omitempty"`
}

// Command records one external invocation made by a step.
type Command struct {
	RunID    string   `json:"run_id,omitempty"`
	Argv     []string `json:"argv"`
	Dir      string   `json:"dir,omitempty"`
	ExitCode int      `json:"exit_code"`
	Stderr   string   `json:"stderr,omitempty"`
	Error    string   `json:"error,omitempty"` // set when the command could not start
}

// String renders the command line.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}
