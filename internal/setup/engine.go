// Package setup prepares a project checkout for development: it verifies
// the interpreter and Node.js tooling, installs backend, Python and
// frontend dependencies, and bootstraps the environment file.
//
// Steps run sequentially. A failed precondition (wrong directory, missing
// tool) aborts the run; a failed step is recorded and the remaining steps
// still run so every problem surfaces in one pass.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/deixis/devsetup/internal/config"
	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/runner"
)

// CommandRunner executes commands within a workspace.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Reporter receives the running progress log.
type Reporter interface {
	Header(title string)
	Section(title string)
	Pass(msg string)
	Fail(msg string)
	Warn(msg string)
	Info(msg string)
	// Busy runs action while indicating progress under title.
	Busy(title string, action func())
	Summary(success bool, nextSteps []string)
}

var (
	// ErrNotProjectRoot is returned when the marker file is missing from
	// the working directory.
	ErrNotProjectRoot = errors.New("not the project root")
	// ErrDependencyCheck is returned when a prerequisite is missing or too old.
	ErrDependencyCheck = errors.New("dependency check failed")

	errNotRun = errors.New("command did not run")
)

// Engine holds shared dependencies for all setup operations.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workspace string   // project root; all relative paths resolve here
	Reporter  Reporter // nil discards progress output
	GOOS      string   // defaults to runtime.GOOS
}

func (e *Engine) goos() string {
	if e.GOOS != "" {
		return e.GOOS
	}
	return runtime.GOOS
}

func (e *Engine) out() Reporter {
	if e.Reporter != nil {
		return e.Reporter
	}
	return Discard
}

func (e *Engine) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(e.Workspace, rel)
}

// exists reports whether rel exists under the workspace.
func (e *Engine) exists(rel string) bool {
	_, err := os.Stat(e.path(rel))
	return err == nil
}

// isDir reports whether rel is a directory under the workspace.
func (e *Engine) isDir(rel string) bool {
	info, err := os.Stat(e.path(rel))
	return err == nil && info.IsDir()
}

// requireProjectRoot fails when the marker file is absent.
func (e *Engine) requireProjectRoot() error {
	marker := e.Config.MarkerFile()
	if e.exists(marker) {
		return nil
	}
	e.out().Fail("Please run this from the project root directory")
	return fmt.Errorf("%w: %s not found in %s", ErrNotProjectRoot, marker, e.Workspace)
}

// exec runs argv for step, recording the invocation. It reports whether
// the command exited zero. Start failures count as a failed command.
func (e *Engine) exec(ctx context.Context, step *report.Step, title string, argv []string, cwd string) bool {
	var (
		res *runner.Result
		err error
	)
	e.out().Busy(title, func() {
		res, err = e.Runner.Run(ctx, argv, cwd)
	})
	if res == nil && err == nil {
		err = errNotRun
	}

	cmd := report.Command{Argv: argv, Dir: cwd}
	line := strings.Join(argv, " ")

	if err != nil {
		cmd.ExitCode = -1
		cmd.Error = err.Error()
		step.Commands = append(step.Commands, cmd)
		slog.Debug("Command could not run", "step", step.Name, "argv", argv, "error", err)
		e.out().Info(fmt.Sprintf("Exception running %s: %v", line, err))
		return false
	}

	cmd.RunID = res.RunID
	cmd.ExitCode = res.ExitCode
	if !res.OK() {
		cmd.Stderr = strings.TrimSpace(string(res.Stderr))
	}
	step.Commands = append(step.Commands, cmd)

	if !res.OK() {
		slog.Debug("Command failed", "step", step.Name, "argv", argv, "exitCode", res.ExitCode)
		e.out().Info("Error running: " + res.Command())
		e.out().Info("Error: " + cmd.Stderr)
		return false
	}
	return true
}

// Discard is a Reporter that drops all output.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Header(string)            {}
func (discard) Section(string)           {}
func (discard) Pass(string)              {}
func (discard) Fail(string)              {}
func (discard) Warn(string)              {}
func (discard) Info(string)              {}
func (discard) Busy(_ string, fn func()) { fn() }
func (discard) Summary(bool, []string)   {}
