package setup

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/deixis/devsetup/internal/report"
)

var pythonVersionRe = regexp.MustCompile(`(?i)python\s+(\d+\.\d+(?:\.\d+)?)`)

// CheckDependencies verifies the interpreter version and that every
// required tool answers --version. It stops at the first failure and
// returns the probes made so far.
func (e *Engine) CheckDependencies(ctx context.Context) ([]report.Dependency, error) {
	out := e.out()
	out.Section("🔍 Checking dependencies...")

	var deps []report.Dependency

	py, err := e.checkPython(ctx)
	deps = append(deps, py)
	if err != nil {
		return deps, fmt.Errorf("%w: %w", ErrDependencyCheck, err)
	}

	for _, tool := range e.Config.RequiredTools() {
		dep, err := e.checkTool(ctx, tool)
		deps = append(deps, dep)
		if err != nil {
			return deps, fmt.Errorf("%w: %w", ErrDependencyCheck, err)
		}
	}

	return deps, nil
}

func (e *Engine) checkPython(ctx context.Context) (report.Dependency, error) {
	out := e.out()
	interp := e.Config.PythonInterpreter(e.goos())
	dep := report.Dependency{Name: interp, Required: e.Config.MinPythonVersion()}

	minVersion, err := semver.NewVersion(dep.Required)
	if err != nil {
		dep.Detail = fmt.Sprintf("invalid minimum version %q", dep.Required)
		out.Fail("Invalid minimum Python version " + dep.Required)
		return dep, fmt.Errorf("parsing minimum python version: %w", err)
	}
	required := fmt.Sprintf("Python %d.%d+ is required", minVersion.Major(), minVersion.Minor())

	res, err := e.Runner.Run(ctx, []string{interp, "--version"}, "")
	if err != nil {
		unavail := NewErrToolUnavailable(interp)
		dep.Detail = unavail.Error()
		out.Fail(required)
		return dep, errors.Join(unavail, err)
	}
	if !res.OK() {
		dep.Detail = fmt.Sprintf("%s --version exited %d", interp, res.ExitCode)
		out.Fail(required)
		return dep, errors.New(dep.Detail)
	}

	// Interpreters before 3.4 print the version on stderr.
	raw := string(res.Stdout) + "\n" + string(res.Stderr)
	m := pythonVersionRe.FindStringSubmatch(raw)
	if m == nil {
		dep.Detail = fmt.Sprintf("could not determine version from %q", strings.TrimSpace(raw))
		out.Fail(required)
		return dep, fmt.Errorf("%s: %s", interp, dep.Detail)
	}

	version, err := semver.NewVersion(m[1])
	if err != nil {
		dep.Detail = fmt.Sprintf("invalid version %q", m[1])
		out.Fail(required)
		return dep, fmt.Errorf("%s: %s", interp, dep.Detail)
	}
	dep.Version = fmt.Sprintf("%d.%d.%d", version.Major(), version.Minor(), version.Patch())

	if version.LessThan(minVersion) {
		dep.Detail = fmt.Sprintf("found %s, need %s", dep.Version, minVersion)
		out.Fail(required)
		return dep, fmt.Errorf("python %s is older than %s", dep.Version, minVersion)
	}

	dep.OK = true
	out.Pass("Python " + dep.Version)
	return dep, nil
}

func (e *Engine) checkTool(ctx context.Context, tool string) (report.Dependency, error) {
	out := e.out()
	dep := report.Dependency{Name: tool}
	missing := displayName(tool) + " is not installed or not in PATH"

	res, err := e.Runner.Run(ctx, []string{tool, "--version"}, "")
	if err != nil {
		unavail := NewErrToolUnavailable(tool)
		dep.Detail = unavail.Error()
		out.Fail(missing)
		return dep, errors.Join(unavail, err)
	}
	if !res.OK() {
		dep.Detail = fmt.Sprintf("%s --version exited %d", tool, res.ExitCode)
		out.Fail(missing)
		return dep, NewErrToolUnavailable(tool)
	}

	dep.Version = firstLine(string(res.Stdout))
	dep.OK = true
	out.Pass(displayName(tool) + " is available")
	return dep, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
