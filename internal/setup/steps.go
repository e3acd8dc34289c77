package setup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/deixis/devsetup/internal/report"
)

func (e *Engine) runStep(ctx context.Context, name string) report.Step {
	switch name {
	case "backend":
		return e.setupBackend(ctx)
	case "python":
		return e.setupPython(ctx)
	case "frontend":
		return e.setupFrontend(ctx)
	case "env":
		return e.BootstrapEnvFile()
	default:
		e.out().Fail("Unknown setup step: " + name)
		return report.Step{Name: name, Status: report.StatusFail, Detail: fmt.Sprintf("unknown step: %s", name)}
	}
}

func (e *Engine) setupBackend(ctx context.Context) report.Step {
	out := e.out()
	out.Section("📦 Setting up backend...")
	step := report.Step{Name: "backend"}

	dir := e.Config.BackendDir()
	if !e.isDir(dir) {
		out.Fail("Backend directory not found")
		return failed(step, fmt.Sprintf("backend directory %q not found", dir))
	}

	if !e.exec(ctx, &step, "Installing backend dependencies", e.Config.BackendInstall(), dir) {
		out.Fail("Failed to install backend dependencies")
		return failed(step, "install command failed")
	}

	out.Pass("Backend dependencies installed")
	return passed(step, "")
}

func (e *Engine) setupPython(ctx context.Context) report.Step {
	out := e.out()
	out.Section("🐍 Setting up Python environment...")
	step := report.Step{Name: "python"}

	venv := e.Config.VenvDir()
	if !e.exists(venv) {
		out.Info("Creating virtual environment...")
		argv := []string{e.Config.PythonInterpreter(e.goos()), "-m", "venv", venv}
		if !e.exec(ctx, &step, "Creating virtual environment", argv, "") {
			out.Fail("Failed to create virtual environment")
			return failed(step, "virtual environment creation failed")
		}
	}

	out.Info("Installing Python packages...")
	argv := []string{e.venvPip(), "install", "-r", e.Config.RequirementsFile()}
	if !e.exec(ctx, &step, "Installing Python packages", argv, "") {
		out.Fail("Failed to install Python dependencies")
		return failed(step, "pip install failed")
	}

	out.Pass("Python environment setup complete")
	return passed(step, "")
}

// venvPip returns the absolute path of the virtual environment's pip.
func (e *Engine) venvPip() string {
	venv := e.path(e.Config.VenvDir())
	if e.goos() == "windows" {
		return filepath.Join(venv, "Scripts", "pip.exe")
	}
	return filepath.Join(venv, "bin", "pip")
}

func (e *Engine) setupFrontend(ctx context.Context) report.Step {
	out := e.out()
	out.Section("🌐 Setting up frontend...")
	step := report.Step{Name: "frontend"}

	manifest := e.Config.FrontendManifest()
	detail := ""
	if e.exists(manifest) {
		if !e.exec(ctx, &step, "Installing frontend dependencies", e.Config.FrontendInstall(), "") {
			out.Fail("Failed to install frontend dependencies")
			return failed(step, "install command failed")
		}
	} else {
		detail = fmt.Sprintf("no %s; nothing to install", manifest)
	}

	out.Pass("Frontend setup complete")
	return passed(step, detail)
}

func passed(step report.Step, detail string) report.Step {
	step.Status = report.StatusPass
	step.Detail = detail
	return step
}

func failed(step report.Step, detail string) report.Step {
	step.Status = report.StatusFail
	step.Detail = detail
	return step
}
