package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/devsetup/internal/config"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	h.mu.Lock()
	cfg, workspace := h.config, h.workspace
	h.mu.Unlock()

	loaded, err := config.Load(workspace)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load project file: %v", err))
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", cfg.ProjectName(workspace))
	fmt.Fprintf(&b, "Directory: %s\n", workspace)
	if loaded.Path != "" {
		fmt.Fprintf(&b, "Project file: %s\n", filepath.Base(loaded.Path))
	} else {
		fmt.Fprintln(&b, "Project file: (none, using defaults)")
	}
	fmt.Fprintf(&b, "Root marker: %s (%s)\n", cfg.MarkerFile(), presence(workspace, cfg.MarkerFile()))
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Python: %s >= %s\n", cfg.PythonInterpreter(runtime.GOOS), cfg.MinPythonVersion())
	fmt.Fprintf(&b, "Required tools: %s\n", strings.Join(cfg.RequiredTools(), ", "))
	fmt.Fprintf(&b, "Steps: %s\n", strings.Join(cfg.SetupSteps(), ", "))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Artifacts:")
	for _, a := range []struct{ label, path string }{
		{"backend directory", cfg.BackendDir()},
		{"requirements", cfg.RequirementsFile()},
		{"virtual environment", cfg.VenvDir()},
		{"frontend manifest", cfg.FrontendManifest()},
		{"env template", cfg.EnvTemplate()},
		{"env file", cfg.EnvFile()},
	} {
		fmt.Fprintf(&b, "  %-20s %-20s %s\n", a.label, a.path, presence(workspace, a.path))
	}

	return textResult(b.String())
}

func presence(workspace, rel string) string {
	if _, err := os.Stat(filepath.Join(workspace, rel)); err != nil {
		return "missing"
	}
	return "present"
}
