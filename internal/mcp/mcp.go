// Package mcp provides the devsetup MCP server, registering the setup
// tools and publishing model instructions.
package mcp

import (
	"bytes"
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/devsetup"
	"github.com/deixis/devsetup/internal/config"
	"github.com/deixis/devsetup/internal/console"
	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/runner"
	"github.com/deixis/devsetup/internal/setup"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	// mu serialises setup runs; they mutate the same working tree.
	mu        sync.Mutex
	config    *config.Config
	runner    setup.CommandRunner
	store     report.Store
	workspace string
}

// NewServer creates an MCP server with all devsetup tools registered.
// When r is a *runner.Runner it is re-rooted if the client reports a
// workspace root.
func NewServer(cfg *config.Config, r setup.CommandRunner, store report.Store, workspace string) *mcp.Server {
	h := &handler{
		config:    cfg,
		runner:    r,
		store:     store,
		workspace: workspace,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "devsetup", Version: devsetup.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "setup_workspace",
		Description: "Summarise the project: root marker, project file, configured steps, required tools, and which setup artifacts already exist.",
	}, h.workspaceHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "setup_check",
		Description: `Check that the required toolchain is installed: the Python interpreter (minimum version) and each required tool (node, npm by default).

Stops at the first missing or outdated dependency. Nothing is installed or written.`,
	}, h.checkHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "setup_run",
		Description: `Run the full project setup: dependency check, backend install, Python virtual environment and packages, frontend install, and environment file.

A failed step does not stop later steps. Results are stored for drill-down via setup_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "setup_env",
		Description: `Create the environment file from its template if it does not exist yet.

An existing environment file is never modified.`,
	}, h.envHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "setup_inspect",
		Description: `Show a stored run in detail, including every command executed and its stderr.

Use the run_id from a setup_check, setup_run or setup_env result. Omit it to show the latest run.`,
	}, h.inspectHandler)

	return s
}

// engine returns a setup engine whose progress log is written to log.
// Callers must hold h.mu.
func (h *handler) engine(log *bytes.Buffer) *setup.Engine {
	return &setup.Engine{
		Config:    h.config,
		Runner:    h.runner,
		Workspace: h.workspace,
		Reporter:  console.New(log, false),
	}
}

// updateWorkspaceFromRoots queries the client for MCP roots and re-roots
// the handler if a file root is returned. It is called during session
// initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.runner.(*runner.Runner); ok {
		r.Workspace = workspace
		r.Timeout = loaded.Config.Timeout()
		r.MaxOutput = loaded.Config.MaxOutputBytes()
	}
	h.config = loaded.Config
	h.workspace = workspace
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
