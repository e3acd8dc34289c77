package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/setup"
)

type checkParams struct{}

func (h *handler) checkHandler(ctx context.Context, req *mcp.CallToolRequest, _ checkParams) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var log bytes.Buffer
	rr, err := h.engine(&log).Check(ctx)
	return h.finish(rr, err, log.String())
}

type runParams struct {
	Steps []string `json:"steps,omitempty" jsonschema:"setup steps to run, in order (backend, python, frontend, env). Defaults to the project's configured steps."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var log bytes.Buffer
	eng := h.engine(&log)
	if len(params.Steps) > 0 {
		cfg := *h.config
		cfg.Steps = params.Steps
		eng.Config = &cfg
	}

	rr, err := eng.Setup(ctx)
	return h.finish(rr, err, log.String())
}

type envParams struct{}

func (h *handler) envHandler(ctx context.Context, req *mcp.CallToolRequest, _ envParams) (*mcp.CallToolResult, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var log bytes.Buffer
	rr, err := h.engine(&log).Env(ctx)
	return h.finish(rr, err, log.String())
}

// finish stores rr for setup_inspect and renders it. A precondition
// failure is a regular result; the model is expected to act on it.
func (h *handler) finish(rr *report.RunResult, runErr error, log string) (*mcp.CallToolResult, any, error) {
	if err := h.store.Save(rr); err != nil {
		slog.Warn("Could not record run", "id", rr.ID, "error", err)
	}
	return textResult(formatRun(rr, runErr, log))
}

func formatRun(rr *report.RunResult, runErr error, log string) string {
	var b strings.Builder

	b.WriteString(report.Format(rr, false))

	if log = strings.TrimSpace(log); log != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Log:")
		for _, line := range strings.Split(log, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	fmt.Fprintln(&b)

	var unavail setup.ErrToolUnavailable
	switch {
	case runErr == nil && rr.Success:
		fmt.Fprintf(&b, "All %s operations passed.\n", rr.Kind)
	case errors.As(runErr, &unavail):
		fmt.Fprintf(&b, "Action: %s\n", strings.ReplaceAll(unavail.Error(), "\n", " "))
	case runErr != nil:
		fmt.Fprintf(&b, "Action: resolve the problem above and re-run %s.\n", toolFor(rr.Kind))
	default:
		fmt.Fprintf(&b, "Inspect with setup_inspect(run_id=%q).\n", rr.ID)
	}

	return b.String()
}

func toolFor(kind report.Kind) string {
	switch kind {
	case report.Check:
		return "setup_check"
	case report.Env:
		return "setup_env"
	default:
		return "setup_run"
	}
}
