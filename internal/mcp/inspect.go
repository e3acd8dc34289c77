package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/devsetup/internal/report"
)

type inspectParams struct {
	RunID string `json:"run_id,omitempty" jsonschema:"the run ID from a setup_check, setup_run or setup_env result. Defaults to the latest run."`
	Kind  string `json:"kind,omitempty" jsonschema:"expected run kind: setup, check or env. The call fails if the run is of another kind."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	var (
		result *report.RunResult
		err    error
	)
	if params.RunID == "" {
		result, err = h.store.Latest()
	} else {
		result, err = h.store.Load(params.RunID)
	}
	if errors.Is(err, report.ErrNoRuns) {
		return errorResult("No runs recorded yet. Call setup_check or setup_run first.")
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	if params.Kind != "" {
		if err := result.Expect(report.Kind(params.Kind)); err != nil {
			return errorResult(err.Error())
		}
	}

	return textResult(report.Format(result, true))
}
