package setup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/devsetup/internal/report"
)

// Setup runs the full pipeline: project root check, dependency check, then
// every configured step. A non-nil error means a precondition aborted the
// run before any step; the returned record is always non-nil.
//
// Step failures do not stop later steps. The record's Success is true only
// when every step passed.
func (e *Engine) Setup(ctx context.Context) (*report.RunResult, error) {
	rr := e.newRun(report.Setup)
	defer func() { rr.FinishedAt = time.Now() }()

	out := e.out()
	out.Header("🚀 " + e.Config.ProjectName(e.Workspace) + " Setup")

	if err := e.requireProjectRoot(); err != nil {
		rr.Fatal = err.Error()
		return rr, err
	}

	deps, err := e.CheckDependencies(ctx)
	rr.Dependencies = deps
	if err != nil {
		out.Fail("Dependency check failed. Please install required software.")
		rr.Fatal = err.Error()
		return rr, err
	}

	success := true
	for _, name := range e.Config.SetupSteps() {
		if ctx.Err() != nil {
			rr.Steps = append(rr.Steps, report.Step{Name: name, Status: report.StatusSkipped, Detail: "interrupted"})
			success = false
			continue
		}
		step := e.runStep(ctx, name)
		rr.Steps = append(rr.Steps, step)
		success = success && step.Status == report.StatusPass
	}
	rr.Success = success

	out.Summary(success, e.Config.NextStepLines())
	return rr, nil
}

// Check runs the dependency check on its own.
func (e *Engine) Check(ctx context.Context) (*report.RunResult, error) {
	rr := e.newRun(report.Check)
	defer func() { rr.FinishedAt = time.Now() }()

	deps, err := e.CheckDependencies(ctx)
	rr.Dependencies = deps
	if err != nil {
		rr.Fatal = err.Error()
		return rr, err
	}
	rr.Success = true
	return rr, nil
}

// Env runs the configuration bootstrap on its own. It requires the
// project root marker like a full run does.
func (e *Engine) Env(ctx context.Context) (*report.RunResult, error) {
	rr := e.newRun(report.Env)
	defer func() { rr.FinishedAt = time.Now() }()

	if err := e.requireProjectRoot(); err != nil {
		rr.Fatal = err.Error()
		return rr, err
	}

	step := e.BootstrapEnvFile()
	rr.Steps = []report.Step{step}
	rr.Success = step.Status == report.StatusPass
	return rr, nil
}

func (e *Engine) newRun(kind report.Kind) *report.RunResult {
	return &report.RunResult{
		ID:        uuid.New().String(),
		Kind:      kind,
		Workspace: e.Workspace,
		StartedAt: time.Now(),
	}
}
