package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/deixis/devsetup"
	"github.com/deixis/devsetup/internal/config"
	"github.com/deixis/devsetup/internal/console"
	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/runner"
	"github.com/deixis/devsetup/internal/setup"
)

func versionString() string {
	return "devsetup " + devsetup.Version
}

func setupAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return fmt.Errorf("unknown command %q", cmd.Args().First())
	}
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	rr, err := eng.Setup(ctx)
	return finish(cmd, rr, err)
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	rr, err := eng.Check(ctx)
	if err == nil && !cmd.Bool("quiet") {
		fmt.Println()
		fmt.Println("All dependencies are available.")
	}
	return finish(cmd, rr, err)
}

func envAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	rr, err := eng.Env(ctx)
	return finish(cmd, rr, err)
}

// finish records the run and maps its outcome to the process result.
func finish(cmd *cli.Command, rr *report.RunResult, runErr error) error {
	if !cmd.Bool("no-save") {
		record(report.NewDiskStore(report.DefaultDir()), rr)
	}
	return outcome(rr, runErr, os.Stderr)
}

func record(store report.Store, rr *report.RunResult) {
	if err := store.Save(rr); err != nil {
		slog.Warn("Could not record run", "error", err)
		return
	}
	slog.Debug("Run recorded", "id", rr.ID, "kind", rr.Kind)
}

// outcome returns errFailed for an aborted or unsuccessful run. Install
// hints for a missing tool are written to w; every other diagnostic was
// already printed by the console.
func outcome(rr *report.RunResult, runErr error, w io.Writer) error {
	if runErr != nil {
		slog.Debug("Run aborted", "error", runErr)
		var unavail setup.ErrToolUnavailable
		if errors.As(runErr, &unavail) && unavail.Info != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, unavail.Error())
		}
		return errFailed
	}
	if !rr.Success {
		return errFailed
	}
	return nil
}

// newEngine builds a setup engine for the selected working directory.
func newEngine(cmd *cli.Command) (*setup.Engine, error) {
	workspace, err := workspaceDir(cmd)
	if err != nil {
		return nil, err
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if loaded.Path != "" {
		slog.Debug("Loaded project file", "path", loaded.Path)
	}
	cfg := loaded.Config

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	return &setup.Engine{
		Config:    cfg,
		Runner:    r,
		Workspace: workspace,
		Reporter:  console.Stdout(console.Quiet(cmd.Bool("quiet"))),
	}, nil
}

func workspaceDir(cmd *cli.Command) (string, error) {
	dir := cmd.String("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining workspace: %w", err)
		}
		return wd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %s is not a directory", abs)
	}
	return abs, nil
}
