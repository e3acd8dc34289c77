package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/deixis/devsetup/internal/report"
)

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Show a recorded run, the latest by default",
	ArgsUsage: "[run-id]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the raw run record",
		},
		&cli.StringFlag{
			Name:  "kind",
			Usage: "require the run to be of `KIND` (setup, check or env)",
		},
	},
	Action: reportAction,
}

func reportAction(_ context.Context, cmd *cli.Command) error {
	store := report.NewDiskStore(report.DefaultDir())

	var (
		rr  *report.RunResult
		err error
	)
	if id := cmd.Args().First(); id != "" {
		rr, err = store.Load(id)
	} else {
		rr, err = store.Latest()
	}
	if errors.Is(err, report.ErrNoRuns) {
		return errors.New("no runs recorded yet; run devsetup first")
	}
	if err != nil {
		return err
	}
	if kind := cmd.String("kind"); kind != "" {
		if err := rr.Expect(report.Kind(kind)); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rr)
	}
	fmt.Print(report.Format(rr, cmd.Bool("verbose")))
	return nil
}
