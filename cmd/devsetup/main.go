// Command devsetup prepares a freshly cloned project for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/deixis/devsetup/internal/console"
)

// errFailed reports a run whose problems were already printed.
var errFailed = errors.New("setup failed")

var globalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log every command, its directory and exit code",
	},
	&cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "only print failures and the final result",
	},
	&cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"C"},
		Usage:   "run as if started in `DIR`",
	},
	&cli.BoolFlag{
		Name:  "no-save",
		Usage: "do not record the run",
	},
}

func main() {
	app := &cli.Command{
		Name:                   "devsetup",
		Usage:                  "Prepare a project checkout for local development",
		Description:            "Checks the Python and Node.js toolchain, installs backend, Python and frontend dependencies, and creates the environment file from its template.",
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Flags:                  globalFlags,
		Before:                 initLogging,
		Action:                 setupAction,
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Check that the required toolchain is installed",
				Action: checkAction,
			},
			{
				Name:   "env",
				Usage:  "Create the environment file from its template",
				Action: envAction,
			},
			reportCommand,
			mcpCommand,
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Println(versionString())
					return nil
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, os.Args)
	stop()
	if code := exitCode(err, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps a command error to the process exit status, printing
// errors that have not been reported yet.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, errFailed) {
		fmt.Fprintln(w, "devsetup:", err)
	}
	return 1
}

func initLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelInfo
	switch {
	case cmd.Bool("verbose"):
		level = slog.LevelDebug
	case cmd.Bool("quiet"):
		level = slog.LevelWarn
	}

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !console.IsTerminal(os.Stderr),
		}),
	))
	return ctx, nil
}
