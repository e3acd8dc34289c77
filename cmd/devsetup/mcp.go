package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	"github.com/deixis/devsetup/internal/config"
	dsmcp "github.com/deixis/devsetup/internal/mcp"
	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/runner"
)

var mcpCommand = &cli.Command{
	Name:  "mcp",
	Usage: "Serve setup operations over the Model Context Protocol",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "http",
			Usage: "serve streamable HTTP on `ADDR` (e.g. :9090) instead of stdio",
		},
		&cli.BoolFlag{
			Name:  "instructions",
			Usage: "print model instructions and exit",
		},
	},
	Action: mcpAction,
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("instructions") {
		fmt.Print(dsmcp.Instructions)
		return nil
	}

	workspace, err := workspaceDir(cmd)
	if err != nil {
		return err
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	store := report.NewLRUStore(10, mcpBackingStore(cmd.Bool("no-save")))

	r := &runner.Runner{
		Workspace: workspace,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := dsmcp.NewServer(cfg, r, store, workspace)

	if addr := cmd.String("http"); addr != "" {
		return serveHTTP(ctx, server, addr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

// mcpBackingStore returns where the server persists runs. With noSave
// runs live only in the server's in-memory cache.
func mcpBackingStore(noSave bool) report.Store {
	if noSave {
		return report.Nop
	}
	return report.NewDiskStore(report.DefaultDir())
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	slog.Info("Listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
