package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/commentlink/internal/mcpserver"
	"git.home.luguber.info/inful/commentlink/internal/scan"
	"git.home.luguber.info/inful/commentlink/internal/version"
)

// MCPCmd implements the 'mcp' command.
type MCPCmd struct{}

func (m *MCPCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, root.Config, g.Logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	handler := mcpserver.NewHandler(func(workspaceRoot, start string) (*scan.Scanner, error) {
		// Editors call repeatedly; drop cached answers so every call sees the disk as it is now.
		if rt.cache != nil {
			rt.cache.InvalidateAll()
		}
		return rt.scanner(workspaceRoot, start)
	}, g.Logger)

	g.Logger.Info("MCP server starting on stdio")
	return mcpserver.ServeStdio(mcpserver.New(handler, version.Version))
}
