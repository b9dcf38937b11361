package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	outputFlags
	Root  string   `short:"r" help:"Workspace root; defaults to the configured root, the git top level, or the first file's directory"`
	Files []string `arg:"" help:"Source files to resolve" type:"path"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	formatter, err := r.formatter(cfg)
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, root.Config, g.Logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	scanner, err := rt.scanner(r.Root, filepath.Dir(r.Files[0]))
	if err != nil {
		return err
	}
	batch, err := scanner.ScanFiles(ctx, r.Files)
	if err != nil {
		return err
	}
	if err := formatter.Format(os.Stdout, batch); err != nil {
		return err
	}
	return checkUnresolved(batch.Summary)
}
