package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/commentlink/internal/logfields"
)

// ScanCmd implements the 'scan' command.
type ScanCmd struct {
	outputFlags
	NoFail  bool   `help:"Exit 0 even when links do not resolve"`
	NoStore bool   `help:"Do not record this scan in the history store"`
	Path    string `arg:"" optional:"" help:"Directory inside the workspace to scan from. Defaults to the current directory" type:"path"`
}

func (s *ScanCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	formatter, err := s.formatter(cfg)
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, root.Config, g.Logger, runtimeOptions{events: true, store: !s.NoStore})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	start := s.Path
	if start == "" {
		start = "."
	}
	scanner, err := rt.scanner("", start)
	if err != nil {
		return err
	}

	batch, err := scanner.ScanWorkspace(ctx)
	if batch == nil {
		return err
	}
	if err != nil {
		// Partial or unsaved batches are still worth showing.
		g.Logger.Warn("Scan did not complete cleanly", logfields.BatchID(batch.ID), logfields.Error(err))
	}
	if ferr := formatter.Format(os.Stdout, batch); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	if s.NoFail {
		return nil
	}
	return checkUnresolved(batch.Summary)
}
