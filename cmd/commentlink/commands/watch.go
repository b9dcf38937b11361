package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
	"git.home.luguber.info/inful/commentlink/internal/scan"
	"git.home.luguber.info/inful/commentlink/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Path string `arg:"" optional:"" help:"Directory inside the workspace to watch. Defaults to the current directory" type:"path"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, root.Config, g.Logger, runtimeOptions{events: true, store: true, metrics: true})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	start := w.Path
	if start == "" {
		start = "."
	}
	scanner, err := rt.scanner("", start)
	if err != nil {
		return err
	}
	logger := g.Logger.With(logfields.WorkspaceRoot(scanner.Workspace().Root))

	onBatch := func(batch *scan.Batch, err error) {
		if batch == nil {
			return
		}
		logger.Info("Scan finished",
			logfields.BatchID(batch.ID),
			logfields.Count(batch.Summary.Links),
			slog.Int("unresolved", batch.Summary.Unresolved()))
		for _, f := range batch.Files {
			for _, l := range f.Links {
				if !l.IsResolved() {
					logger.Warn("Unresolved comment link",
						logfields.File(f.RelPath),
						logfields.Status(string(l.Status)),
						logfields.Path(l.Occurrence.RawTarget))
				}
			}
		}
	}

	batch, err := scanner.ScanWorkspace(ctx)
	onBatch(batch, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	watcher, err := watch.NewWatcher(scanner.Workspace().Root, scanner, cacheInvalidator(rt), watch.Options{
		Debounce: cfg.Watch.DebounceDuration(),
		Recorder: rt.recorder,
		OnBatch:  onBatch,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return watcher.Run(gctx) })

	if interval := cfg.Watch.RescanIntervalDuration(); interval > 0 {
		scheduler, err := watch.NewScheduler(scanner, onBatch, logger)
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleRescan(gctx, interval); err != nil {
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Stop() }()
	}

	if rt.registry != nil {
		group.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.ListenAddr, rt.registry) })
	}

	return group.Wait()
}

// cacheInvalidator avoids handing the watcher a typed nil.
func cacheInvalidator(rt *runtime) watch.Invalidator {
	if rt.cache == nil {
		return nil
	}
	return rt.cache
}
