// Package watch keeps link results fresh while files change: a Watcher
// rescans edited source files and a Scheduler runs periodic full rescans.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/foundation/sets"
	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// DefaultDebounce groups bursts of editor writes into one rescan.
const DefaultDebounce = 250 * time.Millisecond

// BatchScanner is the part of scan.Scanner the watcher drives.
type BatchScanner interface {
	ScanFiles(ctx context.Context, paths []string) (*scan.Batch, error)
	Eligible(path string, isDir bool) bool
}

// Invalidator drops cached filesystem answers for a path and its children.
type Invalidator interface {
	Invalidate(path string)
}

// BatchFunc receives every batch the watcher or scheduler produces.
type BatchFunc func(batch *scan.Batch, err error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Recorder metrics.Recorder
	OnBatch  BatchFunc
	Logger   *slog.Logger
}

// Watcher monitors a workspace tree and rescans changed source files.
type Watcher struct {
	root     string
	scanner  BatchScanner
	cache    Invalidator
	debounce time.Duration
	recorder metrics.Recorder
	onBatch  BatchFunc
	logger   *slog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	dirs    sets.Set[string]
	pending sets.Set[string]
	timer   *time.Timer
	flushes sync.WaitGroup
}

// NewWatcher creates a watcher for root. cache may be nil.
func NewWatcher(root string, scanner BatchScanner, cache Invalidator, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		_ = fsw.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryWorkspace, "failed to resolve watch root").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		root:     abs,
		scanner:  scanner,
		cache:    cache,
		debounce: opts.Debounce,
		recorder: metrics.OrNoop(opts.Recorder),
		onBatch:  opts.OnBatch,
		logger:   opts.Logger,
		fsw:      fsw,
		dirs:     sets.New[string](),
		pending:  sets.New[string](),
	}, nil
}

// Run watches until ctx is done, then closes the underlying watcher and
// waits for an in-flight rescan to finish.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("Watching workspace", logfields.WorkspaceRoot(w.root), logfields.Count(w.watchedDirs()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	w.logger.Debug("File change detected", logfields.Path(path), slog.String("op", event.Op.String()))

	if w.cache != nil {
		w.cache.Invalidate(filepath.ToSlash(path))
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.forgetDir(path)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(path), logfields.Error(err))
			}
			w.queueTree(ctx, path)
		}
		return
	}
	if w.scanner.Eligible(path, false) {
		w.queue(ctx, path)
	}
}

// queueTree schedules source files already present in a directory that
// appeared after the watch started.
func (w *Watcher) queueTree(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && !w.scanner.Eligible(path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.scanner.Eligible(path, false) {
			w.queue(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) queue(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.Add(path)
	w.disarm()
	w.flushes.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

// disarm stops the debounce timer. A flush that was still pending will never
// run, so its slot in flushes is released here. Callers hold w.mu.
func (w *Watcher) disarm() {
	if w.timer != nil && w.timer.Stop() {
		w.flushes.Done()
	}
	w.timer = nil
}

// flush rescans the files queued since the last flush. Its flushes slot was
// taken by queue when the timer was armed.
func (w *Watcher) flush(ctx context.Context) {
	defer w.flushes.Done()

	w.mu.Lock()
	paths := sets.Sorted(w.pending)
	w.pending = sets.New[string]()
	w.mu.Unlock()

	paths = slices.DeleteFunc(paths, func(p string) bool {
		_, err := os.Stat(p)
		return err != nil
	})
	if len(paths) == 0 || ctx.Err() != nil {
		return
	}

	batch, err := w.scanner.ScanFiles(ctx, paths)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("Rescan failed", logfields.Count(len(paths)), logfields.Error(err))
	}
	if w.onBatch != nil {
		w.onBatch(batch, err)
	}
}

// addTree watches dir and every eligible directory below it.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && !w.scanner.Eligible(path, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.mu.Lock()
		w.dirs.Add(path)
		w.mu.Unlock()
		return nil
	})
	w.recorder.SetWatchedDirectories(w.watchedDirs())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
			WithContext("path", dir).
			Build()
	}
	return nil
}

// forgetDir drops bookkeeping for a removed directory; inotify removes the
// watch itself.
func (w *Watcher) forgetDir(path string) {
	w.mu.Lock()
	prefix := path + string(filepath.Separator)
	w.dirs.DeleteFunc(func(d string) bool {
		return d == path || strings.HasPrefix(d, prefix)
	})
	w.pending.Delete(path)
	n := w.dirs.Len()
	w.mu.Unlock()
	w.recorder.SetWatchedDirectories(n)
}

func (w *Watcher) watchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirs.Len()
}

func (w *Watcher) close() {
	w.mu.Lock()
	w.disarm()
	w.mu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.logger.Error("Error closing file watcher", logfields.Error(err))
	}
	w.flushes.Wait()
	w.recorder.SetWatchedDirectories(0)
}
