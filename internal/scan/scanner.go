// Package scan resolves comment links across a workspace: it walks source
// files, runs the resolver per file on a bounded worker pool, and fans the
// batch out to metrics, the event publisher and the report store.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/comments"
	"git.home.luguber.info/inful/commentlink/internal/events"
	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/foundation/sets"
	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
	"git.home.luguber.info/inful/commentlink/internal/workspace"
)

// DefaultMaxFileSize skips files larger than this many bytes.
const DefaultMaxFileSize = 4 << 20

// BatchStore persists finished batches.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch *Batch) error
}

// CacheInvalidator clears per-batch filesystem state.
type CacheInvalidator interface {
	InvalidateAll()
}

// Options configures a Scanner. Zero values select defaults.
type Options struct {
	Extensions  []string // With leading dot; empty means every extension the registry knows
	ExcludeDirs []string // Directory names never descended into
	Ignore      []string // Glob patterns matched against the relative path and the base name
	Workers     int      // Files resolved in parallel
	MaxFileSize int64

	Registry  *comments.Registry
	Cache     CacheInvalidator
	Recorder  metrics.Recorder
	Publisher events.Publisher
	Store     BatchStore
	Logger    *slog.Logger
}

// Scanner runs batches of file scans against one workspace.
type Scanner struct {
	ws       *workspace.Workspace
	resolver *commentlink.Resolver
	opts     Options
	exts     sets.Set[string]
	exclude  sets.Set[string]
}

// New creates a Scanner for ws using resolver.
func New(ws *workspace.Workspace, resolver *commentlink.Resolver, opts Options) *Scanner {
	if opts.Registry == nil {
		opts.Registry = comments.DefaultRegistry()
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = opts.Registry.Extensions()
	}
	s := &Scanner{
		ws:       ws,
		resolver: resolver,
		opts:     opts,
		exts:     sets.New[string](),
		exclude:  sets.New(opts.ExcludeDirs...),
	}
	for _, e := range exts {
		s.exts.Add(strings.ToLower(e))
	}
	return s
}

// Workspace returns the workspace the scanner resolves against.
func (s *Scanner) Workspace() *workspace.Workspace {
	return s.ws
}

// ScanWorkspace scans every eligible file under the workspace root.
// It starts a fresh batch: cached filesystem answers from earlier batches are dropped.
func (s *Scanner) ScanWorkspace(ctx context.Context) (*Batch, error) {
	if s.opts.Cache != nil {
		s.opts.Cache.InvalidateAll()
	}
	paths, err := s.collectFiles(ctx)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, paths, true)
}

// ScanFiles scans the given files as one batch, keeping cached answers.
// Paths that do not exist are reported with an error entry.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string) (*Batch, error) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot resolve path").
				WithContext("path", p).
				Build()
		}
		abs = append(abs, a)
	}
	return s.run(ctx, abs, false)
}

// ScanFile reads and scans a single file outside of any batch.
func (s *Scanner) ScanFile(ctx context.Context, path string) (FileReport, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileReport{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot resolve path").Build()
	}
	data, err := s.readSource(abs)
	if err != nil {
		return FileReport{Path: filepath.ToSlash(abs), RelPath: s.ws.Rel(abs)}, err
	}
	return s.ScanText(ctx, abs, string(data))
}

// ScanText resolves the links in text as if it were the content of path.
// Editors use this for unsaved buffers.
func (s *Scanner) ScanText(ctx context.Context, path, text string) (FileReport, error) {
	start := time.Now()
	report := FileReport{Path: filepath.ToSlash(path), RelPath: s.ws.Rel(path)}

	extractor, ok := s.opts.Registry.ForPath(path)
	if !ok {
		extractor = commentlink.WholeText
	}

	results, err := s.resolver.Resolve(ctx, text, report.Path, filepath.ToSlash(s.ws.Root), extractor)
	idx := newLineIndex(text)
	for _, r := range results {
		fileStart, fileEnd := r.FileSpan(r.CommentOffset)
		line, col := idx.position(fileStart)
		report.Links = append(report.Links, Link{
			Result:       r,
			FileStart:    fileStart,
			FileEnd:      fileEnd,
			SourceLine:   line,
			SourceColumn: col,
		})
	}
	report.Duration = time.Since(start)
	return report, err
}

func (s *Scanner) run(ctx context.Context, paths []string, full bool) (*Batch, error) {
	batch := &Batch{
		ID:            uuid.NewString(),
		WorkspaceRoot: filepath.ToSlash(s.ws.Root),
		StartedAt:     time.Now().UTC(),
		Full:          full,
		Files:         make([]FileReport, len(paths)),
	}
	logger := s.opts.Logger.With(logfields.BatchID(batch.ID))
	logger.Debug("Scan batch started", logfields.Count(len(paths)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	done := make([]bool, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := s.ScanFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					s.opts.Recorder.IncFileOutcome(metrics.FileCanceled)
					return ctxErr
				}
				report.Error = err.Error()
				s.opts.Recorder.IncFileOutcome(metrics.FileFailed)
				logger.Warn("Failed to scan file", logfields.File(path), logfields.Error(err))
			} else {
				s.opts.Recorder.IncFileOutcome(metrics.FileScanned)
			}
			s.opts.Recorder.ObserveFileDuration(report.Duration)
			batch.Files[i] = report
			done[i] = true
			return nil
		})
	}
	waitErr := g.Wait()

	if waitErr != nil {
		batch.Canceled = true
		kept := batch.Files[:0]
		for i, f := range batch.Files {
			if done[i] {
				kept = append(kept, f)
			}
		}
		batch.Files = kept
	}
	batch.FinishedAt = time.Now().UTC()
	batch.Summary = summarize(batch.Files)
	s.opts.Recorder.ObserveBatchDuration(batch.Duration())
	for _, f := range batch.Files {
		for _, l := range f.Links {
			s.opts.Recorder.IncLinkResult(string(l.Status), string(l.Strategy))
		}
	}

	logger.Info("Scan batch finished",
		logfields.Count(batch.Summary.Links),
		slog.Int("files", batch.Summary.Files),
		slog.Int("unresolved", batch.Summary.Unresolved()),
		logfields.Duration(batch.Duration()))

	if waitErr != nil {
		return batch, waitErr
	}
	return batch, s.deliver(ctx, batch, logger)
}

// deliver publishes unresolved links and persists the batch.
// Publishing failures are logged; a store failure is returned.
func (s *Scanner) deliver(ctx context.Context, batch *Batch, logger *slog.Logger) error {
	for _, f := range batch.Files {
		for _, l := range f.Links {
			if l.IsResolved() {
				continue
			}
			event := events.NewUnresolvedLinkEvent(events.Location{
				BatchID:       batch.ID,
				File:          f.Path,
				WorkspaceRoot: batch.WorkspaceRoot,
				Line:          l.SourceLine,
				Column:        l.SourceColumn,
				StartOffset:   l.FileStart,
				EndOffset:     l.FileEnd,
			}, l.Result)
			if err := s.opts.Publisher.Publish(ctx, event); err != nil {
				logger.Warn("Failed to publish unresolved link", logfields.File(f.Path), logfields.Error(err))
			}
		}
	}

	if s.opts.Store == nil {
		return nil
	}
	if err := s.opts.Store.SaveBatch(ctx, batch); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "failed to save scan batch").
			WithContext("batch_id", batch.ID).
			Build()
	}
	return nil
}

// collectFiles walks the workspace in lexical order.
func (s *Scanner) collectFiles(ctx context.Context) ([]string, error) {
	root := s.ws.Root
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.opts.Logger.Debug("Skipping unreadable path", logfields.Path(path), logfields.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel := s.ws.Rel(path)
		if d.IsDir() {
			if s.skipDir(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.accept(d, rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk workspace").
			WithContext("root", root).
			Build()
	}
	return files, nil
}

func (s *Scanner) skipDir(name, rel string) bool {
	return strings.HasPrefix(name, ".") || s.exclude.Has(name) || s.ignored(rel, name) || s.ws.Ignored(rel, true)
}

func (s *Scanner) accept(d fs.DirEntry, rel string) bool {
	return d.Type().IsRegular() && s.acceptName(d.Name(), rel)
}

func (s *Scanner) acceptName(name, rel string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !s.exts.Has(strings.ToLower(filepath.Ext(name))) {
		if _, named := s.opts.Registry.ForPath(name); !named || filepath.Ext(name) != "" {
			return false
		}
	}
	return !s.ignored(rel, name) && !s.ws.Ignored(rel, false)
}

// Eligible applies the walk rules to a single path: for a directory, whether
// it would be descended into; for a file, whether it would be scanned.
func (s *Scanner) Eligible(path string, isDir bool) bool {
	rel := s.ws.Rel(path)
	if rel == "." {
		return isDir
	}
	if isDir {
		return !s.skipDir(filepath.Base(path), rel)
	}
	return s.acceptName(filepath.Base(path), rel)
}

func (s *Scanner) ignored(rel, name string) bool {
	return slices.ContainsFunc(s.opts.Ignore, func(pattern string) bool {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		ok, _ := filepath.Match(pattern, name)
		return ok
	})
}

func (s *Scanner) readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NotFoundError("source file not found").WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot stat source file").Build()
	}
	if !info.Mode().IsRegular() {
		return nil, ferrors.ValidationError("not a regular file").WithContext("path", path).Build()
	}
	if info.Size() > s.opts.MaxFileSize {
		return nil, ferrors.ValidationError(fmt.Sprintf("file exceeds %d bytes", s.opts.MaxFileSize)).
			WithContext("path", path).
			Warning().
			Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read source file").Build()
	}
	if bytes.IndexByte(data[:min(len(data), 8000)], 0) >= 0 {
		return nil, ferrors.ValidationError("binary file").WithContext("path", path).Warning().Build()
	}
	return data, nil
}
