package commentlink

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/commentlink/internal/logfields"
)

// DefaultFSTimeout bounds each filesystem call made while validating a link.
const DefaultFSTimeout = 2 * time.Second

// ErrNoFileSystem is returned by NewResolver when Options.FileSystem is nil.
var ErrNoFileSystem = errors.New("commentlink: resolver requires a FileSystem")

// Options configures a Resolver.
type Options struct {
	// FileSystem answers existence and line-count queries. Required.
	FileSystem FileSystem
	// Concurrency caps parallel occurrence resolution within one comment.
	// Zero means GOMAXPROCS.
	Concurrency int
	// FSTimeout bounds every filesystem call. Zero means DefaultFSTimeout;
	// a negative value disables the bound.
	FSTimeout time.Duration
	Logger    *slog.Logger
}

// Resolver runs the scan, parse, resolve and validate stages for a file.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	fs          FileSystem
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a Resolver from opts.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.FileSystem == nil {
		return nil, ErrNoFileSystem
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	timeout := opts.FSTimeout
	if timeout == 0 {
		timeout = DefaultFSTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fs := opts.FileSystem
	if timeout > 0 {
		fs = boundedFS{next: fs, timeout: timeout}
	}
	return &Resolver{fs: fs, concurrency: concurrency, logger: logger}, nil
}

// Resolve resolves every link in every comment of fileText, in file order.
//
// A nil extractor treats the whole text as one comment. Each result carries
// its comment's file offset, so r.FileSpan(r.CommentOffset) locates the link
// in fileText. Individual link failures become result statuses. The only error is ctx's, returned with the
// results of the comments completed before cancellation.
func (r *Resolver) Resolve(ctx context.Context, fileText, filePath, workspaceRoot string, extractor CommentExtractor) ([]Result, error) {
	if extractor == nil {
		extractor = WholeText
	}

	var results []Result
	for _, span := range extractor.ExtractComments(fileText) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		commentResults, err := r.ResolveComment(ctx, span.Text, filePath, workspaceRoot)
		if err != nil {
			return results, err
		}
		for i := range commentResults {
			commentResults[i].CommentOffset = span.FileOffset
		}
		results = append(results, commentResults...)
	}

	r.logger.Debug("Resolved comment links",
		logfields.File(filePath),
		logfields.WorkspaceRoot(workspaceRoot),
		logfields.Count(len(results)))
	return results, nil
}

// ResolveComment resolves the links of a single comment text.
// Occurrences are validated in parallel and returned in source order.
func (r *Resolver) ResolveComment(ctx context.Context, commentText, filePath, workspaceRoot string) ([]Result, error) {
	occurrences := FindLinks(commentText)
	if len(occurrences) == 0 {
		return nil, ctx.Err()
	}

	results := make([]Result, len(occurrences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, occ := range occurrences {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.resolveOccurrence(gctx, occ, filePath, workspaceRoot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Validation maps fs errors to FileNotFound, so a cancellation mid-flight
	// would otherwise leak out as wrong statuses.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) resolveOccurrence(ctx context.Context, occ Occurrence, filePath, workspaceRoot string) Result {
	result := Result{Occurrence: occ}

	ref, err := ParseTarget(occ.RawTarget)
	if err != nil {
		return r.invalid(result, err)
	}
	result.Target = ref

	candidates, err := Candidates(ref, filePath, workspaceRoot)
	if err != nil {
		return r.invalid(result, err)
	}

	v := Validate(ctx, r.fs, ref, candidates)
	result.Status = v.Status
	result.ResolvedPath = v.Path
	result.Line = v.Line
	result.Strategy = v.Strategy
	result.Reason = v.Reason

	r.logger.Debug("Validated link",
		logfields.Path(v.Path.UnwrapOr(ref.PathText)),
		logfields.Status(string(v.Status)),
		logfields.Strategy(string(v.Strategy)))
	return result
}

func (r *Resolver) invalid(result Result, err error) Result {
	result.Status = StatusAmbiguousOrInvalid
	result.Reason = err.Error()
	r.logger.Debug("Invalid link target",
		logfields.Status(string(result.Status)),
		logfields.Error(err))
	return result
}

// boundedFS applies a per-call deadline to another FileSystem.
type boundedFS struct {
	next    FileSystem
	timeout time.Duration
}

func (b boundedFS) FileExists(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.FileExists(ctx, path)
}

func (b boundedFS) LineCount(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.LineCount(ctx, path)
}
