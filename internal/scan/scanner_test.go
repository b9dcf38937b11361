package scan

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/events"
	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/fsprobe"
	"git.home.luguber.info/inful/commentlink/internal/testutil"
	"git.home.luguber.info/inful/commentlink/internal/workspace"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.UnresolvedLinkEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.UnresolvedLinkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type memoryStore struct {
	batches []*Batch
	err     error
}

func (s *memoryStore) SaveBatch(_ context.Context, b *Batch) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

func newScanner(t *testing.T, root string, opts Options) *Scanner {
	t.Helper()
	ws, err := workspace.Open(root, root)
	require.NoError(t, err)
	cache := fsprobe.NewCache(&fsprobe.OSProbe{}, nil)
	resolver, err := commentlink.NewResolver(commentlink.Options{FileSystem: cache})
	require.NoError(t, err)
	if opts.Extensions == nil {
		opts.Extensions = []string{".py", ".go"}
	}
	opts.Cache = cache
	return New(ws, resolver, opts)
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, root, "lib/util.py", strings.Repeat("pass\n", 10))
	testutil.WriteFile(t, root, "lib/main.py", "import util\n# see [util](util.py:3) and [gone](missing.py)\nx = '[not](util.py)'\n")
	testutil.WriteFile(t, root, "cmd/tool.go", "package main\n\n// Uses [helper](../lib/util.py:42).\nfunc main() {}\n")
	testutil.WriteFile(t, root, "README.txt", "[skipped](lib/util.py)\n")
	testutil.WriteFile(t, root, "node_modules/dep/index.py", "# [x](y.py)\n")
	testutil.WriteFile(t, root, ".hidden/secret.py", "# [x](y.py)\n")
	return root
}

func TestScanWorkspace(t *testing.T) {
	root := fixture(t)
	pub := &recordingPublisher{}
	store := &memoryStore{}
	s := newScanner(t, root, Options{ExcludeDirs: []string{"node_modules"}, Publisher: pub, Store: store})

	batch, err := s.ScanWorkspace(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Files, 3)
	assert.Equal(t, "cmd/tool.go", batch.Files[0].RelPath)
	assert.Equal(t, "lib/main.py", batch.Files[1].RelPath)
	assert.Equal(t, "lib/util.py", batch.Files[2].RelPath)
	assert.Empty(t, batch.Files[2].Links)
	assert.True(t, batch.Full)
	assert.False(t, batch.Canceled)
	assert.NotEmpty(t, batch.ID)

	tool := batch.Files[0]
	require.Len(t, tool.Links, 1)
	assert.Equal(t, commentlink.StatusLineOutOfRange, tool.Links[0].Status)
	assert.Equal(t, 3, tool.Links[0].SourceLine)
	assert.Equal(t, 9, tool.Links[0].SourceColumn)

	main := batch.Files[1]
	require.Len(t, main.Links, 2)
	assert.Equal(t, commentlink.StatusResolved, main.Links[0].Status)
	assert.Equal(t, "util", main.Links[0].Occurrence.Label)
	assert.Equal(t, 2, main.Links[0].SourceLine)
	assert.Equal(t, 7, main.Links[0].SourceColumn)
	assert.Equal(t, commentlink.StatusFileNotFound, main.Links[1].Status)

	assert.Equal(t, 3, batch.Summary.Files)
	assert.Equal(t, 2, batch.Summary.FilesWithLinks)
	assert.Equal(t, 3, batch.Summary.Links)
	assert.Equal(t, 2, batch.Summary.Unresolved())
	assert.Equal(t, 1, batch.Summary.ByStatus[commentlink.StatusResolved])

	require.Len(t, pub.events, 2)
	for _, e := range pub.events {
		assert.Equal(t, batch.ID, e.BatchID)
		assert.NotEqual(t, string(commentlink.StatusResolved), e.Status)
	}
	require.Len(t, store.batches, 1)
	assert.Same(t, batch, store.batches[0])
}

func TestScanWorkspaceIgnorePatterns(t *testing.T) {
	root := fixture(t)
	s := newScanner(t, root, Options{ExcludeDirs: []string{"node_modules"}, Ignore: []string{"cmd/*", "main.py"}})

	batch, err := s.ScanWorkspace(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Files, 1)
	assert.Equal(t, "lib/util.py", batch.Files[0].RelPath)
}

func TestScanFilesReportsMissingFile(t *testing.T) {
	root := fixture(t)
	s := newScanner(t, root, Options{})

	batch, err := s.ScanFiles(context.Background(), []string{
		filepath.Join(root, "lib", "main.py"),
		filepath.Join(root, "lib", "deleted.py"),
	})
	require.NoError(t, err)
	assert.False(t, batch.Full)
	require.Len(t, batch.Files, 2)
	assert.Empty(t, batch.Files[0].Error)
	assert.Contains(t, batch.Files[1].Error, "not found")
	assert.Equal(t, 1, batch.Summary.FileErrors)
}

func TestScanFileSkipsBinary(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "blob.py", "# [a](b.py)\x00\x01")
	s := newScanner(t, root, Options{})

	_, err := s.ScanFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestScanFileSkipsOversized(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "big.py", strings.Repeat("#\n", 64))
	s := newScanner(t, root, Options{MaxFileSize: 16})

	_, err := s.ScanFile(context.Background(), path)
	require.Error(t, err)
}

func TestScanTextUnknownExtensionUsesWholeText(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "target.py", "a\nb\n")
	s := newScanner(t, root, Options{})

	report, err := s.ScanText(context.Background(), filepath.Join(root, "notes.unknown"), "first\n[t](target.py:2)")
	require.NoError(t, err)
	require.Len(t, report.Links, 1)
	assert.Equal(t, commentlink.StatusResolved, report.Links[0].Status)
	assert.Equal(t, 2, report.Links[0].SourceLine)
	assert.Equal(t, 1, report.Links[0].SourceColumn)
	assert.Equal(t, 6, report.Links[0].FileStart)
}

func TestScanWorkspaceStoreFailure(t *testing.T) {
	root := fixture(t)
	s := newScanner(t, root, Options{ExcludeDirs: []string{"node_modules"}, Store: &memoryStore{err: errors.New("disk full")}})

	batch, err := s.ScanWorkspace(context.Background())
	require.Error(t, err)
	require.NotNil(t, batch)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStorage))
}

func TestScanWorkspacePublishFailureIsNotFatal(t *testing.T) {
	root := fixture(t)
	pub := &recordingPublisher{err: errors.New("nats down")}
	s := newScanner(t, root, Options{ExcludeDirs: []string{"node_modules"}, Publisher: pub})

	batch, err := s.ScanWorkspace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Summary.Unresolved())
	assert.Len(t, pub.events, 2)
}

func TestScanWorkspaceCanceled(t *testing.T) {
	root := fixture(t)
	s := newScanner(t, root, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScanWorkspace(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLineIndexPosition(t *testing.T) {
	idx := newLineIndex("ab\ncé\n\nd")
	cases := []struct{ offset, line, col int }{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{7, 4, 1},
	}
	for _, c := range cases {
		line, col := idx.position(c.offset)
		assert.Equal(t, c.line, line, "offset %d", c.offset)
		assert.Equal(t, c.col, col, "offset %d", c.offset)
	}
}

func TestEligible(t *testing.T) {
	root := fixture(t)
	s := newScanner(t, root, Options{ExcludeDirs: []string{"node_modules"}, Ignore: []string{"*_gen.go"}})

	assert.True(t, s.Eligible(root, true))
	assert.True(t, s.Eligible(filepath.Join(root, "lib"), true))
	assert.False(t, s.Eligible(filepath.Join(root, "node_modules"), true))
	assert.False(t, s.Eligible(filepath.Join(root, ".git"), true))
	assert.True(t, s.Eligible(filepath.Join(root, "lib", "new.py"), false))
	assert.False(t, s.Eligible(filepath.Join(root, "README.txt"), false))
	assert.False(t, s.Eligible(filepath.Join(root, "cmd", "api_gen.go"), false))
}

func TestScanLogsBatchLifecycle(t *testing.T) {
	root := fixture(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newScanner(t, root, Options{Logger: logger})

	_, err := s.ScanFiles(context.Background(), []string{
		filepath.Join(root, "lib", "main.py"),
		filepath.Join(root, "lib", "deleted.py"),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="Scan batch started"`)
	assert.Contains(t, out, `msg="Failed to scan file"`)
	assert.Contains(t, out, `msg="Scan batch finished"`)
	assert.Contains(t, out, "batch_id=")
}
