package fsprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestOSProbeFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	writeFile(t, file, "x\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	p := &OSProbe{}
	ctx := context.Background()

	ok, err := p.FileExists(ctx, filepath.ToSlash(file))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.FileExists(ctx, filepath.ToSlash(filepath.Join(dir, "sub")))
	require.NoError(t, err)
	assert.False(t, ok, "directories are not regular files")

	ok, err = p.FileExists(ctx, filepath.ToSlash(filepath.Join(dir, "missing.py")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOSProbeFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.py")
	writeFile(t, target, "a\nb\n")
	link := filepath.Join(dir, "link.py")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.py"), filepath.Join(dir, "dangling.py")))

	p := &OSProbe{}
	ok, err := p.FileExists(context.Background(), filepath.ToSlash(link))
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := p.LineCount(context.Background(), filepath.ToSlash(link))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err = p.FileExists(context.Background(), filepath.ToSlash(filepath.Join(dir, "dangling.py")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOSProbeLineCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"single unterminated", "a", 1},
		{"single terminated", "a\n", 1},
		{"two unterminated", "a\nb", 2},
		{"trailing blank line", "a\n\n", 2},
		{"crlf", "a\r\nb\r\n", 2},
		{"sixteen", strings.Repeat("line\n", 16), 16},
	}

	dir := t.TempDir()
	p := &OSProbe{}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".txt")
			writeFile(t, path, tt.content)
			n, err := p.LineCount(context.Background(), filepath.ToSlash(path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestOSProbeLineCountMissing(t *testing.T) {
	_, err := (&OSProbe{}).LineCount(context.Background(), filepath.ToSlash(filepath.Join(t.TempDir(), "nope")))
	require.Error(t, err)
}

func TestOSProbeCaseInsensitiveFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Docs", "ReadMe.MD"), "one\ntwo\nthree\n")
	query := filepath.ToSlash(filepath.Join(dir, "docs", "README.md"))

	strict := &OSProbe{}
	folded := &OSProbe{CaseInsensitive: true}

	ok, err := folded.FileExists(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := folded.LineCount(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	if _, err := os.Stat(filepath.FromSlash(query)); err == nil {
		t.Skip("filesystem is case-insensitive")
	}
	ok, err = strict.FileExists(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := run(context.Background(), 20*time.Millisecond, func() (bool, error) {
		<-release
		return true, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
