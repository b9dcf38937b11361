package fsprobe_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/foundation"
	"git.home.luguber.info/inful/commentlink/internal/fsprobe"
)

func TestResolveAgainstRealWorkspace(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	mustWrite(t, root+"/example/folder/otherfile.py", strings.Repeat("pass\n", 20))
	mustWrite(t, root+"/example/short.py", strings.Repeat("pass\n", 15))
	mustWrite(t, root+"/shared.py", "x = 1\n")

	source := strings.Join([]string{
		"# See [docs](folder/otherfile.py:16) for details.",
		"# [short](short.py:16) [shared](shared.py) [abs](" + root + "/shared.py:1)",
		"# [gone](nowhere.py)",
	}, "\n")

	cache := fsprobe.NewCache(&fsprobe.OSProbe{}, nil)
	r, err := commentlink.NewResolver(commentlink.Options{FileSystem: cache})
	require.NoError(t, err)

	results, err := r.Resolve(context.Background(), source, root+"/example/example.py", root, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, commentlink.StatusResolved, results[0].Status)
	assert.Equal(t, foundation.Some(root+"/example/folder/otherfile.py"), results[0].ResolvedPath)
	assert.Equal(t, foundation.Some(16), results[0].Line)
	assert.Equal(t, commentlink.StrategyRelativeToFile, results[0].Strategy)

	assert.Equal(t, commentlink.StatusLineOutOfRange, results[1].Status)
	assert.Equal(t, commentlink.StrategyRelativeToWorkspaceRoot, results[2].Strategy)
	assert.Equal(t, commentlink.StrategyAbsolute, results[3].Strategy)
	assert.Equal(t, commentlink.StatusFileNotFound, results[4].Status)

	again, err := r.Resolve(context.Background(), source, root+"/example/example.py", root, nil)
	require.NoError(t, err)
	assert.Equal(t, results, again)
	assert.Positive(t, cache.Stats().Hits)
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	native := filepath.FromSlash(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(native), 0o755))
	require.NoError(t, os.WriteFile(native, []byte(content), 0o600))
}
