package commands

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/config"
	"git.home.luguber.info/inful/commentlink/internal/report"
	"git.home.luguber.info/inful/commentlink/internal/scan"
	"git.home.luguber.info/inful/commentlink/internal/testutil"
)

func TestCheckUnresolved(t *testing.T) {
	clean := scan.Summary{Links: 2, ByStatus: map[commentlink.Status]int{commentlink.StatusResolved: 2}}
	assert.NoError(t, checkUnresolved(clean))

	lines := scan.Summary{Links: 2, ByStatus: map[commentlink.Status]int{
		commentlink.StatusResolved:       1,
		commentlink.StatusLineOutOfRange: 1,
	}}
	var unresolved *UnresolvedLinksError
	require.ErrorAs(t, checkUnresolved(lines), &unresolved)
	assert.Equal(t, 1, unresolved.Code)
	assert.Equal(t, 1, unresolved.Count)

	missing := scan.Summary{Links: 2, ByStatus: map[commentlink.Status]int{
		commentlink.StatusLineOutOfRange: 1,
		commentlink.StatusFileNotFound:   1,
	}}
	require.ErrorAs(t, checkUnresolved(missing), &unresolved)
	assert.Equal(t, 2, unresolved.Code)
}

func TestStorePath(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, filepath.Join("conf", ".commentlink", "history.db"), storePath(cfg, filepath.Join("conf", ".commentlink.yaml")))

	cfg.Store.Path = "/var/lib/commentlink.db"
	assert.Equal(t, "/var/lib/commentlink.db", storePath(cfg, "x/.commentlink.yaml"))
}

func TestOutputFlagsFormatter(t *testing.T) {
	cfg := config.Default()

	f, err := outputFlags{}.formatter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &report.TextFormatter{}, f)

	f, err = outputFlags{Format: "md"}.formatter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &report.MarkdownFormatter{}, f)

	_, err = outputFlags{Format: "yaml"}.formatter(cfg)
	require.Error(t, err)
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{Config: filepath.Join(dir, config.DefaultFileName)}
	require.NoError(t, (&InitCmd{}).Run(&Global{}, cli))
	require.Error(t, (&InitCmd{}).Run(&Global{}, cli))

	g := &Global{Logger: slog.Default()}
	cfg, err := cli.loadConfig(g)
	require.NoError(t, err)
	assert.Equal(t, config.CurrentVersion, cfg.Version)
	assert.NotNil(t, g.Logger)
}

func TestRuntimeScanner(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.py", "# [b](b.py:1)\n")
	testutil.WriteFile(t, root, "b.py", "x = 1\n")

	cfg := config.Default()
	cfg.Workspace.Root = root
	rt, err := newRuntime(context.Background(), cfg, config.DefaultFileName, slog.Default(), runtimeOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	require.NotNil(t, rt.cache)
	assert.Nil(t, rt.store)
	assert.Nil(t, rt.registry)

	scanner, err := rt.scanner("", root)
	require.NoError(t, err)
	batch, err := scanner.ScanWorkspace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Summary.Links)
	assert.Zero(t, batch.Summary.Unresolved())
}

func TestScanCmdReportsUnresolvedAndStoresHistory(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "main.go", "package main\n\n// See [missing](nope.go).\nfunc main() {}\n")
	configPath := testutil.WriteFile(t, root, config.DefaultFileName, "version: \"1\"\nworkspace:\n  root: "+root+"\nstore:\n  enabled: true\n")

	cli := &CLI{Config: configPath}
	err := (&ScanCmd{outputFlags: outputFlags{Format: "json"}, Path: root}).Run(&Global{Logger: slog.Default()}, cli)

	var unresolved *UnresolvedLinksError
	require.True(t, errors.As(err, &unresolved), "got %v", err)
	assert.Equal(t, 2, unresolved.Code)
	assert.FileExists(t, filepath.Join(root, ".commentlink", "history.db"))

	require.NoError(t, (&HistoryCmd{Limit: 5, JSON: true}).Run(&Global{Logger: slog.Default()}, cli))
}

func TestScanCmdNoFail(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "main.py", "# [missing](nope.py)\n")
	configPath := testutil.WriteFile(t, root, config.DefaultFileName, "version: \"1\"\nworkspace:\n  root: "+root+"\n")

	cli := &CLI{Config: configPath}
	err := (&ScanCmd{NoFail: true, Path: root}).Run(&Global{Logger: slog.Default()}, cli)
	require.NoError(t, err)
}

func TestHistoryRequiresStore(t *testing.T) {
	root := t.TempDir()
	configPath := testutil.WriteFile(t, root, config.DefaultFileName, "version: \"1\"\n")

	err := (&HistoryCmd{Limit: 5}).Run(&Global{Logger: slog.Default()}, &CLI{Config: configPath})
	require.Error(t, err)
}
