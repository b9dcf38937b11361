package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/config"
	"git.home.luguber.info/inful/commentlink/internal/events"
	"git.home.luguber.info/inful/commentlink/internal/fsprobe"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
	"git.home.luguber.info/inful/commentlink/internal/report"
	"git.home.luguber.info/inful/commentlink/internal/reportstore"
	"git.home.luguber.info/inful/commentlink/internal/scan"
	"git.home.luguber.info/inful/commentlink/internal/workspace"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:".commentlink.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Resolve ResolveCmd `cmd:"" help:"Resolve the comment links of specific files"`
	Scan    ScanCmd    `cmd:"" help:"Scan a workspace and report unresolved comment links"`
	Watch   WatchCmd   `cmd:"" help:"Rescan files as they change and publish unresolved links"`
	History HistoryCmd `cmd:"" help:"Show stored scan history"`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Serve link resolution to editors over the Model Context Protocol (stdio)"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	setLogger(g, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// loadConfig reads the configuration file and applies its logging section.
// A missing default file yields the defaults.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config, c.Config != config.DefaultFileName)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == config.LogFormatJSON {
		setLogger(g, slog.NewJSONHandler(os.Stderr, opts))
	} else {
		setLogger(g, slog.NewTextHandler(os.Stderr, opts))
	}
	return cfg, nil
}

func setLogger(g *Global, h slog.Handler) {
	logger := slog.New(h)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
}

// UnresolvedLinksError reports a scan that found broken links. main exits
// with Code without printing anything further.
type UnresolvedLinksError struct {
	Count int
	Code  int
}

func (e *UnresolvedLinksError) Error() string {
	return fmt.Sprintf("%d unresolved comment link(s)", e.Count)
}

// checkUnresolved maps a summary to an exit status: 2 when a target is
// missing or invalid, 1 when only line numbers are out of range.
func checkUnresolved(s scan.Summary) error {
	if s.Unresolved() == 0 {
		return nil
	}
	code := 1
	if s.ByStatus[commentlink.StatusFileNotFound]+s.ByStatus[commentlink.StatusAmbiguousOrInvalid] > 0 {
		code = 2
	}
	return &UnresolvedLinksError{Count: s.Unresolved(), Code: code}
}

// outputFlags are shared by commands that print a report.
type outputFlags struct {
	Format       string `short:"f" help:"Output format (text, json, markdown, html); defaults to the configured format"`
	ShowResolved bool   `short:"a" name:"all" help:"List resolved links too"`
}

func (o outputFlags) formatter(cfg *config.Config) (report.Formatter, error) {
	format := cfg.Output.Format
	if o.Format != "" {
		parsed, err := config.ParseOutputFormat(o.Format)
		if err != nil {
			return nil, err
		}
		format = parsed
	}
	return report.NewFormatter(format, report.Options{
		Color:        cfg.Output.Color && isColorSupported(),
		ShowResolved: o.ShowResolved,
	}), nil
}

// isColorSupported checks if the terminal supports color output.
func isColorSupported() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return false
	}
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

// runtimeOptions selects the optional collaborators a command wants.
type runtimeOptions struct {
	events  bool
	store   bool
	metrics bool
}

// runtime holds the collaborators shared by every scanner a command creates.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prom.Registry
	recorder  metrics.Recorder
	cache     *fsprobe.Cache
	resolver  *commentlink.Resolver
	publisher events.Publisher
	store     *reportstore.SQLiteStore
}

func newRuntime(ctx context.Context, cfg *config.Config, configPath string, logger *slog.Logger, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
	}
	if opts.metrics && cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	var fs commentlink.FileSystem = &fsprobe.OSProbe{
		CaseInsensitive: cfg.Resolve.CaseInsensitive,
		Timeout:         cfg.Resolve.FSTimeoutDuration(),
	}
	if cfg.Resolve.Cache {
		rt.cache = fsprobe.NewCache(fs, rt.recorder)
		fs = rt.cache
	}
	resolver, err := commentlink.NewResolver(commentlink.Options{
		FileSystem:  fs,
		Concurrency: cfg.Resolve.Concurrency,
		FSTimeout:   cfg.Resolve.FSTimeoutDuration(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	rt.resolver = resolver

	if opts.events && cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(ctx, cfg.Events, rt.recorder)
		if err != nil {
			return nil, err
		}
		rt.publisher = pub
	}
	if opts.store && cfg.Store.Enabled {
		store, err := reportstore.Open(storePath(cfg, configPath))
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.store = store
	}
	return rt, nil
}

// storePath resolves a relative store path against the configuration file's directory.
func storePath(cfg *config.Config, configPath string) string {
	if filepath.IsAbs(cfg.Store.Path) || cfg.Store.Path == reportstore.MemoryPath {
		return cfg.Store.Path
	}
	return filepath.Join(filepath.Dir(configPath), cfg.Store.Path)
}

// scanner builds a scanner for the workspace containing start. root
// overrides the configured root.
func (rt *runtime) scanner(root, start string) (*scan.Scanner, error) {
	if root == "" {
		root = rt.cfg.Workspace.Root
	}
	ws, err := workspace.Open(root, start)
	if err != nil {
		return nil, err
	}
	opts := scan.Options{
		Extensions:  rt.cfg.Workspace.Extensions,
		ExcludeDirs: rt.cfg.Workspace.ExcludeDirs,
		Ignore:      rt.cfg.Workspace.Ignore,
		Workers:     rt.cfg.Resolve.FileWorkers,
		Recorder:    rt.recorder,
		Publisher:   rt.publisher,
		Logger:      rt.logger,
	}
	if rt.cache != nil {
		opts.Cache = rt.cache
	}
	if rt.store != nil {
		opts.Store = rt.store
	}
	return scan.New(ws, rt.resolver, opts), nil
}

// Close releases the publisher and the store.
func (rt *runtime) Close() error {
	var firstErr error
	if err := rt.publisher.Close(); err != nil {
		firstErr = err
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
