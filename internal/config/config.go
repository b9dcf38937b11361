package config

import (
	"time"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = ".commentlink.yaml"

// CurrentVersion is the only configuration version accepted by Load.
const CurrentVersion = "1"

// Config is the full commentlink configuration.
type Config struct {
	Version   string          `yaml:"version"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Resolve   ResolveConfig   `yaml:"resolve"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
	Watch     WatchConfig     `yaml:"watch"`
	Events    EventsConfig    `yaml:"events"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// WorkspaceConfig selects which files are scanned and what relative links resolve against.
type WorkspaceConfig struct {
	Root        string   `yaml:"root,omitempty"`   // Empty means detect (git top-level, else cwd)
	Extensions  []string `yaml:"extensions"`       // File extensions to scan, with leading dot
	ExcludeDirs []string `yaml:"exclude_dirs"`     // Directory names skipped during walks
	Ignore      []string `yaml:"ignore,omitempty"` // Glob patterns matched against workspace-relative paths
}

// ResolveConfig tunes link resolution.
type ResolveConfig struct {
	Concurrency     int    `yaml:"concurrency"`      // Parallel occurrence checks per comment
	FileWorkers     int    `yaml:"file_workers"`     // Files scanned in parallel
	FSTimeout       string `yaml:"fs_timeout"`       // Per filesystem call, e.g. "2s"
	Cache           bool   `yaml:"cache"`            // Cache existence and line counts per batch
	CaseInsensitive bool   `yaml:"case_insensitive"` // Fall back to case-folded name matching
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

type OutputConfig struct {
	Format OutputFormat `yaml:"format"`
	Color  bool         `yaml:"color"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce       string `yaml:"debounce"`        // Quiet period before rescanning changed files
	RescanInterval string `yaml:"rescan_interval"` // Full rescan period; empty or "0" disables
}

// EventsConfig controls publishing unresolved links to NATS JetStream.
type EventsConfig struct {
	Enabled bool        `yaml:"enabled"`
	NATSURL string      `yaml:"nats_url"`
	Subject string      `yaml:"subject"`
	Stream  string      `yaml:"stream"`
	Retry   RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// StoreConfig controls the SQLite scan history.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// FSTimeoutDuration returns the parsed fs_timeout. Load has already validated it.
func (r ResolveConfig) FSTimeoutDuration() time.Duration {
	return mustDuration(r.FSTimeout)
}

func (w WatchConfig) DebounceDuration() time.Duration {
	return mustDuration(w.Debounce)
}

func (w WatchConfig) RescanIntervalDuration() time.Duration {
	return mustDuration(w.RescanInterval)
}

func (r RetryConfig) InitialDelayDuration() time.Duration {
	return mustDuration(r.InitialDelay)
}

func (r RetryConfig) MaxDelayDuration() time.Duration {
	return mustDuration(r.MaxDelay)
}

// mustDuration parses s, treating empty or invalid input as zero.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
