package config

// Default returns a configuration with every field set to its default.
// Load decodes the YAML file on top of this value.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Workspace: WorkspaceConfig{
			Extensions: []string{
				".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".kt", ".c", ".h",
				".cc", ".cpp", ".hpp", ".cs", ".rs", ".rb", ".sh", ".sql", ".lua",
				".yaml", ".yml", ".toml", ".html", ".xml", ".md", ".css",
			},
			ExcludeDirs: []string{"node_modules", "vendor", "dist", "build", "__pycache__"},
		},
		Resolve: ResolveConfig{
			Concurrency: 4,
			FileWorkers: 8,
			FSTimeout:   "2s",
			Cache:       true,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Output:  OutputConfig{Format: OutputText},
		Watch: WatchConfig{
			Debounce:       "250ms",
			RescanInterval: "10m",
		},
		Events: EventsConfig{
			NATSURL: "nats://localhost:4222",
			Subject: "commentlink.unresolved",
			Stream:  "COMMENTLINK",
			Retry: RetryConfig{
				Backoff:      RetryBackoffExponential,
				InitialDelay: "500ms",
				MaxDelay:     "10s",
				MaxRetries:   3,
			},
		},
		Store: StoreConfig{Path: ".commentlink/history.db"},
		Metrics: MetricsConfig{
			ListenAddr: "127.0.0.1:9464",
		},
	}
}
