package config

import (
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
)

// normalize canonicalizes enum fields, rejecting unknown values.
func normalize(cfg *Config) error {
	if !logLevelNormalizer.IsValid(string(cfg.Logging.Level)) {
		return invalid("logging.level", string(cfg.Logging.Level), logLevelNormalizer.ValidKeys())
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))

	if !logFormatNormalizer.IsValid(string(cfg.Logging.Format)) {
		return invalid("logging.format", string(cfg.Logging.Format), logFormatNormalizer.ValidKeys())
	}
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	format, err := ParseOutputFormat(string(cfg.Output.Format))
	if err != nil {
		return invalid("output.format", string(cfg.Output.Format), OutputFormats())
	}
	cfg.Output.Format = format

	if cfg.Events.Retry.Backoff != "" {
		mode := NormalizeRetryBackoff(string(cfg.Events.Retry.Backoff))
		if mode == "" {
			return invalid("events.retry.backoff", string(cfg.Events.Retry.Backoff), retryBackoffNormalizer.ValidKeys())
		}
		cfg.Events.Retry.Backoff = mode
	}

	for i, ext := range cfg.Workspace.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Workspace.Extensions[i] = ext
	}
	return nil
}

// Validate checks bounds, durations and patterns.
func Validate(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return ferrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}
	if cfg.Resolve.Concurrency < 0 {
		return ferrors.ValidationError("resolve.concurrency cannot be negative").Build()
	}
	if cfg.Resolve.FileWorkers < 0 {
		return ferrors.ValidationError("resolve.file_workers cannot be negative").Build()
	}

	durations := []struct {
		field string
		value string
	}{
		{"resolve.fs_timeout", cfg.Resolve.FSTimeout},
		{"watch.debounce", cfg.Watch.Debounce},
		{"watch.rescan_interval", cfg.Watch.RescanInterval},
		{"events.retry.initial_delay", cfg.Events.Retry.InitialDelay},
		{"events.retry.max_delay", cfg.Events.Retry.MaxDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil || parsed < 0 {
			return ferrors.ValidationError("invalid duration").
				WithContext("field", d.field).
				WithContext("value", d.value).
				Build()
		}
	}

	for _, pattern := range cfg.Workspace.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid ignore pattern").
				WithContext("pattern", pattern).
				Build()
		}
	}

	if cfg.Events.Enabled && (cfg.Events.NATSURL == "" || cfg.Events.Subject == "") {
		return ferrors.ValidationError("events.nats_url and events.subject are required when events are enabled").Build()
	}
	if cfg.Events.Retry.MaxRetries < 0 {
		return ferrors.ValidationError("events.retry.max_retries cannot be negative").Build()
	}
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		return ferrors.ValidationError("store.path is required when the store is enabled").Build()
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		return ferrors.ValidationError("metrics.listen_addr is required when metrics are enabled").Build()
	}
	return nil
}

func invalid(field, value string, valid []string) error {
	return ferrors.ValidationError("invalid value for "+field).
		WithContext("value", value).
		WithContext("valid", strings.Join(valid, ", ")).
		Build()
}
