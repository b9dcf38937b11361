package errors

import (
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation error", ValidationError("bad flag").Build(), 3},
		{"not found", NotFoundError("missing file").Build(), 4},
		{"config error", ConfigError("bad config").Build(), 7},
		{"network error", NetworkError("nats down").Build(), 8},
		{"storage error", StorageError("sqlite locked").Build(), 11},
		{"internal error", InternalError("boom").Build(), 10},
		{"unclassified error", stderrors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	assert.Empty(t, quiet.FormatError(nil))
	assert.Equal(t, "Error: unknown", quiet.FormatError(stderrors.New("unknown")))
	assert.Equal(t, "Error: bad config", quiet.FormatError(ConfigError("bad config").Build()))
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("boom").Build()))
	assert.Equal(t, "[internal:fatal] boom", verbose.FormatError(InternalError("boom").Build()))
}
