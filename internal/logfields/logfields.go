package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile          = "file"
	KeyPath          = "path"
	KeyWorkspaceRoot = "workspace_root"
	KeyBatchID       = "batch_id"
	KeyStatus        = "status"
	KeyStrategy      = "strategy"
	KeyCount         = "count"
	KeyDurationMS    = "duration_ms"
	KeySubject       = "subject"
	KeyJob           = "job"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(path string) slog.Attr          { return slog.String(KeyFile, path) }
func Path(p string) slog.Attr             { return slog.String(KeyPath, p) }
func WorkspaceRoot(root string) slog.Attr { return slog.String(KeyWorkspaceRoot, root) }
func BatchID(id string) slog.Attr         { return slog.String(KeyBatchID, id) }
func Status(s string) slog.Attr           { return slog.String(KeyStatus, s) }
func Strategy(s string) slog.Attr         { return slog.String(KeyStrategy, s) }
func Count(n int) slog.Attr               { return slog.Int(KeyCount, n) }
func Subject(s string) slog.Attr          { return slog.String(KeySubject, s) }
func Job(name string) slog.Attr           { return slog.String(KeyJob, name) }

// Duration reports d in fractional milliseconds under the duration_ms key.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
